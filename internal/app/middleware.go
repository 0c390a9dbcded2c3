package app

import (
	httpMW "github.com/Amsterdam/meldingen-sub000/internal/http/middleware"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type Middleware struct {
	MelderAuth *httpMW.MelderAuthMiddleware
	StaffAuth  *httpMW.StaffAuthMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	return Middleware{
		MelderAuth: httpMW.NewMelderAuthMiddleware(log, s.Melding),
		StaffAuth:  httpMW.NewStaffAuthMiddleware(log, s.StaffAuth),
	}
}
