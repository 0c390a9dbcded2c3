// Command seed installs the bootstrap data set: the primary form, starter
// classifications with their follow-up forms and asset types, and an admin
// staff account when ADMIN_EMAIL and ADMIN_PASSWORD are set.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Amsterdam/meldingen-sub000/internal/app"
	"github.com/Amsterdam/meldingen-sub000/internal/seeds"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	set, err := seeds.Load()
	if err != nil {
		a.Log.Error("seed load failed", "error", err)
		os.Exit(1)
	}
	if err := seeds.Apply(ctx, a.Log, set, a.Services.Form, a.Services.Classification); err != nil {
		a.Log.Error("seed apply failed", "error", err)
		os.Exit(1)
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email != "" && password != "" {
		_, err := a.Services.StaffAuth.Register(ctx, email, password, "Admin")
		switch {
		case err == nil:
			a.Log.Info("admin staff account created")
		case errors.Is(err, services.ErrConflict):
			a.Log.Info("admin staff account already exists")
		default:
			a.Log.Error("admin staff account failed", "error", err)
			os.Exit(1)
		}
	}

	a.Log.Info("seeding complete")
}
