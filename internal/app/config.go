package app

import (
	"time"

	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
)

type Config struct {
	Port            string
	Environment     string
	Version         string
	MeldingTokenTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:            envutil.String("PORT", "8080"),
		Environment:     envutil.String("ENVIRONMENT", "development"),
		Version:         envutil.String("SERVICE_VERSION", "dev"),
		MeldingTokenTTL: envutil.Duration("MELDING_TOKEN_TTL", 72*time.Hour),
	}
}
