// Package storage holds the attachment byte store. Attachment metadata lives
// in the database; the bytes live here, behind a narrow interface with a GCS
// backend for deployments and a filesystem backend for local development.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewFromEnv selects the backend by STORAGE_BACKEND: "gcs" or "local"
// (default).
func NewFromEnv(log *logger.Logger) (Store, error) {
	backend := strings.ToLower(envutil.String("STORAGE_BACKEND", "local"))
	switch backend {
	case "gcs":
		return NewGCSStore(log)
	case "local":
		return NewLocalStore(log)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}
