package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced entity is absent. Surfaced
	// as a client error, never retried internally.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a unique-constraint collision that the
	// caller should resolve (duplicate classification name, for example).
	ErrConflict = errors.New("conflict")

	// ErrPrimaryValidationFailed is returned when the submitted melding text
	// fails the primary form's predicate.
	ErrPrimaryValidationFailed = errors.New("primary form validation failed")

	// ErrMaxAssetsExceeded is returned when attaching an asset would exceed
	// the asset type's ceiling.
	ErrMaxAssetsExceeded = errors.New("max assets exceeded")

	// ErrAssetSelectionRequired is returned when a location is submitted for
	// a melding whose classification requires asset selection instead.
	ErrAssetSelectionRequired = errors.New("classification requires asset selection, not a location")

	// ErrNoAssetTypeBound is returned when an asset is attached to a melding
	// whose classification binds no asset type.
	ErrNoAssetTypeBound = errors.New("classification does not bind an asset type")

	// ErrInvalidCoordinates is returned for a lat/lon outside WGS84 bounds.
	ErrInvalidCoordinates = errors.New("coordinates out of range")
)

// isUniqueViolation recognizes a unique-constraint failure on either backing
// driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return true
	}
	// The sqlite driver exposes no typed error through gorm.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
