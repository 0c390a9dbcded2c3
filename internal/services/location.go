package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/geocode"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// LocationService stores the 1:1 free-form location of a melding. It refuses
// when the classification binds an asset type, because asset selection then
// replaces the location.
type LocationService interface {
	Put(ctx context.Context, meldingID uuid.UUID, lat, lon float64) (*domain.MeldingLocation, error)
	Get(ctx context.Context, meldingID uuid.UUID) (*domain.MeldingLocation, error)
}

type locationService struct {
	db       *gorm.DB
	log      *logger.Logger
	resolver geocode.Resolver

	meldingRepo  meldingrepo.MeldingRepo
	locationRepo meldingrepo.LocationRepo
	clsRepo      formdef.ClassificationRepo
}

func NewLocationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolver geocode.Resolver,
	meldingRepo meldingrepo.MeldingRepo,
	locationRepo meldingrepo.LocationRepo,
	clsRepo formdef.ClassificationRepo,
) LocationService {
	return &locationService{
		db:           db,
		log:          baseLog.With("service", "LocationService"),
		resolver:     resolver,
		meldingRepo:  meldingRepo,
		locationRepo: locationRepo,
		clsRepo:      clsRepo,
	}
}

func (s *locationService) Put(ctx context.Context, meldingID uuid.UUID, lat, lon float64) (*domain.MeldingLocation, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinates
	}

	var out *domain.MeldingLocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.meldingRepo.GetByID(ctx, tx, meldingID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("melding: %w", ErrNotFound)
		}
		if !m.State.Draft() {
			return lifecycle.ErrInvalidTransition
		}
		if m.ClassificationID != nil {
			cls, err := s.clsRepo.GetByID(ctx, tx, *m.ClassificationID)
			if err != nil {
				return err
			}
			if cls != nil && cls.AssetTypeID != nil {
				return ErrAssetSelectionRequired
			}
		}

		out = &domain.MeldingLocation{
			ID:        uuid.New(),
			MeldingID: m.ID,
			Lat:       lat,
			Lon:       lon,
		}
		return s.locationRepo.Upsert(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}

	// Reverse geocoding is best effort and never gates the request; the
	// address lands through a later update when it resolves, and reads
	// pick it up from the row.
	if s.resolver != nil {
		go s.resolveAddress(meldingID, lat, lon)
	}
	return out, nil
}

func (s *locationService) resolveAddress(meldingID uuid.UUID, lat, lon float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	addr, err := s.resolver.Resolve(ctx, lat, lon)
	if err != nil {
		s.log.Warn("reverse geocode failed", "melding_id", meldingID.String(), "error", err)
		return
	}
	if addr == nil {
		return
	}
	if err := s.locationRepo.UpdateAddress(ctx, nil, meldingID, addr.Street, addr.HouseNumber, addr.Postcode, addr.City); err != nil {
		s.log.Warn("address update failed", "melding_id", meldingID.String(), "error", err)
	}
}

func (s *locationService) Get(ctx context.Context, meldingID uuid.UUID) (*domain.MeldingLocation, error) {
	m, err := s.meldingRepo.GetByID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	loc, err := s.locationRepo.GetByMeldingID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("location: %w", ErrNotFound)
	}
	return loc, nil
}
