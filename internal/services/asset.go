package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/rules"
)

// AttachAssetInput identifies an object from the external asset registry.
type AttachAssetInput struct {
	ExternalID string
	Name       string
	Lat        float64
	Lon        float64
}

// AssetService attaches registry assets to a melding whose classification
// binds an asset type. The asset type's MaxAssets is a hard ceiling.
type AssetService interface {
	Attach(ctx context.Context, meldingID uuid.UUID, in AttachAssetInput) (*domain.Asset, error)
	List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Asset, error)
}

type assetService struct {
	db  *gorm.DB
	log *logger.Logger

	meldingRepo   meldingrepo.MeldingRepo
	assetRepo     meldingrepo.AssetRepo
	clsRepo       formdef.ClassificationRepo
	assetTypeRepo formdef.AssetTypeRepo
}

func NewAssetService(
	db *gorm.DB,
	baseLog *logger.Logger,
	meldingRepo meldingrepo.MeldingRepo,
	assetRepo meldingrepo.AssetRepo,
	clsRepo formdef.ClassificationRepo,
	assetTypeRepo formdef.AssetTypeRepo,
) AssetService {
	return &assetService{
		db:            db,
		log:           baseLog.With("service", "AssetService"),
		meldingRepo:   meldingRepo,
		assetRepo:     assetRepo,
		clsRepo:       clsRepo,
		assetTypeRepo: assetTypeRepo,
	}
}

func (s *assetService) Attach(ctx context.Context, meldingID uuid.UUID, in AttachAssetInput) (*domain.Asset, error) {
	var out *domain.Asset
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
		if m.ClassificationID == nil {
			return ErrNoAssetTypeBound
		}
		cls, err := s.clsRepo.GetByID(ctx, tx, *m.ClassificationID)
		if err != nil {
			return err
		}
		if cls == nil || cls.AssetTypeID == nil {
			return ErrNoAssetTypeBound
		}
		assetType, err := s.assetTypeRepo.GetByID(ctx, tx, *cls.AssetTypeID)
		if err != nil {
			return err
		}
		if assetType == nil {
			return fmt.Errorf("%w: classification references missing asset type", rules.ErrInvalidExpression)
		}

		count, err := s.assetRepo.CountByMeldingID(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		if int(count) >= assetType.MaxAssets {
			return fmt.Errorf("%w: limit %d", ErrMaxAssetsExceeded, assetType.MaxAssets)
		}

		out = &domain.Asset{
			ID:          uuid.New(),
			MeldingID:   m.ID,
			AssetTypeID: assetType.ID,
			ExternalID:  in.ExternalID,
			Name:        in.Name,
			Lat:         in.Lat,
			Lon:         in.Lon,
		}
		return s.assetRepo.Create(ctx, tx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *assetService) List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Asset, error) {
	m, err := s.meldingRepo.GetByID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	return s.assetRepo.ListByMeldingID(ctx, nil, meldingID)
}
