package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// ClassificationService is the staff admin surface for classifications and
// asset types.
type ClassificationService interface {
	Create(ctx context.Context, name string, assetTypeID *uuid.UUID) (*domain.Classification, error)
	List(ctx context.Context) ([]*domain.Classification, error)
	Update(ctx context.Context, id uuid.UUID, name string, assetTypeID *uuid.UUID) (*domain.Classification, error)

	CreateAssetType(ctx context.Context, name string, maxAssets int) (*domain.AssetType, error)
	ListAssetTypes(ctx context.Context) ([]*domain.AssetType, error)
}

type classificationService struct {
	db  *gorm.DB
	log *logger.Logger

	clsRepo       formdef.ClassificationRepo
	assetTypeRepo formdef.AssetTypeRepo
}

func NewClassificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	clsRepo formdef.ClassificationRepo,
	assetTypeRepo formdef.AssetTypeRepo,
) ClassificationService {
	return &classificationService{
		db:            db,
		log:           baseLog.With("service", "ClassificationService"),
		clsRepo:       clsRepo,
		assetTypeRepo: assetTypeRepo,
	}
}

func (s *classificationService) Create(ctx context.Context, name string, assetTypeID *uuid.UUID) (*domain.Classification, error) {
	if err := s.checkAssetType(ctx, assetTypeID); err != nil {
		return nil, err
	}
	row := &domain.Classification{ID: uuid.New(), Name: name, AssetTypeID: assetTypeID}
	if err := s.clsRepo.Create(ctx, nil, row); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("classification %q: %w", name, ErrConflict)
		}
		return nil, err
	}
	return row, nil
}

func (s *classificationService) List(ctx context.Context) ([]*domain.Classification, error) {
	return s.clsRepo.List(ctx, nil)
}

func (s *classificationService) Update(ctx context.Context, id uuid.UUID, name string, assetTypeID *uuid.UUID) (*domain.Classification, error) {
	if err := s.checkAssetType(ctx, assetTypeID); err != nil {
		return nil, err
	}
	row, err := s.clsRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("classification: %w", ErrNotFound)
	}
	row.Name = name
	row.AssetTypeID = assetTypeID
	if err := s.clsRepo.Update(ctx, nil, row); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("classification %q: %w", name, ErrConflict)
		}
		return nil, err
	}
	return row, nil
}

func (s *classificationService) checkAssetType(ctx context.Context, assetTypeID *uuid.UUID) error {
	if assetTypeID == nil {
		return nil
	}
	at, err := s.assetTypeRepo.GetByID(ctx, nil, *assetTypeID)
	if err != nil {
		return err
	}
	if at == nil {
		return fmt.Errorf("asset type: %w", ErrNotFound)
	}
	return nil
}

func (s *classificationService) CreateAssetType(ctx context.Context, name string, maxAssets int) (*domain.AssetType, error) {
	if maxAssets < 1 {
		maxAssets = 1
	}
	row := &domain.AssetType{ID: uuid.New(), Name: name, MaxAssets: maxAssets}
	if err := s.assetTypeRepo.Create(ctx, nil, row); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("asset type %q: %w", name, ErrConflict)
		}
		return nil, err
	}
	return row, nil
}

func (s *classificationService) ListAssetTypes(ctx context.Context) ([]*domain.AssetType, error) {
	return s.assetTypeRepo.List(ctx, nil)
}
