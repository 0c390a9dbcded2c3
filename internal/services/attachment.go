package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/storage"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// AttachmentService stores uploaded files and queues images for downscaling.
type AttachmentService interface {
	Upload(ctx context.Context, meldingID uuid.UUID, filename, contentType string, size int64, r io.Reader) (*domain.Attachment, error)
	List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Attachment, error)
	// Download streams the attachment's bytes, optimized when available.
	Download(ctx context.Context, meldingID, attachmentID uuid.UUID) (*domain.Attachment, io.ReadCloser, error)
}

type attachmentService struct {
	db        *gorm.DB
	log       *logger.Logger
	store     storage.Store
	optimizer *Optimizer

	meldingRepo    meldingrepo.MeldingRepo
	attachmentRepo meldingrepo.AttachmentRepo

	maxSizeBytes int64
}

func NewAttachmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	store storage.Store,
	optimizer *Optimizer,
	meldingRepo meldingrepo.MeldingRepo,
	attachmentRepo meldingrepo.AttachmentRepo,
) AttachmentService {
	return &attachmentService{
		db:             db,
		log:            baseLog.With("service", "AttachmentService"),
		store:          store,
		optimizer:      optimizer,
		meldingRepo:    meldingRepo,
		attachmentRepo: attachmentRepo,
		maxSizeBytes:   int64(envutil.Int("ATTACHMENT_MAX_SIZE_MB", 20)) * 1 << 20,
	}
}

func (s *attachmentService) Upload(ctx context.Context, meldingID uuid.UUID, filename, contentType string, size int64, r io.Reader) (*domain.Attachment, error) {
	if size > s.maxSizeBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", ErrConflict, s.maxSizeBytes)
	}
	m, err := s.meldingRepo.GetByID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	if !m.State.Draft() {
		return nil, lifecycle.ErrInvalidTransition
	}

	id := uuid.New()
	key := fmt.Sprintf("meldingen/%s/attachments/%s%s", meldingID, id, strings.ToLower(path.Ext(filename)))
	if err := s.store.Put(ctx, key, contentType, io.LimitReader(r, s.maxSizeBytes)); err != nil {
		return nil, err
	}

	row := &domain.Attachment{
		ID:               id,
		MeldingID:        meldingID,
		OriginalFilename: filename,
		StorageKey:       key,
		ContentType:      contentType,
		SizeBytes:        size,
	}
	if err := s.attachmentRepo.Create(ctx, nil, row); err != nil {
		// The orphaned object is cleaned up rather than leaked.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphan cleanup failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	if s.optimizer != nil && strings.HasPrefix(contentType, "image/") {
		s.optimizer.Enqueue(row.ID, key)
	}
	return row, nil
}

func (s *attachmentService) List(ctx context.Context, meldingID uuid.UUID) ([]*domain.Attachment, error) {
	m, err := s.meldingRepo.GetByID(ctx, nil, meldingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("melding: %w", ErrNotFound)
	}
	return s.attachmentRepo.ListByMeldingID(ctx, nil, meldingID)
}

func (s *attachmentService) Download(ctx context.Context, meldingID, attachmentID uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	row, err := s.attachmentRepo.GetByID(ctx, nil, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if row == nil || row.MeldingID != meldingID {
		return nil, nil, fmt.Errorf("attachment: %w", ErrNotFound)
	}
	key := row.StorageKey
	if row.Optimized {
		key = optimizedKey(row.StorageKey)
	}
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return row, rc, nil
}
