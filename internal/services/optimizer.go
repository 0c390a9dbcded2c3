package services

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/sync/semaphore"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/storage"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// Optimizer downscales uploaded images off the request path. Concurrency is
// bounded by a weighted semaphore so a burst of uploads cannot exhaust
// memory; failures leave the original attachment untouched.
type Optimizer struct {
	log   *logger.Logger
	store storage.Store
	repo  meldingrepo.AttachmentRepo

	sem      *semaphore.Weighted
	maxWidth int
	quality  int
	timeout  time.Duration
}

func NewOptimizer(baseLog *logger.Logger, store storage.Store, repo meldingrepo.AttachmentRepo) *Optimizer {
	return &Optimizer{
		log:      baseLog.With("service", "Optimizer"),
		store:    store,
		repo:     repo,
		sem:      semaphore.NewWeighted(int64(envutil.Int("OPTIMIZER_CONCURRENCY", 4))),
		maxWidth: envutil.Int("OPTIMIZER_MAX_WIDTH", 1920),
		quality:  envutil.Int("OPTIMIZER_JPEG_QUALITY", 80),
		timeout:  envutil.Duration("OPTIMIZER_TIMEOUT", 60*time.Second),
	}
}

// Enqueue starts the optimization in the background and returns immediately.
func (o *Optimizer) Enqueue(attachmentID uuid.UUID, key string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if err := o.sem.Acquire(ctx, 1); err != nil {
			o.log.Warn("optimizer queue full", "attachment_id", attachmentID.String())
			return
		}
		defer o.sem.Release(1)
		if err := o.run(ctx, attachmentID, key); err != nil {
			o.log.Warn("image optimization failed", "attachment_id", attachmentID.String(), "error", err)
		}
	}()
}

func (o *Optimizer) run(ctx context.Context, attachmentID uuid.UUID, key string) error {
	rc, err := o.store.Get(ctx, key)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	bounds := src.Bounds()
	if bounds.Dx() > o.maxWidth {
		height := bounds.Dy() * o.maxWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, o.maxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: o.quality}); err != nil {
		return err
	}
	if err := o.store.Put(ctx, optimizedKey(key), "image/jpeg", &buf); err != nil {
		return err
	}
	return o.repo.UpdateFields(ctx, nil, attachmentID, map[string]interface{}{"optimized": true})
}

// optimizedKey derives the storage key of the downscaled rendition.
func optimizedKey(key string) string {
	if idx := strings.LastIndex(key, "."); idx > strings.LastIndex(key, "/") {
		key = key[:idx]
	}
	return key + ".opt.jpg"
}
