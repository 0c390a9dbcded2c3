package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Amsterdam/meldingen-sub000/internal/clients/geocode"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	meldingrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/melding"
	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/testutil"
	"github.com/Amsterdam/meldingen-sub000/internal/lifecycle"
)

// stalledResolver blocks inside Resolve until released, then reports no
// match so nothing is written afterwards.
type stalledResolver struct {
	release chan struct{}
}

func (r *stalledResolver) Resolve(ctx context.Context, _, _ float64) (*geocode.Address, error) {
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestLocationPutDoesNotWaitForGeocoder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	resolver := &stalledResolver{release: make(chan struct{})}
	svc := NewLocationService(f.tx, log, resolver,
		meldingrepo.NewMeldingRepo(f.tx, log),
		meldingrepo.NewLocationRepo(f.tx, log),
		formdef.NewClassificationRepo(f.tx, log),
	)

	m, _, err := f.melding.Create(ctx, "er ligt hier van alles op straat", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Put(ctx, m.ID, 52.3702, 4.8952)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Put blocked on the geocoder")
	}
	close(resolver.release)

	loc, err := svc.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loc.Lat != 52.3702 || loc.Lon != 4.8952 {
		t.Fatalf("coordinates not stored: %+v", loc)
	}
}

func TestLocationPutRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, _, err := f.melding.Create(ctx, "er ligt hier van alles op straat", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	for _, c := range []struct{ lat, lon float64 }{
		{91, 4.9},
		{-91, 4.9},
		{52.4, 181},
		{52.4, -181},
	} {
		if _, err := f.location.Put(ctx, m.ID, c.lat, c.lon); !errors.Is(err, ErrInvalidCoordinates) {
			t.Fatalf("(%v,%v): err = %v, want ErrInvalidCoordinates", c.lat, c.lon, err)
		}
	}
}

func TestLocationPutAfterSubmitRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, _, err := f.melding.Create(ctx, "er ligt hier van alles op straat", nil, nil)
	if err != nil {
		t.Fatalf("create melding: %v", err)
	}
	if err := f.repos.melding.UpdateFields(ctx, nil, m.ID, map[string]interface{}{"state": "submitted"}); err != nil {
		t.Fatalf("force state: %v", err)
	}
	if _, err := f.location.Put(ctx, m.ID, 52.37, 4.89); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}
