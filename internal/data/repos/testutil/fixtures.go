package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Amsterdam/meldingen-sub000/internal/domain"
)

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

func PtrString(s string) *string { return &s }

func SeedMelding(tb testing.TB, ctx context.Context, tx *gorm.DB, state types.MeldingState) *types.Melding {
	tb.Helper()
	tok := uuid.NewString()
	expires := time.Now().Add(time.Hour)
	m := &types.Melding{
		ID:           uuid.New(),
		PublicCode:   "M-" + uuid.NewString()[:8],
		Text:         "er ligt afval op straat",
		State:        state,
		Token:        &tok,
		TokenExpires: &expires,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed melding: %v", err)
	}
	return m
}

func SeedAssetType(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, maxAssets int) *types.AssetType {
	tb.Helper()
	at := &types.AssetType{ID: uuid.New(), Name: name, MaxAssets: maxAssets}
	if err := tx.WithContext(ctx).Create(at).Error; err != nil {
		tb.Fatalf("seed asset type: %v", err)
	}
	return at
}

func SeedClassification(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, assetTypeID *uuid.UUID) *types.Classification {
	tb.Helper()
	c := &types.Classification{ID: uuid.New(), Name: name, AssetTypeID: assetTypeID}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed classification: %v", err)
	}
	return c
}

func SeedForm(tb testing.TB, ctx context.Context, tx *gorm.DB, classificationID *uuid.UUID) *types.Form {
	tb.Helper()
	f := &types.Form{ID: uuid.New(), Title: "vervolgvragen", ClassificationID: classificationID}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed form: %v", err)
	}
	return f
}
