package melding

import (
	"context"
	"testing"
	"time"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/testutil"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
)

func TestUpdateStateIf(t *testing.T) {
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewMeldingRepo(tx, log)
	ctx := context.Background()

	m := testutil.SeedMelding(t, ctx, tx, domain.StateClassified)

	ok, err := repo.UpdateStateIf(ctx, tx, m.ID, domain.StateClassified, domain.StateQuestionsAnswered)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("expected the commit to win")
	}

	// A replayed transition sees the row already moved on.
	ok, err = repo.UpdateStateIf(ctx, tx, m.ID, domain.StateClassified, domain.StateQuestionsAnswered)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if ok {
		t.Fatal("stale source state must not commit")
	}

	got, err := repo.GetByID(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.StateQuestionsAnswered {
		t.Fatalf("state = %s, want questions_answered", got.State)
	}
}

func TestClearToken(t *testing.T) {
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewMeldingRepo(tx, log)
	ctx := context.Background()

	m := testutil.SeedMelding(t, ctx, tx, domain.StateSubmitted)
	if err := repo.ClearToken(ctx, tx, m.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != nil || got.TokenExpires != nil {
		t.Fatal("token survived the clear")
	}
}

func TestListExpiredDraftIDs(t *testing.T) {
	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewMeldingRepo(tx, log)
	ctx := context.Background()

	now := time.Now()
	past := now.Add(-time.Hour)

	expiredDraft := testutil.SeedMelding(t, ctx, tx, domain.StateClassified)
	if err := repo.UpdateFields(ctx, tx, expiredDraft.ID, map[string]interface{}{"token_expires": past}); err != nil {
		t.Fatalf("expire: %v", err)
	}
	// A submitted melding with an expired token is no longer a draft.
	expiredSubmitted := testutil.SeedMelding(t, ctx, tx, domain.StateSubmitted)
	if err := repo.UpdateFields(ctx, tx, expiredSubmitted.ID, map[string]interface{}{"token_expires": past}); err != nil {
		t.Fatalf("expire: %v", err)
	}
	testutil.SeedMelding(t, ctx, tx, domain.StateClassified)

	ids, err := repo.ListExpiredDraftIDs(ctx, tx, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 1 || ids[0] != expiredDraft.ID {
		t.Fatalf("ids = %v, want only %s", ids, expiredDraft.ID)
	}
}
