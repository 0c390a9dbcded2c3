package token

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateRoundTrip(t *testing.T) {
	a := NewAuthority(time.Hour)

	tok, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tok == "" {
		t.Fatal("Generate: empty token")
	}

	other, err := a.Generate()
	if err != nil {
		t.Fatalf("Generate second: %v", err)
	}
	if tok == other {
		t.Fatal("Generate: two tokens collided")
	}

	now := time.Now()
	expires := a.ExpiryFrom(now)
	if err := a.Verify(&tok, &expires, tok, now); err != nil {
		t.Fatalf("Verify fresh: %v", err)
	}
	if err := a.Verify(&tok, &expires, other, now); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify mismatched: got %v", err)
	}
}

func TestVerifyExpiry(t *testing.T) {
	a := NewAuthority(time.Hour)
	tok, _ := a.Generate()
	now := time.Now()
	expires := now.Add(time.Minute)

	if err := a.Verify(&tok, &expires, tok, now); err != nil {
		t.Fatalf("Verify inside window: %v", err)
	}
	// Expiry is checked against the clock at verification time, so crossing
	// the boundary mid-request still fails.
	if err := a.Verify(&tok, &expires, tok, now.Add(2*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify after expiry: got %v", err)
	}
}

func TestVerifyInvalidated(t *testing.T) {
	a := NewAuthority(time.Hour)
	tok, _ := a.Generate()
	now := time.Now()
	expires := a.ExpiryFrom(now)

	// Invalidation nils the stored credential; verification must fail even
	// inside the expiry window.
	if err := a.Verify(nil, &expires, tok, now); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify nil stored: got %v", err)
	}
	empty := ""
	if err := a.Verify(&empty, &expires, tok, now); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify empty stored: got %v", err)
	}
	if err := a.Verify(&tok, nil, tok, now); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("Verify nil expiry: got %v", err)
	}
}
