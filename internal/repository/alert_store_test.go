package repository

import (
	"context"
	"errors"
	"testing"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

func TestAlertStoreCreateAssignsIDs(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	r1, err := s.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r2, err := s.Create(ctx, "alice", "BTC", models.ComparatorBelow, 40000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r1.ID == 0 || r2.ID == 0 {
		t.Fatal("expected non-zero ids")
	}
	if r1.ID == r2.ID {
		t.Fatalf("ids collide: %d", r1.ID)
	}
}

func TestAlertStoreListForIsolatesOwners(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, "bob", "ETH", models.ComparatorBelow, 2000); err != nil {
		t.Fatalf("create: %v", err)
	}

	alice, err := s.ListFor(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alice) != 1 || alice[0].Asset != "BTC" {
		t.Errorf("alice rules = %v, want one BTC rule", alice)
	}

	none, err := s.ListFor(ctx, "carol")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("carol rules = %v, want empty non-nil slice", none)
	}
}

func TestAlertStoreDuplicateRulesAllowed(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	rules, err := s.ListFor(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 3 {
		t.Errorf("len = %d, want 3", len(rules))
	}
}

func TestAlertStoreDelete(t *testing.T) {
	s := NewMemoryAlertStore()
	ctx := context.Background()

	r, err := s.Create(ctx, "alice", "BTC", models.ComparatorAbove, 45000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(ctx, r.ID, "bob"); !errors.Is(err, domrepo.ErrForbidden) {
		t.Fatalf("delete wrong owner: err = %v, want ErrForbidden", err)
	}
	if err := s.Delete(ctx, r.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, r.ID, "alice"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("delete again: err = %v, want ErrNotFound", err)
	}

	rules, err := s.ListFor(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("rules remain after delete: %v", rules)
	}
}
