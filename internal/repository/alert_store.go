package repository

import (
	"context"
	"sync"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
)

// MemoryAlertStore implements AlertStore in memory. Rules are independent
// records; duplicates and contradictory rules are allowed. Ids are unique
// and assigned under the lock.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	rules  map[uint64]models.AlertRule
	nextID uint64
}

// NewMemoryAlertStore creates an empty alert store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{rules: make(map[uint64]models.AlertRule), nextID: 1}
}

func (s *MemoryAlertStore) Create(_ context.Context, owner models.UserID, asset string, cmp models.Comparator, target float64) (models.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.AlertRule{
		ID:     s.nextID,
		Owner:  owner,
		Asset:  asset,
		Cmp:    cmp,
		Target: target,
	}
	s.nextID++
	s.rules[r.ID] = r
	return r, nil
}

func (s *MemoryAlertStore) ListFor(_ context.Context, owner models.UserID) ([]models.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AlertRule, 0)
	for _, r := range s.rules {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryAlertStore) Delete(_ context.Context, id uint64, owner models.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[id]
	if !ok {
		return domrepo.ErrNotFound
	}
	if r.Owner != owner {
		return domrepo.ErrForbidden
	}
	delete(s.rules, id)
	return nil
}

var _ domrepo.AlertStore = (*MemoryAlertStore)(nil)
