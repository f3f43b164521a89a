package views

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]View // deck id -> views
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]View)}
}

func (r *MemoryRepo) Record(ctx context.Context, view View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if view.ID == "" || view.DeckID == "" {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[view.DeckID] = append(r.data[view.DeckID], view)
	return nil
}

func (r *MemoryRepo) ListByDeck(ctx context.Context, deckID string) ([]View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := append([]View(nil), r.data[deckID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if out == nil {
		out = []View{}
	}
	return out, nil
}
