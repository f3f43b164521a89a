package decks

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/somacore/roledeck/internal/resume"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Deck // deck id -> deck
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Deck),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, deck Deck) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deck.ID == "" || deck.UserID == "" {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if deck.IsPublic {
		for key, other := range r.data {
			if other.UserID == deck.UserID && other.IsPublic {
				other.IsPublic = false
				r.data[key] = other
			}
		}
	}
	r.data[deck.ID] = cloneDeck(deck)
	return nil
}

func (r *MemoryRepo) GetForOwner(ctx context.Context, userID, id string) (Deck, error) {
	if err := ctx.Err(); err != nil {
		return Deck{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	deck, ok := r.data[id]
	if !ok || deck.UserID != userID {
		return Deck{}, ErrNotFound
	}
	return cloneDeck(deck), nil
}

func (r *MemoryRepo) ListActive(ctx context.Context, userID string) ([]Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Deck, 0)
	for _, deck := range r.data {
		if deck.UserID == userID && !deck.Archived() {
			out = append(out, cloneDeck(deck))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) FindPrimary(ctx context.Context, userID string) (Deck, error) {
	return r.findFirst(ctx, userID, func(d Deck) bool { return d.IsPublic })
}

func (r *MemoryRepo) FindTailored(ctx context.Context, userID, company, slug string) (Deck, error) {
	company = matchKey(company)
	slug = matchKey(slug)
	return r.findFirst(ctx, userID, func(d Deck) bool {
		return matchKey(d.Company) == company && matchKey(d.Slug) == slug
	})
}

func (r *MemoryRepo) findFirst(ctx context.Context, userID string, match func(Deck) bool) (Deck, error) {
	decks, err := r.ListActive(ctx, userID)
	if err != nil {
		return Deck{}, err
	}
	for _, deck := range decks {
		if match(deck) {
			return deck, nil
		}
	}
	return Deck{}, ErrNotFound
}

func (r *MemoryRepo) Archive(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.data[id]
	if !ok || deck.UserID != userID || deck.Archived() {
		return ErrNotFound
	}
	now := r.now()
	deck.DeletedAt = &now
	deck.IsPublic = false
	r.data[id] = deck
	return nil
}

func (r *MemoryRepo) SetPrimary(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.data[id]
	if !ok || target.UserID != userID || target.Archived() {
		return ErrNotFound
	}
	for key, deck := range r.data {
		if deck.UserID == userID && deck.IsPublic {
			deck.IsPublic = false
			r.data[key] = deck
		}
	}
	target = r.data[id]
	target.IsPublic = true
	r.data[id] = target
	return nil
}

func (r *MemoryRepo) SaveFormattedResume(ctx context.Context, deckID string, previous json.RawMessage, value resume.StructuredResume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	deck, ok := r.data[deckID]
	if !ok || !bytes.Equal(bytes.TrimSpace(deck.FormattedResume), bytes.TrimSpace(previous)) {
		return nil
	}
	deck.FormattedResume = payload
	r.data[deckID] = deck
	return nil
}

// matchKey folds case and treats '-' and ' ' as the same character.
func matchKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", " "))
}

func cloneDeck(d Deck) Deck {
	d.ResumeBody = cloneRaw(d.ResumeBody)
	d.FormattedResume = cloneRaw(d.FormattedResume)
	d.CoverLetter = cloneRaw(d.CoverLetter)
	if d.DeletedAt != nil {
		at := *d.DeletedAt
		d.DeletedAt = &at
	}
	return d
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
