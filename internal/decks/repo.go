package decks

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/somacore/roledeck/internal/resume"
)

var (
	ErrNotFound     = errors.New("deck not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repo persists decks. Every owner-scoped lookup excludes other tenants'
// decks; only GetForOwner returns archived decks.
type Repo interface {
	// Create inserts deck; when deck.IsPublic it atomically becomes the
	// tenant's only primary.
	Create(ctx context.Context, deck Deck) error
	GetForOwner(ctx context.Context, userID, id string) (Deck, error)
	ListActive(ctx context.Context, userID string) ([]Deck, error)
	FindPrimary(ctx context.Context, userID string) (Deck, error)
	FindTailored(ctx context.Context, userID, company, slug string) (Deck, error)
	Archive(ctx context.Context, userID, id string) error
	SetPrimary(ctx context.Context, userID, id string) error
	// SaveFormattedResume writes only while formatted_resume still equals
	// previous; a nil previous matches a null column.
	SaveFormattedResume(ctx context.Context, deckID string, previous json.RawMessage, value resume.StructuredResume) error
}
