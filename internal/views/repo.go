package views

import (
	"context"
	"errors"
)

var ErrInvalidInput = errors.New("invalid view")

// Repo is the append-only view log.
type Repo interface {
	Record(ctx context.Context, view View) error
	ListByDeck(ctx context.Context, deckID string) ([]View, error)
}
