package analytics

import (
	"context"
	"time"

	"github.com/somacore/roledeck/internal/decks"
	"github.com/somacore/roledeck/internal/views"
)

// Visit is one row of the visitor log.
type Visit struct {
	ID        string    `json:"id"`
	ViewerIP  string    `json:"viewerIp"`
	UserAgent string    `json:"userAgent"`
	Location  string    `json:"location,omitempty"`
	ViewedAt  time.Time `json:"viewedAt"`
}

// Marker is a map pin for one resolved visitor address.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

// Report summarizes who viewed a deck.
type Report struct {
	DeckID         string            `json:"deckId"`
	Company        string            `json:"company"`
	Slug           string            `json:"slug"`
	IsPublic       bool              `json:"isPublic"`
	TotalViews     int               `json:"totalViews"`
	UniqueVisitors int               `json:"uniqueVisitors"`
	Visitors       []Visit           `json:"visitors"`
	Locations      map[string]string `json:"locations"`
	Markers        []Marker          `json:"markers"`
}

type Service struct {
	Decks decks.Repo
	Views views.Repo
	Geo   Locator
}

// DeckReport builds the analytics report for a deck the user owns.
func (s *Service) DeckReport(ctx context.Context, userID, deckID string) (Report, error) {
	deck, err := s.Decks.GetForOwner(ctx, userID, deckID)
	if err != nil {
		return Report{}, err
	}
	list, err := s.Views.ListByDeck(ctx, deck.ID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		DeckID:     deck.ID,
		Company:    deck.Company,
		Slug:       deck.Slug,
		IsPublic:   deck.IsPublic,
		TotalViews: len(list),
		Visitors:   make([]Visit, 0, len(list)),
		Locations:  make(map[string]string),
		Markers:    make([]Marker, 0),
	}

	seen := make(map[string]bool)
	for _, v := range list {
		if seen[v.ViewerIP] {
			continue
		}
		seen[v.ViewerIP] = true
		if s.Geo == nil {
			continue
		}
		loc, ok := s.Geo.Locate(ctx, v.ViewerIP)
		if !ok {
			continue
		}
		report.Locations[v.ViewerIP] = loc.Label()
		report.Markers = append(report.Markers, Marker{Lat: loc.Lat, Lon: loc.Lon, Label: loc.City})
	}
	report.UniqueVisitors = len(seen)

	for _, v := range list {
		report.Visitors = append(report.Visitors, Visit{
			ID:        v.ID,
			ViewerIP:  v.ViewerIP,
			UserAgent: v.UserAgent,
			Location:  report.Locations[v.ViewerIP],
			ViewedAt:  v.CreatedAt,
		})
	}
	return report, nil
}
