package views

import "time"

// View is one recorded visit to a public portal page.
type View struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deckId"`
	ViewerIP  string    `json:"viewerIp"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}
