package decks

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/somacore/roledeck/internal/resume"
)

// Deck is one application: a company-specific pitch, or the tenant's primary
// landing deck when IsPublic is set. ResumeURL holds an object store key.
type Deck struct {
	ID              string
	UserID          string
	Company         string
	Slug            string
	IsPublic        bool
	ResumeURL       string
	ResumeBody      json.RawMessage
	FormattedResume json.RawMessage
	CoverLetter     json.RawMessage
	TrackingEmail   string
	CreatedAt       time.Time
	DeletedAt       *time.Time
}

// Archived reports whether the deck has been soft-deleted.
func (d Deck) Archived() bool { return d.DeletedAt != nil }

// Record converts the stored columns into the normalizer's view of the deck.
func (d Deck) Record() resume.Record {
	return resume.Record{
		DeckID:          d.ID,
		FormattedResume: resume.ParseFormatted(d.FormattedResume),
		StoredFormatted: d.FormattedResume,
		Body:            resume.ParseBody(d.ResumeBody),
	}
}

// IntroText reads the cover letter column: {"content": "..."} or a bare string.
func (d Deck) IntroText() string {
	raw := bytes.TrimSpace(d.CoverLetter)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return ""
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return obj.Content
}

// CoverLetterJSON encodes intro text the way the cover_letter column stores it.
func CoverLetterJSON(text string) json.RawMessage {
	if text == "" {
		return nil
	}
	out, _ := json.Marshal(map[string]string{"content": text})
	return out
}
