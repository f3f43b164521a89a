package decks

import (
	"time"

	"github.com/somacore/roledeck/internal/resume"
)

// DeckResponse is the dashboard representation of a deck.
type DeckResponse struct {
	ID            string    `json:"id"`
	Company       string    `json:"company"`
	Slug          string    `json:"slug"`
	IsPublic      bool      `json:"isPublic"`
	HasResumeFile bool      `json:"hasResumeFile"`
	ResumeStatus  string    `json:"resumeStatus"`
	IntroText     string    `json:"introText,omitempty"`
	TrackingEmail string    `json:"trackingEmail,omitempty"`
	PortalURL     string    `json:"portalUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// resumeStatus summarizes how the portal will render the deck's resume.
func resumeStatus(d Deck) string {
	if resume.ParseFormatted(d.FormattedResume) != nil {
		return "structured"
	}
	switch resume.ParseBody(d.ResumeBody).Kind() {
	case resume.BodyStructured:
		return "structured"
	case resume.BodyRawText:
		return "pending"
	case resume.BodyLegacyObject:
		return "legacy"
	default:
		return "empty"
	}
}

func toResponse(d Deck, portalURL string) DeckResponse {
	return DeckResponse{
		ID:            d.ID,
		Company:       d.Company,
		Slug:          d.Slug,
		IsPublic:      d.IsPublic,
		HasResumeFile: d.ResumeURL != "",
		ResumeStatus:  resumeStatus(d),
		IntroText:     d.IntroText(),
		TrackingEmail: d.TrackingEmail,
		PortalURL:     portalURL,
		CreatedAt:     d.CreatedAt,
	}
}
