package portal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/somacore/roledeck/internal/decks"
	"github.com/somacore/roledeck/internal/resume"
	"github.com/somacore/roledeck/internal/shared/telemetry"
	"github.com/somacore/roledeck/internal/tenants"
	"github.com/somacore/roledeck/internal/views"
)

const defaultSignedURLTTL = time.Hour

var ErrNotFound = errors.New("portal not found")

// TenantFinder looks tenants up by handle.
type TenantFinder interface {
	GetByHandle(ctx context.Context, handle string) (tenants.Tenant, error)
}

// DeckFinder resolves the decks a portal can show.
type DeckFinder interface {
	FindPrimary(ctx context.Context, userID string) (decks.Deck, error)
	FindTailored(ctx context.Context, userID, company, slug string) (decks.Deck, error)
}

// ViewSink receives visits without blocking the page.
type ViewSink interface {
	RecordAsync(view views.View)
}

// URLSigner issues time-limited download links for stored resumes.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Visitor identifies who is looking at a page.
type Visitor struct {
	IP        string
	UserAgent string
}

type Service struct {
	Tenants      TenantFinder
	Decks        DeckFinder
	Views        ViewSink
	Signer       URLSigner
	Normalizer   *resume.Normalizer
	SignedURLTTL time.Duration
}

// Primary builds the tenant's landing page. A tenant without a primary deck
// gets the offline state and no view is recorded.
func (s *Service) Primary(ctx context.Context, handle string, visitor Visitor) (Page, string, error) {
	tenant, err := s.tenant(ctx, handle)
	if err != nil {
		return Page{}, "", err
	}

	deck, err := s.Decks.FindPrimary(ctx, tenant.ID)
	if err != nil {
		if errors.Is(err, decks.ErrNotFound) {
			return Page{
				State:       StateOffline,
				Handle:      tenant.Handle,
				DisplayName: tenant.FullName,
				Email:       tenant.Email,
			}, "", nil
		}
		return Page{}, "", err
	}

	s.recordView(deck.ID, visitor)
	page := s.build(ctx, tenant, deck)
	return page, deck.ID, nil
}

// Tailored builds a company-specific page. company and slug match
// case-insensitively with hyphens standing in for spaces.
func (s *Service) Tailored(ctx context.Context, handle, company, slug string, visitor Visitor) (Page, string, error) {
	tenant, err := s.tenant(ctx, handle)
	if err != nil {
		return Page{}, "", err
	}

	deck, err := s.Decks.FindTailored(ctx, tenant.ID, company, slug)
	if err != nil {
		if errors.Is(err, decks.ErrNotFound) {
			return Page{}, "", ErrNotFound
		}
		return Page{}, "", err
	}

	s.recordView(deck.ID, visitor)
	page := s.build(ctx, tenant, deck)
	page.CompanyLabel = deck.Company
	if page.CompanyLabel == "" {
		page.CompanyLabel = strings.ReplaceAll(company, "-", " ")
	}
	page.DownloadURL = s.downloadURL(ctx, deck)
	return page, deck.ID, nil
}

func (s *Service) tenant(ctx context.Context, handle string) (tenants.Tenant, error) {
	tenant, err := s.Tenants.GetByHandle(ctx, strings.TrimSpace(handle))
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) || errors.Is(err, tenants.ErrInvalidInput) {
			return tenants.Tenant{}, ErrNotFound
		}
		return tenants.Tenant{}, err
	}
	return tenant, nil
}

func (s *Service) recordView(deckID string, visitor Visitor) {
	if s.Views == nil {
		return
	}
	s.Views.RecordAsync(views.View{
		DeckID:    deckID,
		ViewerIP:  visitor.IP,
		UserAgent: visitor.UserAgent,
	})
}

func (s *Service) build(ctx context.Context, tenant tenants.Tenant, deck decks.Deck) Page {
	page := Page{
		State:         StateResume,
		Handle:        tenant.Handle,
		DisplayName:   tenant.FullName,
		Email:         tenant.Email,
		Slug:          deck.Slug,
		IntroText:     deck.IntroText(),
		TrackingEmail: deck.TrackingEmail,
		Skills:        []string{},
		Experience:    []resume.Experience{},
	}

	rec := deck.Record()
	var structured *resume.StructuredResume
	if s.Normalizer != nil {
		structured = s.Normalizer.Normalize(ctx, rec)
	} else {
		structured = rec.FormattedResume
	}

	if structured == nil {
		page.RawText = rec.Body.Text()
		if strings.TrimSpace(page.RawText) == "" {
			page.RawText = noExperienceText
		}
		return page
	}

	page.Structured = true
	if structured.FullName != "" {
		page.DisplayName = structured.FullName
	}
	if structured.Skills != nil {
		page.Skills = structured.Skills
	}
	if structured.Experience != nil {
		page.Experience = structured.Experience
	}
	return page
}

func (s *Service) downloadURL(ctx context.Context, deck decks.Deck) string {
	if deck.ResumeURL == "" || s.Signer == nil {
		return ""
	}
	ttl := s.SignedURLTTL
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}
	signed, err := s.Signer.SignedURL(ctx, deck.ResumeURL, ttl)
	if err != nil {
		telemetry.Warn("portal.signed_url_failed", map[string]any{
			"deck_id": deck.ID,
			"error":   err.Error(),
		})
		return ""
	}
	return signed
}
