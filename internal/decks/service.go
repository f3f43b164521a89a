package decks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/somacore/roledeck/internal/extract"
	"github.com/somacore/roledeck/internal/resume"
	"github.com/somacore/roledeck/internal/shared/storage/object"
	"github.com/somacore/roledeck/internal/shared/telemetry"
)

const maxLabelLength = 120

// SubmitInput carries one deck submission. File is optional.
type SubmitInput struct {
	Company       string
	Slug          string
	CoverLetter   string
	IsPublic      bool
	TrackingEmail string
	FileName      string
	File          io.Reader
}

// DuplicateInput overrides the copied deck's labels. Nil fields take defaults.
type DuplicateInput struct {
	Company     *string
	Slug        *string
	CoverLetter *string
}

// Service contains business logic for decks.
type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	Structurer resume.Structurer
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit uploads and extracts the optional resume file, structures it when
// possible and records the deck. Structuring failures leave formatted_resume
// empty so the portal can heal it later.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (Deck, error) {
	in.Company = strings.TrimSpace(in.Company)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateLabels(userID, in.Company, in.Slug); err != nil {
		return Deck{}, err
	}

	deck := Deck{
		ID:            uuid.NewString(),
		UserID:        userID,
		Company:       in.Company,
		Slug:          in.Slug,
		CoverLetter:   CoverLetterJSON(strings.TrimSpace(in.CoverLetter)),
		IsPublic:      in.IsPublic,
		TrackingEmail: strings.TrimSpace(in.TrackingEmail),
		CreatedAt:     s.now(),
	}

	if in.File != nil && in.FileName != "" {
		if err := s.attachResume(ctx, &deck, in.FileName, in.File); err != nil {
			return Deck{}, err
		}
	}

	if err := s.Repo.Create(ctx, deck); err != nil {
		return Deck{}, err
	}

	telemetry.Info("deck.submitted", map[string]any{
		"deck_id":    deck.ID,
		"user_id":    userID,
		"has_resume": deck.ResumeURL != "",
		"structured": len(deck.FormattedResume) > 0,
		"is_public":  deck.IsPublic,
	})
	return deck, nil
}

func (s *Service) attachResume(ctx context.Context, deck *Deck, fileName string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.Store == nil {
		return errors.New("object store not configured")
	}
	key, _, mimeType, err := s.Store.Save(ctx, deck.UserID, fileName, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, object.ErrInvalidKey) {
			return ErrInvalidInput
		}
		return err
	}
	deck.ResumeURL = key

	text, err := extract.Text(ctx, data, mimeType, fileName)
	if err != nil {
		telemetry.Warn("deck.extract_failed", map[string]any{
			"deck_id": deck.ID,
			"mime":    mimeType,
			"error":   err.Error(),
		})
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	deck.ResumeBody = resume.RawText(text).JSON()

	if s.Structurer == nil {
		return nil
	}
	structured, err := s.Structurer.Structure(ctx, text)
	if err != nil {
		if !errors.Is(err, resume.ErrNoCapability) {
			telemetry.Warn("deck.structure_failed", map[string]any{
				"deck_id": deck.ID,
				"error":   err.Error(),
			})
		}
		return nil
	}
	deck.FormattedResume = resume.Structured(structured).JSON()
	return nil
}

// Duplicate copies the resume columns of an existing deck into a new,
// non-primary deck.
func (s *Service) Duplicate(ctx context.Context, userID, id string, in DuplicateInput) (Deck, error) {
	src, err := s.Get(ctx, userID, id)
	if err != nil {
		return Deck{}, err
	}

	company := src.Company + " (Copy)"
	if in.Company != nil {
		company = strings.TrimSpace(*in.Company)
	}
	slug := src.Slug + "-copy"
	if in.Slug != nil {
		slug = strings.TrimSpace(*in.Slug)
	}
	coverLetter := cloneRaw(src.CoverLetter)
	if in.CoverLetter != nil {
		coverLetter = CoverLetterJSON(strings.TrimSpace(*in.CoverLetter))
	}
	if err := validateLabels(userID, company, slug); err != nil {
		return Deck{}, err
	}

	deck := Deck{
		ID:              uuid.NewString(),
		UserID:          userID,
		Company:         company,
		Slug:            slug,
		IsPublic:        false,
		ResumeURL:       src.ResumeURL,
		ResumeBody:      cloneRaw(src.ResumeBody),
		FormattedResume: cloneRaw(src.FormattedResume),
		CoverLetter:     coverLetter,
		TrackingEmail:   src.TrackingEmail,
		CreatedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, deck); err != nil {
		return Deck{}, err
	}
	return deck, nil
}

func (s *Service) Archive(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrInvalidInput
	}
	return s.Repo.Archive(ctx, userID, id)
}

// SetPrimary makes id the tenant's only primary deck.
func (s *Service) SetPrimary(ctx context.Context, userID, id string) (Deck, error) {
	if userID == "" || id == "" {
		return Deck{}, ErrInvalidInput
	}
	if err := s.Repo.SetPrimary(ctx, userID, id); err != nil {
		return Deck{}, err
	}
	return s.Repo.GetForOwner(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string) ([]Deck, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListActive(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Deck, error) {
	if userID == "" || id == "" {
		return Deck{}, ErrInvalidInput
	}
	deck, err := s.Repo.GetForOwner(ctx, userID, id)
	if err != nil {
		return Deck{}, err
	}
	if deck.Archived() {
		return Deck{}, ErrNotFound
	}
	return deck, nil
}

func validateLabels(userID, company, slug string) error {
	if userID == "" || slug == "" {
		return ErrInvalidInput
	}
	if len(company) > maxLabelLength || len(slug) > maxLabelLength {
		return ErrInvalidInput
	}
	return nil
}
