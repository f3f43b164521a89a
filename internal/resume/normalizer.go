package resume

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/somacore/roledeck/internal/shared/metrics"
	"github.com/somacore/roledeck/internal/shared/telemetry"
)

// minRawTextRunes is the length raw text must exceed before it is worth structuring.
const minRawTextRunes = 10

// Store persists a healed resume. Implementations write only while the
// stored formatted resume still equals previous (nil meaning SQL NULL), so
// one healed value wins and unusable stored values get replaced.
type Store interface {
	SaveFormattedResume(ctx context.Context, deckID string, previous json.RawMessage, value StructuredResume) error
}

// Record is what the normalizer needs to know about one deck.
type Record struct {
	DeckID          string
	FormattedResume *StructuredResume
	// StoredFormatted is the formatted_resume column as read, before parsing.
	StoredFormatted json.RawMessage
	Body            Body
}

// Normalizer produces the StructuredResume for a deck at render time,
// healing raw text through the Structurer at most once per deck.
type Normalizer struct {
	Structurer Structurer
	Store      Store
}

// Normalize returns the structured resume for rec, or nil when the page
// should fall back to raw text. It never returns an error.
func (n *Normalizer) Normalize(ctx context.Context, rec Record) *StructuredResume {
	if rec.FormattedResume != nil {
		metrics.IncFormattedServed()
		return rec.FormattedResume
	}

	switch rec.Body.Kind() {
	case BodyRawText:
		text := rec.Body.Text()
		if utf8.RuneCountInString(text) <= minRawTextRunes {
			return nil
		}
		return n.heal(ctx, rec, text)
	case BodyLegacyObject:
		out := decodeLegacy(rec.Body.Object())
		return &out
	case BodyStructured:
		out, _ := rec.Body.Resume()
		out = out.normalized()
		return &out
	default:
		return nil
	}
}

func (n *Normalizer) heal(ctx context.Context, rec Record, text string) *StructuredResume {
	deckID := rec.DeckID
	if n.Structurer == nil {
		return nil
	}

	metrics.IncHealAttempt()
	telemetry.Info("resume.heal.start", map[string]any{
		"deck_id":    deckID,
		"text_runes": utf8.RuneCountInString(text),
	})
	start := time.Now()
	healed, err := n.Structurer.Structure(ctx, text)
	metrics.ObserveHealDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncHealFailed()
		telemetry.Warn("resume.heal.failed", map[string]any{
			"deck_id": deckID,
			"err":     err,
		})
		return nil
	}
	metrics.IncHealSucceeded()
	healed = healed.normalized()

	if n.Store != nil {
		if err := n.Store.SaveFormattedResume(ctx, deckID, rec.StoredFormatted, healed); err != nil {
			metrics.IncHealPersistFailed()
			telemetry.Error("resume.heal.persist_failed", map[string]any{
				"deck_id": deckID,
				"err":     err,
			})
		}
	}
	telemetry.Info("resume.heal.succeeded", map[string]any{
		"deck_id":     deckID,
		"experiences": len(healed.Experience),
		"skills":      len(healed.Skills),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &healed
}
