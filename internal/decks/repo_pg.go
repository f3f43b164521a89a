package decks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/somacore/roledeck/internal/resume"
	"github.com/somacore/roledeck/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectDeck = `
SELECT id, user_id, company, slug, is_public, resume_url, resume_body, formatted_resume, cover_letter, tracking_email, created_at, deleted_at
FROM decks`

// Create inserts deck. A public deck demotes the tenant's current primary
// in the same transaction.
func (r *PGRepo) Create(ctx context.Context, deck Deck) error {
	if !deck.IsPublic {
		return insertDeck(ctx, r.DB, deck)
	}
	return db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE decks SET is_public = false
WHERE user_id = $1 AND is_public`, deck.UserID); err != nil {
			return err
		}
		return insertDeck(ctx, tx, deck)
	})
}

func insertDeck(ctx context.Context, q db.DBTX, deck Deck) error {
	const query = `
INSERT INTO decks (
    id,
    user_id,
    company,
    slug,
    is_public,
    resume_url,
    resume_body,
    formatted_resume,
    cover_letter,
    tracking_email,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.UserID,
		nullString(deck.Company),
		deck.Slug,
		deck.IsPublic,
		nullString(deck.ResumeURL),
		nullJSON(deck.ResumeBody),
		nullJSON(deck.FormattedResume),
		nullJSON(deck.CoverLetter),
		deck.TrackingEmail,
		deck.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetForOwner(ctx context.Context, userID, id string) (Deck, error) {
	return r.getOne(ctx, selectDeck+`
WHERE id = $1 AND user_id = $2
LIMIT 1`, id, userID)
}

func (r *PGRepo) ListActive(ctx context.Context, userID string) ([]Deck, error) {
	rows, err := r.DB.QueryContext(ctx, selectDeck+`
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Deck, 0)
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, deck)
	}
	return out, rows.Err()
}

func (r *PGRepo) FindPrimary(ctx context.Context, userID string) (Deck, error) {
	return r.getOne(ctx, selectDeck+`
WHERE user_id = $1 AND is_public AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`, userID)
}

func (r *PGRepo) FindTailored(ctx context.Context, userID, company, slug string) (Deck, error) {
	return r.getOne(ctx, selectDeck+`
WHERE user_id = $1
  AND deleted_at IS NULL
  AND lower(replace(coalesce(company, ''), '-', ' ')) = lower(replace($2, '-', ' '))
  AND lower(replace(slug, '-', ' ')) = lower(replace($3, '-', ' '))
ORDER BY created_at DESC
LIMIT 1`, userID, company, slug)
}

func (r *PGRepo) Archive(ctx context.Context, userID, id string) error {
	const query = `
UPDATE decks
SET deleted_at = now(), is_public = false
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetPrimary clears every deck of the tenant and marks the target in one
// transaction so the single-primary index never sees two rows.
func (r *PGRepo) SetPrimary(ctx context.Context, userID, id string) error {
	return db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE decks SET is_public = false
WHERE user_id = $1 AND is_public`, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
UPDATE decks SET is_public = true
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (r *PGRepo) SaveFormattedResume(ctx context.Context, deckID string, previous json.RawMessage, value resume.StructuredResume) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	const query = `
UPDATE decks
SET formatted_resume = $1
WHERE id = $2 AND formatted_resume IS NOT DISTINCT FROM $3::jsonb`
	_, err = r.DB.ExecContext(ctx, query, string(payload), deckID, nullJSON(previous))
	return err
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (Deck, error) {
	deck, err := scanDeck(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deck{}, ErrNotFound
		}
		return Deck{}, err
	}
	return deck, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeck(row scanner) (Deck, error) {
	var deck Deck
	var company sql.NullString
	var resumeURL sql.NullString
	var resumeBody []byte
	var formatted []byte
	var coverLetter []byte
	var deletedAt sql.NullTime
	if err := row.Scan(
		&deck.ID,
		&deck.UserID,
		&company,
		&deck.Slug,
		&deck.IsPublic,
		&resumeURL,
		&resumeBody,
		&formatted,
		&coverLetter,
		&deck.TrackingEmail,
		&deck.CreatedAt,
		&deletedAt,
	); err != nil {
		return Deck{}, err
	}
	deck.Company = company.String
	deck.ResumeURL = resumeURL.String
	deck.ResumeBody = rawOrNil(resumeBody)
	deck.FormattedResume = rawOrNil(formatted)
	deck.CoverLetter = rawOrNil(coverLetter)
	if deletedAt.Valid {
		at := deletedAt.Time
		deck.DeletedAt = &at
	}
	return deck, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
