package views

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Record(ctx context.Context, view View) error {
	const query = `
INSERT INTO views (id, deck_id, viewer_ip, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, view.ID, view.DeckID, view.ViewerIP, view.UserAgent, view.CreatedAt)
	return err
}

func (r *PGRepo) ListByDeck(ctx context.Context, deckID string) ([]View, error) {
	const query = `
SELECT id, deck_id, viewer_ip, user_agent, created_at
FROM views
WHERE deck_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.DeckID, &v.ViewerIP, &v.UserAgent, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
