package tenants

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

const selectTenant = `
SELECT id, email, full_name, handle, picture_url, created_at, updated_at
FROM profiles`

func (r *PGRepo) Upsert(ctx context.Context, tenant Tenant) error {
	const query = `
INSERT INTO profiles (id, email, full_name, picture_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = CASE WHEN profiles.full_name = '' THEN EXCLUDED.full_name ELSE profiles.full_name END,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, tenant.ID, tenant.Email, tenant.FullName, tenant.PictureURL)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Tenant, error) {
	return r.getOne(ctx, selectTenant+`
WHERE id = $1
LIMIT 1`, id)
}

func (r *PGRepo) GetByHandle(ctx context.Context, handle string) (Tenant, error) {
	return r.getOne(ctx, selectTenant+`
WHERE lower(handle) = lower($1)
LIMIT 1`, handle)
}

func (r *PGRepo) SetHandle(ctx context.Context, id, handle string) error {
	const query = `
UPDATE profiles SET handle = $1, updated_at = now()
WHERE id = $2 AND handle IS NULL`
	res, err := r.DB.ExecContext(ctx, query, handle, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrHandleTaken
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHandleImmutable
	}
	return nil
}

func (r *PGRepo) UpdateName(ctx context.Context, id, fullName string) error {
	const query = `UPDATE profiles SET full_name = $1, updated_at = now() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, fullName, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (Tenant, error) {
	var tenant Tenant
	var handle sql.NullString
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&tenant.ID,
		&tenant.Email,
		&tenant.FullName,
		&handle,
		&tenant.PictureURL,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	if handle.Valid {
		tenant.Handle = handle.String
	}
	return tenant, nil
}
