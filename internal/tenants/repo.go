package tenants

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("tenant not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrHandleRequired  = errors.New("handle is required")
	ErrHandleInvalid   = errors.New("handle must be 3-32 lowercase letters, digits or hyphens")
	ErrHandleReserved  = errors.New("handle is reserved")
	ErrHandleTaken     = errors.New("handle is already taken")
	ErrHandleImmutable = errors.New("handle cannot be changed once set")
)

type Repo interface {
	// Upsert records the identity from the login provider. It never touches the handle.
	Upsert(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	// GetByHandle matches case-insensitively.
	GetByHandle(ctx context.Context, handle string) (Tenant, error)
	// SetHandle sets the handle only when none is set yet.
	SetHandle(ctx context.Context, id, handle string) error
	UpdateName(ctx context.Context, id, fullName string) error
}
