package tenants

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	tenants map[string]Tenant
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tenants: make(map[string]Tenant)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, tenant Tenant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tenants[tenant.ID]
	now := time.Now().UTC()
	if !ok {
		tenant.CreatedAt = now
		tenant.Handle = ""
	} else {
		tenant.CreatedAt = existing.CreatedAt
		tenant.Handle = existing.Handle
	}
	tenant.UpdatedAt = now
	r.tenants[tenant.ID] = tenant
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Tenant, error) {
	if err := ctx.Err(); err != nil {
		return Tenant{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return tenant, nil
}

func (r *MemoryRepo) GetByHandle(ctx context.Context, handle string) (Tenant, error) {
	if err := ctx.Err(); err != nil {
		return Tenant{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, tenant := range r.tenants {
		if tenant.Handle != "" && strings.EqualFold(tenant.Handle, handle) {
			return tenant, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (r *MemoryRepo) SetHandle(ctx context.Context, id, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	if tenant.Handle != "" {
		return ErrHandleImmutable
	}
	for otherID, other := range r.tenants {
		if otherID != id && strings.EqualFold(other.Handle, handle) {
			return ErrHandleTaken
		}
	}
	tenant.Handle = handle
	tenant.UpdatedAt = time.Now().UTC()
	r.tenants[id] = tenant
	return nil
}

func (r *MemoryRepo) UpdateName(ctx context.Context, id, fullName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	tenant.FullName = fullName
	tenant.UpdatedAt = time.Now().UTC()
	r.tenants[id] = tenant
	return nil
}
