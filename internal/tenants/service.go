package tenants

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,30}[a-z0-9])$`)

var reservedHandles = map[string]struct{}{
	"www":   {},
	"api":   {},
	"app":   {},
	"admin": {},
}

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity returned by the login provider.
func (s *Service) UpsertFromAuth(ctx context.Context, tenant Tenant) error {
	if s == nil || s.Repo == nil {
		return errors.New("tenants service not configured")
	}
	if strings.TrimSpace(tenant.ID) == "" || strings.TrimSpace(tenant.Email) == "" {
		return fmt.Errorf("%w: tenant id and email are required", ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, tenant)
}

func (s *Service) GetByID(ctx context.Context, id string) (Tenant, error) {
	if s == nil || s.Repo == nil {
		return Tenant{}, errors.New("tenants service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Tenant{}, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// GetByHandle resolves a subdomain to its tenant, ignoring case.
func (s *Service) GetByHandle(ctx context.Context, handle string) (Tenant, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Tenant{}, ErrNotFound
	}
	return s.Repo.GetByHandle(ctx, handle)
}

// NormalizeHandle lower-cases handle and checks it can be used as a subdomain.
func NormalizeHandle(handle string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(handle))
	if h == "" {
		return "", ErrHandleRequired
	}
	if !handlePattern.MatchString(h) {
		return "", ErrHandleInvalid
	}
	if _, ok := reservedHandles[h]; ok {
		return "", ErrHandleReserved
	}
	return h, nil
}

// ClaimHandle sets the tenant's handle. Claiming the handle already held is a no-op.
func (s *Service) ClaimHandle(ctx context.Context, id, handle string) (Tenant, error) {
	h, err := NormalizeHandle(handle)
	if err != nil {
		return Tenant{}, err
	}
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return Tenant{}, err
	}
	if tenant.Handle != "" {
		if strings.EqualFold(tenant.Handle, h) {
			return tenant, nil
		}
		return Tenant{}, ErrHandleImmutable
	}
	if err := s.Repo.SetHandle(ctx, id, h); err != nil {
		return Tenant{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// UpdateProfile changes the display name and claims a handle when one is given.
func (s *Service) UpdateProfile(ctx context.Context, id string, fullName *string, handle *string) (Tenant, error) {
	if fullName != nil {
		name := strings.TrimSpace(*fullName)
		if len(name) > 120 {
			return Tenant{}, fmt.Errorf("%w: full name too long", ErrInvalidInput)
		}
		if err := s.Repo.UpdateName(ctx, id, name); err != nil {
			return Tenant{}, err
		}
	}
	if handle != nil {
		return s.ClaimHandle(ctx, id, *handle)
	}
	return s.GetByID(ctx, id)
}
