package tenants

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	require.NoError(t, svc.UpsertFromAuth(ctx, Tenant{ID: "u1", Email: "ada@example.com", FullName: "Ada"}))
	require.NoError(t, svc.UpsertFromAuth(ctx, Tenant{ID: "u2", Email: "bob@example.com", FullName: "Bob"}))
	return svc
}

func TestNormalizeHandle(t *testing.T) {
	cases := map[string]error{
		"Ada":                    nil,
		"ada-lovelace":           nil,
		"a1b":                    nil,
		"":                       ErrHandleRequired,
		"ab":                     ErrHandleInvalid,
		"-ada":                   ErrHandleInvalid,
		"ada-":                   ErrHandleInvalid,
		"ada.lovelace":           ErrHandleInvalid,
		"www":                    ErrHandleReserved,
		"API":                    ErrHandleReserved,
		strings.Repeat("a", 33): ErrHandleInvalid,
		strings.Repeat("a", 32): nil,
	}
	for in, want := range cases {
		_, err := NormalizeHandle(in)
		if want == nil {
			require.NoError(t, err, in)
			continue
		}
		require.ErrorIs(t, err, want, in)
	}
}

func TestClaimHandleLowercasesAndIsImmutable(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	tenant, err := svc.ClaimHandle(ctx, "u1", "Ada")
	require.NoError(t, err)
	require.Equal(t, "ada", tenant.Handle)

	again, err := svc.ClaimHandle(ctx, "u1", "ADA")
	require.NoError(t, err)
	require.Equal(t, "ada", again.Handle)

	_, err = svc.ClaimHandle(ctx, "u1", "lovelace")
	require.ErrorIs(t, err, ErrHandleImmutable)

	_, err = svc.ClaimHandle(ctx, "u2", "ada")
	require.ErrorIs(t, err, ErrHandleTaken)

	found, err := svc.GetByHandle(ctx, "AdA")
	require.NoError(t, err)
	require.Equal(t, "u1", found.ID)
}

func TestUpsertKeepsHandle(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()
	_, err := svc.ClaimHandle(ctx, "u1", "ada")
	require.NoError(t, err)

	require.NoError(t, svc.UpsertFromAuth(ctx, Tenant{ID: "u1", Email: "ada@new.example", FullName: "Ada L", Handle: "hijack"}))
	tenant, err := svc.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "ada", tenant.Handle)
	require.Equal(t, "ada@new.example", tenant.Email)
}

func TestUpdateProfile(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()
	name := "  Ada Lovelace "
	handle := "ada"

	tenant, err := svc.UpdateProfile(ctx, "u1", &name, &handle)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", tenant.FullName)
	require.Equal(t, "ada", tenant.Handle)

	_, err = svc.UpdateProfile(ctx, "missing", &name, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByHandleUnknown(t *testing.T) {
	svc := seeded(t)
	_, err := svc.GetByHandle(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByHandle(context.Background(), " ")
	require.ErrorIs(t, err, ErrNotFound)
}
