package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return r
}

func TestResolverRequiresSecret(t *testing.T) {
	_, err := NewResolver(ResolverConfig{})
	require.Error(t, err)
}

func TestResolveRoundTrip(t *testing.T) {
	r := testResolver(t)
	org := int64(12)
	p := authz.Principal{
		ID:      42,
		Role:    authz.RoleInstructor,
		OrgID:   &org,
		Email:   "teach@acme.test",
		OrgName: "Acme Academy",
	}

	credential, err := r.Issue(p)
	require.NoError(t, err)

	got, err := r.Resolve(credential)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestResolveEmptyCredential(t *testing.T) {
	r := testResolver(t)
	_, err := r.Resolve("")
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveWrongSecret(t *testing.T) {
	r := testResolver(t)
	other, err := NewResolver(ResolverConfig{Secret: []byte("other-secret")})
	require.NoError(t, err)

	credential, err := other.Issue(authz.Principal{ID: 1, Role: authz.RoleAdmin})
	require.NoError(t, err)

	_, err = r.Resolve(credential)
	require.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestResolveExpiredCredential(t *testing.T) {
	r := testResolver(t)

	issued := time.Now().Add(-2 * time.Hour)
	r.now = func() time.Time { return issued }
	credential, err := r.Issue(authz.Principal{ID: 1, Role: authz.RoleStudent, OrgID: orgRef(3)})
	require.NoError(t, err)

	r.now = time.Now
	_, err = r.Resolve(credential)
	require.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func TestResolveGarbage(t *testing.T) {
	r := testResolver(t)
	_, err := r.Resolve("not-a-credential")
	require.ErrorIs(t, err, shared.ErrInvalidCredential)
}

func orgRef(v int64) *int64 { return &v }
