package billing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	org      *Organization
	orgErr   error
	sub      *Subscription
	subErr   error
	hasRows  bool
	orgCalls int
	subCalls int
}

func (s *stubRepo) GetOrganization(ctx context.Context, orgID int64) (*Organization, error) {
	s.orgCalls++
	return s.org, s.orgErr
}

func (s *stubRepo) CurrentSubscription(ctx context.Context, orgID int64) (*Subscription, error) {
	s.subCalls++
	return s.sub, s.subErr
}

func (s *stubRepo) HasSubscription(ctx context.Context, orgID int64) (bool, error) {
	return s.hasRows || s.sub != nil, nil
}

func testGate(t *testing.T, repo Repository) (*Gate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGate(repo, client, nil), mr
}

func TestGateOrgInactive(t *testing.T) {
	repo := &stubRepo{org: &Organization{ID: 1, Status: OrgStatusInactive}}
	gate, _ := testGate(t, repo)

	access, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, access.Allowed)
	require.Equal(t, ReasonOrgInactive, access.Reason)
}

func TestGateExpiredYesterday(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		org: &Organization{ID: 1, Status: OrgStatusActive},
		sub: &Subscription{ID: 5, OrgID: 1, Status: SubscriptionStatusActive, EndDate: now.AddDate(0, 0, -1)},
	}
	gate, _ := testGate(t, repo)
	gate.now = func() time.Time { return now }

	access, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, access.Allowed)
	require.Equal(t, ReasonSubscriptionExpired, access.Reason)
}

func TestGateValidUntilTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		org: &Organization{ID: 1, Status: OrgStatusActive},
		sub: &Subscription{ID: 5, OrgID: 1, Status: SubscriptionStatusActive, EndDate: now.AddDate(0, 0, 1)},
	}
	gate, _ := testGate(t, repo)
	gate.now = func() time.Time { return now }

	access, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, access.Allowed)
}

func TestGateGrandfathered(t *testing.T) {
	repo := &stubRepo{org: &Organization{ID: 1, Status: OrgStatusActive}}
	gate, _ := testGate(t, repo)

	access, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, access.Allowed)
	require.Equal(t, ReasonGrandfathered, access.Reason)
}

func TestGateRetiredSubscriptionStaysExpired(t *testing.T) {
	// The sweep job flips overdue rows to inactive. The org then has
	// subscription rows but no active one, which must read as expired,
	// never as grandfathered.
	repo := &stubRepo{org: &Organization{ID: 1, Status: OrgStatusActive}, hasRows: true}
	gate, _ := testGate(t, repo)

	access, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, access.Allowed)
	require.Equal(t, ReasonSubscriptionExpired, access.Reason)
}

func TestGateCachesDecision(t *testing.T) {
	repo := &stubRepo{org: &Organization{ID: 1, Status: OrgStatusActive}}
	gate, _ := testGate(t, repo)

	_, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	_, err = gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.orgCalls)

	gate.Invalidate(context.Background(), 1)
	_, err = gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.orgCalls)
}

func TestGateCacheExpiry(t *testing.T) {
	repo := &stubRepo{org: &Organization{ID: 1, Status: OrgStatusActive}}
	gate, mr := testGate(t, repo)

	_, err := gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)

	mr.FastForward(cacheTTL + time.Second)
	_, err = gate.IsAccessible(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.orgCalls)
}
