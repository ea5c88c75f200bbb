package exams

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/shared"
)

type memoryTokenStore struct {
	existing map[string]bool
	calls    int
}

func (m *memoryTokenStore) TokenExists(ctx context.Context, token string) (bool, error) {
	m.calls++
	return m.existing[token], nil
}

func TestIssueTokenShape(t *testing.T) {
	issuer := NewIssuer(&memoryTokenStore{}, DefaultTokenLength)

	token, err := issuer.Issue(context.Background())
	require.NoError(t, err)
	require.Len(t, token, DefaultTokenLength)
	for _, c := range token {
		require.True(t, strings.ContainsRune(tokenAlphabet, c), "unexpected character %q", c)
	}
}

func TestIssueTokensUnique(t *testing.T) {
	issuer := NewIssuer(&memoryTokenStore{}, DefaultTokenLength)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := issuer.Issue(context.Background())
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token %s after %d draws", token, i)
		seen[token] = struct{}{}
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	store := &collideOnceStore{}
	issuer := NewIssuer(store, DefaultTokenLength)

	token, err := issuer.Issue(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, 2, store.calls)
}

type collideOnceStore struct {
	calls int
}

func (s *collideOnceStore) TokenExists(ctx context.Context, token string) (bool, error) {
	s.calls++
	return s.calls == 1, nil
}

func TestIssueExhaustsRetries(t *testing.T) {
	store := &alwaysCollideStore{}
	issuer := NewIssuer(store, DefaultTokenLength)

	_, err := issuer.Issue(context.Background())
	require.ErrorIs(t, err, shared.ErrTokenSpaceExhausted)
	require.Equal(t, maxIssueAttempts, store.calls)
}

type alwaysCollideStore struct {
	calls int
}

func (s *alwaysCollideStore) TokenExists(ctx context.Context, token string) (bool, error) {
	s.calls++
	return true, nil
}

func TestShortLengthFallsBack(t *testing.T) {
	issuer := NewIssuer(&memoryTokenStore{}, 1)
	token, err := issuer.Issue(context.Background())
	require.NoError(t, err)
	require.Len(t, token, DefaultTokenLength)
}
