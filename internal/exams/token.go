package exams

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/examdesk/examdesk/internal/shared"
)

// tokenAlphabet is the fixed 36-character, case-insensitive-safe set exam
// tokens are drawn from.
const tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultTokenLength is the default token length.
const DefaultTokenLength = 8

// maxIssueAttempts bounds collision retries before giving up.
const maxIssueAttempts = 8

// TokenStore answers global uniqueness checks across all exams.
type TokenStore interface {
	TokenExists(ctx context.Context, token string) (bool, error)
}

// Issuer generates collision-resistant opaque exam tokens.
type Issuer struct {
	store  TokenStore
	length int
}

// NewIssuer constructs an Issuer. Lengths below 4 fall back to the default.
func NewIssuer(store TokenStore, length int) *Issuer {
	if length < 4 {
		length = DefaultTokenLength
	}
	return &Issuer{store: store, length: length}
}

// Issue generates a token and verifies global uniqueness before returning,
// retrying a bounded number of times on collision. The storage layer keeps
// its own uniqueness constraint as the final arbiter against concurrent
// issuance.
func (i *Issuer) Issue(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := randomToken(i.length)
		if err != nil {
			return "", fmt.Errorf("exams: generate token: %w", err)
		}
		exists, err := i.store.TokenExists(ctx, token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}
	return "", shared.ErrTokenSpaceExhausted
}

// randomToken draws length characters uniformly from the alphabet using
// rejection sampling to avoid modulo bias.
func randomToken(length int) (string, error) {
	const limit = byte(252) // largest multiple of 36 below 256

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
