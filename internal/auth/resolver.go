package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

// ResolverConfig carries the signing secret and credential lifetime. The
// secret is injected at construction; the resolver never reads ambient
// state.
type ResolverConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Resolver issues and verifies signed bearer credentials.
type Resolver struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// claims is the wire shape of the credential payload. Email and OrgName
// exist for display only and are never trusted for authorization.
type claims struct {
	Role    string `json:"role"`
	OrgID   *int64 `json:"org_id,omitempty"`
	Email   string `json:"email,omitempty"`
	OrgName string `json:"org_name,omitempty"`
	jwt.RegisteredClaims
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("auth: signing secret must be provided")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{secret: cfg.Secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a credential for the principal with the configured lifetime.
func (r *Resolver) Issue(p authz.Principal) (string, error) {
	now := r.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:    string(p.Role),
		OrgID:   p.OrgID,
		Email:   p.Email,
		OrgName: p.OrgName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	})
	return token.SignedString(r.secret)
}

// Resolve decodes a bearer credential into a Principal. An empty credential
// fails with ErrUnauthenticated; anything present but unverifiable fails
// with ErrInvalidCredential without further detail.
func (r *Resolver) Resolve(credential string) (authz.Principal, error) {
	if credential == "" {
		return authz.Principal{}, shared.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(credential, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.secret, nil
	}, jwt.WithTimeFunc(r.now))
	if err != nil || !parsed.Valid {
		return authz.Principal{}, shared.ErrInvalidCredential
	}

	c, ok := parsed.Claims.(*claims)
	if !ok {
		return authz.Principal{}, shared.ErrInvalidCredential
	}
	role, err := authz.ParseRole(c.Role)
	if err != nil {
		return authz.Principal{}, shared.ErrInvalidCredential
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return authz.Principal{}, shared.ErrInvalidCredential
	}

	return authz.Principal{
		ID:      id,
		Role:    role,
		OrgID:   c.OrgID,
		Email:   c.Email,
		OrgName: c.OrgName,
	}, nil
}

// TTL exposes the configured credential lifetime.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}
