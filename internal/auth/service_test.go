package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/examdesk/examdesk/internal/authz"
	"github.com/examdesk/examdesk/internal/shared"
)

type stubUserRepo struct {
	users map[string]*User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func seedUser(t *testing.T, email, password string, active bool) *User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	org := int64(5)
	return &User{
		ID:           7,
		Email:        email,
		PasswordHash: hash,
		Role:         authz.RoleAdmin,
		OrgID:        &org,
		OrgName:      "Acme Academy",
		IsActive:     active,
	}
}

func TestAuthenticateFailuresCollapse(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{
		"a@x.test":        seedUser(t, "a@x.test", "correct-horse", true),
		"inactive@x.test": seedUser(t, "inactive@x.test", "correct-horse", false),
	}}
	resolver := testResolver(t)
	svc := NewService(repo, resolver)

	cases := []struct{ email, password string }{
		{"missing@x.test", "correct-horse"},
		{"a@x.test", "wrong-password"},
		{"inactive@x.test", "correct-horse"},
	}
	for _, tc := range cases {
		_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
		require.ErrorIs(t, err, shared.ErrInvalidCredentials, "email %s", tc.email)
	}
}

func TestLoginIssuesResolvableCredential(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{
		"a@x.test": seedUser(t, "a@x.test", "correct-horse", true),
	}}
	resolver := testResolver(t)
	svc := NewService(repo, resolver)

	token, user, err := svc.Login(context.Background(), "a@x.test", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)

	p, err := resolver.Resolve(token)
	require.NoError(t, err)
	require.Equal(t, user.Principal(), p)
}

func TestLoginHandler(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{
		"a@x.test": seedUser(t, "a@x.test", "correct-horse", true),
	}}
	resolver := testResolver(t)
	handler := NewHandler(nil, NewService(repo, resolver))

	rec := httptest.NewRecorder()
	handler.handleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@x.test","password":"correct-horse"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, int64(time.Hour/time.Second), resp.ExpiresIn)

	// Bad password is a 401 with no detail about the failing step.
	rec = httptest.NewRecorder()
	handler.handleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@x.test","password":"wrong-password"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateMiddleware(t *testing.T) {
	resolver := testResolver(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := authz.PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, int64(7), p.ID)
		w.WriteHeader(http.StatusNoContent)
	})
	mw := Authenticate(resolver)(next)

	// No header at all.
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Tampered credential.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tampered")
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid credential reaches the handler with the principal attached.
	org := int64(5)
	token, err := resolver.Issue(authz.Principal{ID: 7, Role: authz.RoleAdmin, OrgID: &org})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
