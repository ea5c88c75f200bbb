package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/examdesk/examdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	resolver *Resolver
}

// NewService constructs a new Service.
func NewService(repo Repository, resolver *Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Authenticate validates email/password credentials. Every failure mode
// collapses into ErrInvalidCredentials so a caller cannot probe which step
// rejected the attempt.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a signed bearer credential.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.resolver.Issue(user.Principal())
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// HashPassword produces the salted one-way hash stored for accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
