package shared

import "errors"

var (
	// ErrUnauthenticated indicates a missing bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredential indicates a present but expired, tampered or
	// otherwise unverifiable credential.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the caller's role is not in the operation's
	// allowed set.
	ErrForbidden = errors.New("forbidden")
	// ErrNoTenantAccess indicates a non-superadmin principal without an
	// organization. Scope derivation fails closed on it.
	ErrNoTenantAccess = errors.New("no tenant access")
	// ErrAccessDenied indicates a tenant, class or ownership mismatch.
	ErrAccessDenied = errors.New("access denied")
	// ErrSubscriptionExpired indicates the organization's paid access
	// window is no longer valid.
	ErrSubscriptionExpired = errors.New("subscription expired")
	// ErrExamNotFound indicates no exam matches the presented token.
	ErrExamNotFound = errors.New("exam not found")
	// ErrTokenSpaceExhausted indicates token generation kept colliding.
	ErrTokenSpaceExhausted = errors.New("exam token space exhausted")
	// ErrNotFound indicates resource not found or out of scope.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was hit.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates a malformed request payload.
	ErrValidation = errors.New("validation failed")
)
