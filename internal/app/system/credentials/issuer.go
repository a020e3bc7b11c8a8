// internal/app/system/credentials/issuer.go
//
// Package credentials mints and manages member portal logins. The issuer is
// deliberately decoupled from the admin session layer: creating a member
// identity must never disturb the signed-in admin, so nothing in this package
// may touch the session store or cookies.
package credentials

import (
	"context"
	"errors"
	"time"
)

// Issuer error taxonomy. Callers map these to actionable messages
// ("that email already has a login", etc.).
var (
	ErrDuplicateEmail = errors.New("credentials: an identity with this email already exists")
	ErrInvalidEmail   = errors.New("credentials: malformed email address")
	ErrWeakPassword   = errors.New("credentials: password does not meet minimum length")
	ErrNotFound       = errors.New("credentials: identity not found")
)

// Identity is a minted portal login.
type Identity struct {
	ID          string    `bson:"_id" json:"id"`
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Disabled    bool      `bson:"disabled" json:"disabled"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Issuer is the credential provider contract consumed by the member
// data-access layer.
//
// Implementations guarantee session isolation: none of these operations may
// read or write the caller's own authenticated session.
type Issuer interface {
	// CreateIdentity mints a new login for email with the given password.
	CreateIdentity(ctx context.Context, email, password string) (Identity, error)

	// UpdateDisplayName sets the display name on an existing identity.
	UpdateDisplayName(ctx context.Context, id, name string) error

	// Disable marks the identity unusable for future logins.
	Disable(ctx context.Context, id string) error

	// SignOutAll revokes every active portal session for the identity.
	SignOutAll(ctx context.Context, id string) error
}
