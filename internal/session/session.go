// Package session maps opaque session ids to provider access tokens.
//
// The browser only ever holds the session id. Every authenticated request
// presents it as a bearer token; the store resolves it to the access token
// used against the hosting API.
//
// LIFECYCLE:
//
//	OAuth callback  → Put     (write-once)
//	each /api call  → Get     (read-many)
//	logout / expiry → Remove  (or the backend drops it on its own)
//
// Unknown and expired ids are deliberately indistinguishable: both surface
// as apperror.ErrUnauthorized.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/test-case-generator/internal/apperror"
	"github.com/sakif/test-case-generator/internal/model"
)

// DefaultTTL is how long a session stays valid after login.
const DefaultTTL = 24 * time.Hour

// Store is the session store contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, s model.Session) error
	// Get returns an Unauthorized error for unknown or expired ids.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Remove is idempotent: removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error
}

// NewID returns a fresh 128-bit random session id.
//
// WHY uuid v4 AND NOT xid?
// xid ids are sortable and partly predictable (timestamp + machine + counter).
// A session id is a bearer credential, so it must be unguessable: v4 carries
// 122 bits from crypto/rand.
func NewID() string {
	return uuid.NewString()
}

// New builds a Session for accessToken that expires ttl from now.
func New(accessToken, login string, ttl time.Duration) model.Session {
	now := time.Now().UTC()
	return model.Session{
		ID:          NewID(),
		AccessToken: accessToken,
		Login:       login,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// ErrNotFound builds the error every backend returns for a missing session.
func ErrNotFound() error {
	return apperror.Unauthorized("session not found or expired")
}
