// Package session manages the remembered login of a client.
//
// A client holds at most one session record. The record is written after a
// successful login with "remember me" set, read once when the client starts,
// and treated as absent once it is older than MaxAge.
package session

import (
	"time"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// MaxAge is how long a remembered session stays valid after creation.
// There is no renewal: an expired session requires a fresh login.
const MaxAge = 24 * time.Hour

// DefaultKey is the record key used when a store is not scoped to a client.
const DefaultKey = "userSession"

// Session is a remembered login.
type Session struct {
	// Identity is the email the user logged in with.
	Identity string
	// Role is the role granted by the authenticator.
	Role auth.Role
	// Token is the opaque token issued by the authenticator.
	Token string
	// CreatedAt is when the login succeeded.
	CreatedAt time.Time
}

// ExpiresAt returns the instant the session stops being valid.
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(MaxAge)
}

// IsExpiredAt reports whether the session is no longer valid at now.
// A session is valid only while now - CreatedAt < MaxAge.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return now.Sub(s.CreatedAt) >= MaxAge
}
