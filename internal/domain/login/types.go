// Package login implements the credential login flow: client-side
// validation, the authenticator call, optional session persistence and the
// role-based redirect.
package login

import (
	"context"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// Credential is what the user typed. It is never stored.
type Credential struct {
	Identity string
	Secret   string
	Remember bool
}

// AuthResult is the authenticator's answer to one attempt.
type AuthResult struct {
	// OK is true when the credentials were accepted.
	OK bool
	// Role is the role granted on success.
	Role auth.Role
	// Token is an opaque token issued on success.
	Token string
	// DisplayName is the account's human-readable name, if any.
	DisplayName string
	// Reason is a failure code when OK is false (see FailureMessage).
	Reason string
}

// Authenticator checks credentials. Implementations: directory, remote.
type Authenticator interface {
	// Authenticate checks identity and secret.
	// A declined attempt is reported with OK=false and a nil error; the error
	// return is reserved for the collaborator being unreachable or broken.
	Authenticate(ctx context.Context, identity, secret string) (AuthResult, error)
}

// State is the position of a Flow in its attempt lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateAuthenticating
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateAuthenticating:
		return "authenticating"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// busy reports whether an attempt is in flight.
func (s State) busy() bool {
	return s == StateValidating || s == StateAuthenticating
}

// Outcome is what the caller renders after Submit.
type Outcome struct {
	Status      State
	Identity    string
	Role        auth.Role
	DisplayName string
	Redirect    Destination
	// Remembered is true when the session was written to the store.
	Remembered bool
	Message    string
	// Fields holds per-field errors when Status is StateInvalid.
	Fields []FieldError
}
