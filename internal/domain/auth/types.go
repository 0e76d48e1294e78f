// Package auth contains the domain types and logic for account credentials.
package auth

import (
	"strings"
	"time"
)

// Role represents the kind of organization an account belongs to.
// It drives the post-login destination.
type Role string

const (
	// RoleAdmin is a platform administrator.
	RoleAdmin Role = "admin"
	// RoleManufacturer is a pharmaceutical manufacturer.
	RoleManufacturer Role = "manufacturer"
	// RolePharmacy is a dispensing pharmacy.
	RolePharmacy Role = "pharmacy"
	// RoleUnknown is any role string the platform does not recognize.
	RoleUnknown Role = "unknown"
)

// IsValid returns true if the role is a known, assignable role.
// RoleUnknown is not assignable.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManufacturer, RolePharmacy:
		return true
	default:
		return false
	}
}

// ParseRole maps a raw role string to a Role.
// Matching is case-insensitive; unrecognized values map to RoleUnknown.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.IsValid() {
		return r
	}
	return RoleUnknown
}

// Account is a login identity known to a credential directory.
type Account struct {
	// Email is the login identity, stored lower-cased.
	Email string
	// Name is the display name of the organization or person.
	Name string
	// Role is the role granted on successful login.
	Role Role
	// PasswordHash is an Argon2id (PHC) or bcrypt hash of the password.
	PasswordHash string
	// Disabled accounts are rejected with ReasonAccountInactive.
	Disabled bool
	// CreatedAt is when the account was registered (UTC).
	CreatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email for directory lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
