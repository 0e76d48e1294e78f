package login

import (
	"testing"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

func TestRedirectTarget(t *testing.T) {
	tests := []struct {
		role auth.Role
		want Destination
	}{
		{auth.RoleAdmin, DestinationAdmin},
		{auth.RoleManufacturer, DestinationManufacturer},
		{auth.RolePharmacy, DestinationPharmacy},
		{auth.Role("guest"), DestinationDefault},
		{auth.RoleUnknown, DestinationDefault},
		{auth.Role(""), DestinationDefault},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := RedirectTarget(tt.role); got != tt.want {
				t.Errorf("RedirectTarget(%q) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{ReasonInvalidCredentials, MessageDeclined},
		{ReasonAccountLocked, "Account has been locked due to multiple failed attempts"},
		{ReasonAccountInactive, "Account is inactive. Please contact administrator"},
		{ReasonNetworkError, "Network error. Please check your connection"},
		{ReasonServerError, "Server error. Please try again later"},
		{"", MessageDeclined},
		{"something_new", MessageDeclined},
	}
	for _, tt := range tests {
		if got := FailureMessage(tt.reason); got != tt.want {
			t.Errorf("FailureMessage(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
