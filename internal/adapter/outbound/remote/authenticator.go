package remote

import (
	"context"
	"net/http"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
	"github.com/pharmaledger/pharmaledger/internal/domain/login"
)

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Token   string `json:"token"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// Authenticator implements login.Authenticator against an HTTP auth
// service: POST {base}/authenticate with {"email","password"}.
// 200 and 401 are both answers; anything else is an error.
type Authenticator struct {
	c *client
}

// NewAuthenticator creates an authenticator for baseURL.
func NewAuthenticator(baseURL string, opts ...Option) *Authenticator {
	return &Authenticator{c: newClient(baseURL, opts...)}
}

// Authenticate implements login.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, identity, secret string) (login.AuthResult, error) {
	var resp authResponse
	code, err := a.c.do(ctx, http.MethodPost, "/authenticate",
		authRequest{Email: identity, Password: secret}, &resp,
		http.StatusOK, http.StatusUnauthorized, http.StatusForbidden)
	if err != nil {
		return login.AuthResult{}, err
	}

	if code != http.StatusOK || !resp.Success {
		reason := resp.Reason
		if reason == "" {
			reason = login.ReasonInvalidCredentials
		}
		return login.AuthResult{OK: false, Reason: reason}, nil
	}

	return login.AuthResult{
		OK:          true,
		Role:        auth.ParseRole(resp.Role),
		Token:       resp.Token,
		DisplayName: resp.Name,
	}, nil
}

// Compile-time interface verification.
var _ login.Authenticator = (*Authenticator)(nil)
