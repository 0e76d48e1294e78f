package login

// Failure reason codes returned by authenticators in AuthResult.Reason.
const (
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonAccountLocked      = "account_locked"
	ReasonAccountInactive    = "account_inactive"
	ReasonNetworkError       = "network_error"
	ReasonServerError        = "server_error"
)

// User-facing messages.
const (
	MessageSucceeded   = "Login successful! Redirecting..."
	MessageDeclined    = "Invalid email or password. Please try again."
	MessageUnavailable = "Login failed. Please check your connection and try again."
	MessageInvalid     = "Please correct the highlighted fields."
)

var failureMessages = map[string]string{
	ReasonInvalidCredentials: MessageDeclined,
	ReasonAccountLocked:      "Account has been locked due to multiple failed attempts",
	ReasonAccountInactive:    "Account is inactive. Please contact administrator",
	ReasonNetworkError:       "Network error. Please check your connection",
	ReasonServerError:        "Server error. Please try again later",
}

// FailureMessage returns the message shown for a declined attempt.
// Unknown or empty codes fall back to MessageDeclined.
func FailureMessage(reason string) string {
	if m, ok := failureMessages[reason]; ok {
		return m
	}
	return MessageDeclined
}
