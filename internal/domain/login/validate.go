package login

import (
	"errors"
	"regexp"
	"strings"
)

// Field names a credential input.
type Field string

const (
	FieldIdentity Field = "email"
	FieldSecret   Field = "password"
)

// MinSecretLength is the shortest accepted secret.
const MinSecretLength = 6

var identityPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field error messages.
const (
	msgIdentityInvalid = "Please enter a valid email address"
	msgSecretTooShort  = "Password must be at least 6 characters"
	msgRequired        = "Please fill in all fields"
)

// FieldError describes one invalid input.
type FieldError struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// ValidationResult lists every failing field. Empty means valid.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Has reports whether f failed.
func (r ValidationResult) Has(f Field) bool {
	for _, e := range r.Errors {
		if e.Field == f {
			return true
		}
	}
	return false
}

// ValidationError is returned by Submit when validation fails.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, string(f.Field)+": "+f.Message)
	}
	return "invalid credentials input: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks a credential as submitted. Both fields are always
// checked so every failure can be shown at once.
func Validate(c Credential) ValidationResult {
	var res ValidationResult
	if fe := checkIdentity(c.Identity, true); fe != nil {
		res.Errors = append(res.Errors, *fe)
	}
	if fe := checkSecret(c.Secret, true); fe != nil {
		res.Errors = append(res.Errors, *fe)
	}
	return res
}

// ValidateField checks one input as the user leaves it. Empty values are
// not flagged: an untouched field is not an error until submission.
func ValidateField(f Field, value string) *FieldError {
	switch f {
	case FieldIdentity:
		return checkIdentity(value, false)
	case FieldSecret:
		return checkSecret(value, false)
	default:
		return nil
	}
}

func checkIdentity(v string, submitted bool) *FieldError {
	v = strings.TrimSpace(v)
	if v == "" {
		if !submitted {
			return nil
		}
		return &FieldError{Field: FieldIdentity, Message: msgRequired}
	}
	if !identityPattern.MatchString(v) {
		return &FieldError{Field: FieldIdentity, Message: msgIdentityInvalid}
	}
	return nil
}

// Secrets are not trimmed; length counts characters, not bytes.
func checkSecret(v string, submitted bool) *FieldError {
	if v == "" {
		if !submitted {
			return nil
		}
		return &FieldError{Field: FieldSecret, Message: msgRequired}
	}
	if len([]rune(v)) < MinSecretLength {
		return &FieldError{Field: FieldSecret, Message: msgSecretTooShort}
	}
	return nil
}
