package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// recordKeyPattern matches keys accepted by every session backend.
var recordKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// RegisterCustomValidators registers PharmaLedger-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"password_hash": validatePasswordHash,
		"duration":      validateDuration,
		"record_key":    validateRecordKey,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// validatePasswordHash accepts argon2id and bcrypt hashes.
func validatePasswordHash(fl validator.FieldLevel) bool {
	return auth.DetectHashType(fl.Field().String()) != auth.HashUnknown
}

// validateDuration accepts positive Go duration strings.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

func validateRecordKey(fl validator.FieldLevel) bool {
	return recordKeyPattern.MatchString(fl.Field().String())
}

// Validate validates the Config using struct tags and custom cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateBackends(); err != nil {
		return err
	}

	if err := c.validateUniqueEmails(); err != nil {
		return err
	}

	return nil
}

// validateBackends checks that each selected backend has what it needs.
func (c *Config) validateBackends() error {
	if c.Session.Backend == "redis" && c.Session.Redis.Addr == "" {
		return errors.New("session.redis.addr is required when session.backend is redis")
	}
	if c.Session.Backend == "file" && c.Session.Dir == "" {
		return errors.New("session.dir is required when session.backend is file")
	}
	if c.Auth.Mode == "remote" && c.Auth.Remote.URL == "" {
		return errors.New("auth.remote.url is required when auth.mode is remote")
	}
	if c.Catalog.Mode == "remote" && c.Catalog.Remote.URL == "" {
		return errors.New("catalog.remote.url is required when catalog.mode is remote")
	}
	if c.Catalog.Mode == "sql" && c.Catalog.SQL.DSN == "" {
		return errors.New("catalog.sql.dsn is required when catalog.mode is sql")
	}
	return nil
}

// validateUniqueEmails rejects accounts sharing a normalized email.
func (c *Config) validateUniqueEmails() error {
	seen := make(map[string]int, len(c.Auth.Users))
	for i, u := range c.Auth.Users {
		email := auth.NormalizeEmail(u.Email)
		if first, exists := seen[email]; exists {
			return fmt.Errorf("auth.users[%d]: duplicate email %s (first defined at auth.users[%d])", i, email, first)
		}
		seen[email] = i
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "password_hash":
		return fmt.Sprintf("%s must be an argon2id or bcrypt hash (see 'pharmaledger hash-password')", field)
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as 30s or 5m", field)
	case "record_key":
		return fmt.Sprintf("%s must contain only letters, digits, '.', '_' or '-'", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
