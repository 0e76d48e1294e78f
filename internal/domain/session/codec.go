package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/domain/auth"
)

// record is the persisted shape of a Session.
// Field names match the record written by the browser client so existing
// entries stay readable.
type record struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

func toRecord(s *Session) record {
	return record{
		Email:     s.Identity,
		Role:      string(s.Role),
		Token:     s.Token,
		Timestamp: s.CreatedAt.UnixMilli(),
	}
}

// Marshal encodes a session into its persisted form.
func Marshal(s *Session) ([]byte, error) {
	return json.Marshal(toRecord(s))
}

// Validate reports whether s would survive a round trip through the store.
// It applies the same required-field rules as Unmarshal.
func Validate(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: nil session", ErrMalformedRecord)
	}
	return checkRecord(toRecord(s))
}

func checkRecord(rec record) error {
	switch {
	case rec.Email == "":
		return fmt.Errorf("%w: missing email", ErrMalformedRecord)
	case rec.Token == "":
		return fmt.Errorf("%w: missing token", ErrMalformedRecord)
	case rec.Timestamp <= 0:
		return fmt.Errorf("%w: missing timestamp", ErrMalformedRecord)
	}
	return nil
}

// Unmarshal decodes a persisted session.
// Any decode failure or missing required field yields an error wrapping
// ErrMalformedRecord. Unrecognized roles decode to auth.RoleUnknown.
func Unmarshal(data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := checkRecord(rec); err != nil {
		return nil, err
	}
	return &Session{
		Identity:  rec.Email,
		Role:      auth.ParseRole(rec.Role),
		Token:     rec.Token,
		CreatedAt: time.UnixMilli(rec.Timestamp).UTC(),
	}, nil
}
