package login

import (
	"unicode"
)

// Strength is a password strength rating.
type Strength struct {
	// Score is 0-5, one point per satisfied rule.
	Score int `json:"score"`
	// Feedback lists a hint for each unsatisfied rule.
	Feedback []string `json:"feedback"`
}

// MaxStrength is the best possible score.
const MaxStrength = 5

// PasswordStrength rates a password: at least 8 characters, lowercase,
// uppercase, digits, and a character that is neither a word character nor
// whitespace.
func PasswordStrength(password string) Strength {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || unicode.IsSpace(r):
		default:
			special = true
		}
	}

	s := Strength{Feedback: []string{}}
	rate := func(ok bool, hint string) {
		if ok {
			s.Score++
		} else {
			s.Feedback = append(s.Feedback, hint)
		}
	}
	rate(len([]rune(password)) >= 8, "Use at least 8 characters")
	rate(lower, "Use lowercase letters")
	rate(upper, "Use uppercase letters")
	rate(digit, "Use numbers")
	rate(special, "Use special characters")
	return s
}
