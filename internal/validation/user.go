// Package validation holds the field rules for registrations and articles.
// Every rule is checked so callers can report all violations at once.
package validation

import (
	"regexp"
	"strings"

	"blogapp/internal/models"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

const maxEmailLength = 254

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email has a plausible address format.
func ValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailRegex.MatchString(email)
}

// Registration checks a sign-up request. email must already be normalized.
func Registration(email, name, password string) *models.ValidationErrors {
	errs := &models.ValidationErrors{}

	switch {
	case email == "":
		errs.Add("email", models.CodeMissingField, "can't be blank")
	case !ValidEmail(email):
		errs.Add("email", models.CodeInvalid, "is invalid")
	}

	if strings.TrimSpace(name) == "" {
		errs.Add("name", models.CodeMissingField, "can't be blank")
	}

	switch {
	case password == "":
		errs.Add("password", models.CodeMissingField, "can't be blank")
	case len(password) > MaxPasswordBytes:
		errs.Add("password", models.CodeTooLong, "is too long (maximum is 72 bytes)")
	}

	return errs
}
