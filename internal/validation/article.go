package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"blogapp/internal/models"
)

// MinBodyLength is the shortest accepted article body, in characters.
const MinBodyLength = 10

// Article checks the state an article would be saved with, on create and on update.
func Article(a *models.Article) *models.ValidationErrors {
	errs := &models.ValidationErrors{}

	if strings.TrimSpace(a.Title) == "" {
		errs.Add("title", models.CodeMissingField, "can't be blank")
	}

	switch {
	case strings.TrimSpace(a.Body) == "":
		errs.Add("body", models.CodeMissingField, "can't be blank")
	case utf8.RuneCountInString(a.Body) < MinBodyLength:
		errs.Add("body", models.CodeTooShort,
			fmt.Sprintf("is too short (minimum is %d characters)", MinBodyLength))
	}

	return errs
}
