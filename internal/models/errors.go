package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse is the 422 body: every message plus the field each belongs to.
type ValidationResponse struct {
	Errors  []string     `json:"errors"`
	Details []FieldError `json:"details"`
}

// Error codes carried by AppError.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeInternal     = "INTERNAL_ERROR"
)

// Field rule codes carried by FieldError.
const (
	CodeMissingField   = "missing_field"
	CodeDuplicateEmail = "duplicate_email"
	CodeInvalid        = "invalid"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

var (
	// ErrNotFound matches any NotFound AppError.
	ErrNotFound = &AppError{Code: CodeNotFound}
	// ErrUnauthorized matches any Unauthorized AppError.
	ErrUnauthorized = &AppError{Code: CodeUnauthorized}
	// ErrInvalidCredentials is the single login failure for unknown email and wrong password alike.
	ErrInvalidCredentials = &AppError{Code: CodeUnauthorized, Message: "Invalid email or password"}
	// ErrUnauthenticated is the one response for a missing or unusable bearer token.
	ErrUnauthenticated = NewUnauthorizedError("Unauthorized")
)

// Predefined error constructors
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// FieldError is one violated field rule.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors collects every violated rule of a single request.
type ValidationErrors struct {
	Fields []FieldError
}

// Add records a violation. The message is prefixed with the humanized field name.
func (v *ValidationErrors) Add(field, code, message string) {
	v.Fields = append(v.Fields, FieldError{
		Field:   field,
		Code:    code,
		Message: humanizeField(field) + " " + message,
	})
}

// Empty reports whether no rule was violated.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// Err returns v as an error, or nil when nothing was recorded.
func (v *ValidationErrors) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

// Messages returns the human readable messages in the order recorded.
func (v *ValidationErrors) Messages() []string {
	out := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		out = append(out, f.Message)
	}
	return out
}

// Has reports whether field was rejected with code.
func (v *ValidationErrors) Has(field, code string) bool {
	for _, f := range v.Fields {
		if f.Field == field && f.Code == code {
			return true
		}
	}
	return false
}

func (v *ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v.Messages(), ", ")
}

func humanizeField(field string) string {
	if field == "" {
		return ""
	}
	return strings.ToUpper(field[:1]) + strings.ReplaceAll(field[1:], "_", " ")
}

// HTTPStatus maps an error to the status code it is reported with.
func HTTPStatus(err error) int {
	var verr *ValidationErrors
	if errors.As(err, &verr) {
		return fiber.StatusUnprocessableEntity
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return fiber.StatusNotFound
		case CodeUnauthorized:
			return fiber.StatusUnauthorized
		case CodeBadRequest:
			return fiber.StatusBadRequest
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return fiberErr.Code
	}

	return fiber.StatusInternalServerError
}

// RespondWithError writes the standardized error body for err.
// Internal causes are never written to the client.
func RespondWithError(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)

	var verr *ValidationErrors
	if errors.As(err, &verr) {
		return c.Status(status).JSON(ValidationResponse{
			Errors:  verr.Messages(),
			Details: verr.Fields,
		})
	}

	message := "Internal server error"
	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case status == fiber.StatusInternalServerError:
	case errors.As(err, &appErr):
		message = appErr.Message
	case errors.As(err, &fiberErr):
		message = fiberErr.Message
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}
