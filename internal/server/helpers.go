package server

import (
	"errors"
	"log/slog"

	"blogapp/internal/middleware"
	"blogapp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

var (
	errInvalidBody     = models.NewBadRequestError("Invalid request body")
	errArticleNotFound = models.NewNotFoundError("Article")
)

// parseID extracts the :id route parameter as a positive uint.
// Anything else cannot name an article, so it is answered with 404.
func (s *Server) parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, errArticleNotFound)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// identity returns the requester attached by AuthRequired.
func (s *Server) identity(c *fiber.Ctx) (models.Identity, error) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		_ = models.RespondWithError(c, models.ErrUnauthenticated)
		return models.Identity{}, errResponseWritten
	}
	return who, nil
}

// respond writes err to the client, logging it first when it is not the client's fault.
func (s *Server) respond(c *fiber.Ctx, err error) error {
	if models.HTTPStatus(err) >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

// parseWrapped decodes a body that is either flat or nested under one key,
// e.g. {"email":...} or {"user":{"email":...}}.
func parseWrapped[T any](c *fiber.Ctx, wrapped func(*T) *T) (T, error) {
	var req T
	if err := c.BodyParser(&req); err != nil {
		return req, errInvalidBody
	}
	if inner := wrapped(&req); inner != nil {
		return *inner, nil
	}
	return req, nil
}
