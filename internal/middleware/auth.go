package middleware

import (
	"context"
	"log/slog"
	"strings"

	"blogapp/internal/models"
	"blogapp/internal/observability"
	"blogapp/internal/token"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier checks a bearer token and returns the user id it asserts.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// UserResolver loads the user a verified token refers to.
// It returns (nil, nil) when the user no longer exists.
type UserResolver interface {
	ResolveUser(ctx context.Context, id uint) (*models.User, error)
}

const identityLocal = "identity"

// AuthRequired is a middleware that enforces authentication for protected routes.
// Every rejection produces the same 401 body so callers learn nothing about why.
func AuthRequired(tokens TokenVerifier, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return reject(c, "missing_header")
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			return reject(c, token.Reason(err))
		}

		ctx := c.UserContext()
		user, err := users.ResolveUser(ctx, userID)
		if err != nil {
			Logger.ErrorContext(ctx, "failed to resolve authenticated user",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, models.NewInternalError(err))
		}
		if user == nil {
			return reject(c, "unknown_user")
		}

		identity := models.IdentityOf(user)
		c.Locals(identityLocal, identity)
		c.Locals("userID", identity.UserID)

		ctx = context.WithValue(ctx, UserIDKey, identity.UserID)
		ctx = context.WithValue(ctx, identityKey, identity)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func reject(c *fiber.Ctx, reason string) error {
	observability.TokenRejections.WithLabelValues(reason).Inc()
	Logger.DebugContext(c.UserContext(), "request rejected by auth", slog.String("reason", reason))
	return models.RespondWithError(c, models.ErrUnauthenticated)
}

// IdentityFrom returns the identity AuthRequired attached to the request.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	identity, ok := c.Locals(identityLocal).(models.Identity)
	return identity, ok
}

// IdentityFromContext returns the identity carried by a request context.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}
