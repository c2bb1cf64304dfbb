package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

const principalKey = "principal"

// Middleware rejects requests without a valid bearer token and stores the
// verified principal in the request locals.
func Middleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   apperrors.CodeUnauthenticated,
				Message: "Unauthorized",
			})
		}

		token := strings.TrimPrefix(header, "Bearer ")
		principal, err := v.Verify(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error:   apperrors.CodeUnauthenticated,
				Message: "Invalid session",
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Middleware, or nil.
func PrincipalFromCtx(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}
