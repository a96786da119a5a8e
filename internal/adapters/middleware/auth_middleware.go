package middleware

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lewiswilliams7/refrr-sub000/internal/core/auth"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
)

// IdentityKey is where the resolved identity lives in the request locals.
const IdentityKey = "identity"

type AuthMiddleware struct {
	validator *auth.SessionValidator
}

func NewAuthMiddleware(validator *auth.SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests without a valid bearer token.
func (am *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get("Authorization"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: no credentials provided",
		})
	}

	ident, err := am.validator.ValidateToken(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized: invalid or expired session",
		})
	}

	c.Locals(IdentityKey, ident)
	return c.Next()
}

// OptionalAuth resolves an identity when credentials are present but lets
// anonymous requests through. Used by the self-service link flow.
func (am *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get("Authorization"))
	if err != nil {
		return c.Next()
	}

	if ident, err := am.validator.ValidateToken(c.Context(), token); err == nil {
		c.Locals(IdentityKey, ident)
	}
	return c.Next()
}

// RequireRole layers a role check on top of RequireAuth. Admins pass any
// role gate.
func (am *AuthMiddleware) RequireRole(role domain.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		ident := Identity(c)
		if ident == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized: no credentials provided",
			})
		}
		if ident.Role != role && ident.Role != domain.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden: insufficient role",
			})
		}
		return c.Next()
	}
}

// Identity returns the resolved identity for this request, or nil for
// anonymous requests.
func Identity(c fiber.Ctx) *domain.Identity {
	ident, _ := c.Locals(IdentityKey).(*domain.Identity)
	return ident
}
