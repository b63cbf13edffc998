package middleware

import (
	"strings"

	"marketplace-catalog/internal/service"
	"marketplace-catalog/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localSellerID = "seller_id"
	localShopID   = "shop_id"
	localName     = "user_name"
	localRole     = "user_role"
)

// RequireAuth is middleware that validates JWT token and sets the caller in context
func RequireAuth(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
		}

		c.Locals(localSellerID, claims.SellerID)
		c.Locals(localShopID, claims.ShopID)
		c.Locals(localName, claims.Name)
		c.Locals(localRole, claims.Role)

		return c.Next()
	}
}

// RequireRole lets the request through when the caller has one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(localRole).(string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"success": false, "error": "No role found"})
		}

		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"error":   "Forbidden: requires role " + strings.Join(roles, " or "),
		})
	}
}

// ActorFrom reads the caller placed in context by RequireAuth.
func ActorFrom(c *fiber.Ctx) service.Actor {
	var actor service.Actor
	actor.ShopID, _ = c.Locals(localShopID).(uuid.UUID)
	actor.SellerID, _ = c.Locals(localSellerID).(uuid.UUID)
	actor.Name, _ = c.Locals(localName).(string)
	return actor
}
