package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"storefront/internal/dto"
	"storefront/internal/models"
)

// AdminRequired resolves the token identity to a stored user and checks its
// role. A missing or unresolvable identity is an authorization failure
// (403), distinct from the authentication failure JWTProtected returns.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		if user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		return c.Next()
	}
}
