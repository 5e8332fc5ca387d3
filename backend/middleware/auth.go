package middleware

import (
	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}

// AdminMiddleware пропускает только пользователей с ролью admin
func AdminMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil || user.Role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden - Admin access required",
			})
		}

		return c.Next()
	}
}
