package middleware

import (
	"errors"

	"habit-garden-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireVerifiedEmail gates a route on the caller having a verified email,
// read from the local user mirror. Routes declare the guard explicitly in
// their chain; there is no annotation magic.
func RequireVerifiedEmail(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "user not authenticated"})
		}

		var user models.HabitUser
		err := db.Select("email_verified").
			Where("external_user_id = ?", userID).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Mirror may lag the profile service for brand-new accounts;
			// treat as unverified rather than failing open.
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "verify your email address to use this feature",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification check failed"})
		}
		if !user.EmailVerified {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "verify your email address to use this feature",
			})
		}

		return c.Next()
	}
}
