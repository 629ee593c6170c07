package middleware

import (
	"errors"

	"habit-garden-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// OwnedResource names a resource kind the ownership guard understands.
type OwnedResource string

const (
	ResourceHabit      OwnedResource = "habit"
	ResourceRegister   OwnedResource = "habit_register"
	ResourceUserReward OwnedResource = "user_reward"
)

// RequireOwnership verifies that the resource named by the route param
// belongs to the authenticated caller, before the handler runs. One guard for
// every resource kind, so ownership rules cannot drift between routes and
// service code.
//
// Usage:
//
//	habits.Get("/:id", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), svc.GetHabitByID)
func RequireOwnership(db *gorm.DB, resource OwnedResource, paramName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "user not authenticated"})
		}

		resourceID := c.Params(paramName)
		if resourceID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "route param '" + paramName + "' not found",
			})
		}

		owner, err := resolveOwner(db, resource, resourceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": string(resource) + " not found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ownership check failed"})
		}
		if owner != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "you do not have access to this resource",
			})
		}

		return c.Next()
	}
}

func resolveOwner(db *gorm.DB, resource OwnedResource, id string) (string, error) {
	switch resource {
	case ResourceHabit:
		var habit models.Habit
		if err := db.Select("external_user_id").First(&habit, "id = ?", id).Error; err != nil {
			return "", err
		}
		return habit.ExternalUserID, nil

	case ResourceRegister:
		var owner string
		err := db.Model(&models.HabitRegister{}).
			Select("habits.external_user_id").
			Joins("JOIN habits ON habits.id = habit_registers.habit_id").
			Where("habit_registers.id = ?", id).
			Scan(&owner).Error
		if err != nil {
			return "", err
		}
		if owner == "" {
			return "", gorm.ErrRecordNotFound
		}
		return owner, nil

	case ResourceUserReward:
		var ur models.UserReward
		if err := db.Select("external_user_id").First(&ur, "id = ?", id).Error; err != nil {
			return "", err
		}
		return ur.ExternalUserID, nil

	default:
		return "", errors.New("unsupported resource kind")
	}
}
