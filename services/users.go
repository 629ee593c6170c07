package services

import (
	"log"
	"strconv"
	"strings"

	"habit-garden-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// SearchUsers searches the local user mirror. The profile service owns the
// canonical records; this only serves lookups the habit UI needs.
func (s *UserService) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.HabitUser{}).Where("is_active = ?", true).Limit(limit)
	if query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var users []models.HabitUser
	if err := db.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search failed", "cause": err.Error()})
	}

	type UserSummary struct {
		ExternalUserID string  `json:"external_user_id"`
		Username       string  `json:"username"`
		AvatarURL      *string `json:"avatar_url,omitempty"`
	}
	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ExternalUserID: u.ExternalUserID,
			Username:       u.Username,
			AvatarURL:      u.AvatarURL,
		}
	}
	return c.JSON(res)
}

// GetUserStats aggregates the caller's habit activity for the profile screen.
func (s *UserService) GetUserStats(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var totalHabits, activeHabits int64
	if err := s.DB.Model(&models.Habit{}).
		Where("external_user_id = ?", userID).
		Count(&totalHabits).Error; err != nil {
		log.Printf("DB error counting habits for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute stats"})
	}
	if err := s.DB.Model(&models.Habit{}).
		Where("external_user_id = ? AND is_active = ?", userID, true).
		Count(&activeHabits).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	var totalCompletions int64
	if err := s.DB.Model(&models.HabitRegister{}).
		Joins("JOIN habits ON habits.id = habit_registers.habit_id").
		Where("habits.external_user_id = ? AND habit_registers.completed = ?", userID, true).
		Count(&totalCompletions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	type streakPair struct {
		Current int
		Longest int
	}
	var best streakPair
	if err := s.DB.Model(&models.Habit{}).
		Select("COALESCE(MAX(current_streak), 0) AS current, COALESCE(MAX(longest_streak), 0) AS longest").
		Where("external_user_id = ?", userID).
		Scan(&best).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	var rewardsEarned int64
	if err := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ?", userID).
		Count(&rewardsEarned).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	resp := fiber.Map{
		"total_habits":      totalHabits,
		"active_habits":     activeHabits,
		"total_completions": totalCompletions,
		"current_streak":    best.Current,
		"longest_streak":    best.Longest,
		"rewards_earned":    rewardsEarned,
	}

	var user models.HabitUser
	if err := s.DB.Where("external_user_id = ?", userID).First(&user).Error; err == nil {
		resp["member_since"] = user.CreatedAt
	}

	return c.JSON(resp)
}
