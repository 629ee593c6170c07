package services

import (
	"errors"
	"log"
	"strings"

	"habit-garden-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type HabitService struct {
	DB *gorm.DB
}

func NewHabitService(db *gorm.DB) *HabitService {
	return &HabitService{DB: db}
}

const maxPlantNumber = 15

// CreateHabit creates an active habit for the caller.
func (s *HabitService) CreateHabit(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Title       string                `json:"title"`
		Description string                `json:"description"`
		Frequency   models.HabitFrequency `json:"frequency"`
		PlantNumber int                   `json:"plant_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required (max 100 chars)"})
	}
	if len(req.Description) > 255 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description too long (max 255 chars)"})
	}
	switch req.Frequency {
	case "":
		req.Frequency = models.FrequencyDaily
	case models.FrequencyDaily, models.FrequencyWeekly:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "frequency must be daily or weekly"})
	}
	if req.PlantNumber == 0 {
		req.PlantNumber = 1
	}
	if req.PlantNumber < 1 || req.PlantNumber > maxPlantNumber {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plant_number must be between 1 and 15"})
	}

	habit := models.Habit{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Title:          req.Title,
		Slug:           slug.Make(req.Title),
		Description:    req.Description,
		Frequency:      req.Frequency,
		PlantNumber:    req.PlantNumber,
		IsActive:       true,
	}
	if err := s.DB.Create(&habit).Error; err != nil {
		log.Printf("DB error creating habit for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create habit"})
	}

	return c.Status(fiber.StatusCreated).JSON(habit)
}

// GetUserHabits lists the caller's active habits, newest first.
func (s *HabitService) GetUserHabits(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var habits []models.Habit
	if err := s.DB.Where("external_user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&habits).Error; err != nil {
		log.Printf("DB error listing habits for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch habits"})
	}
	return c.JSON(habits)
}

// GetHabitByID returns one habit. Ownership is enforced by the route's
// ownership guard before this runs.
func (s *HabitService) GetHabitByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var habit models.Habit
	if err := s.DB.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(habit)
}

// UpdateHabit applies a partial update. Streak fields are not updatable from
// the outside — only the recompute path writes them.
func (s *HabitService) UpdateHabit(c *fiber.Ctx) error {
	id := c.Params("id")

	var habit models.Habit
	if err := s.DB.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req struct {
		Title       *string                `json:"title"`
		Description *string                `json:"description"`
		Frequency   *models.HabitFrequency `json:"frequency"`
		PlantNumber *int                   `json:"plant_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title must be 1-100 chars"})
		}
		habit.Title = title
		habit.Slug = slug.Make(title)
	}
	if req.Description != nil {
		if len(*req.Description) > 255 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description too long (max 255 chars)"})
		}
		habit.Description = *req.Description
	}
	if req.Frequency != nil {
		if *req.Frequency != models.FrequencyDaily && *req.Frequency != models.FrequencyWeekly {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "frequency must be daily or weekly"})
		}
		habit.Frequency = *req.Frequency
	}
	if req.PlantNumber != nil {
		if *req.PlantNumber < 1 || *req.PlantNumber > maxPlantNumber {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "plant_number must be between 1 and 15"})
		}
		habit.PlantNumber = *req.PlantNumber
	}

	if err := s.DB.Save(&habit).Error; err != nil {
		log.Printf("DB error updating habit %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update habit"})
	}
	return c.JSON(habit)
}

// DeactivateHabit soft-deactivates a habit. Registers stay around — habits
// are never hard-deleted while history exists.
func (s *HabitService) DeactivateHabit(c *fiber.Ctx) error {
	id := c.Params("id")

	var habit models.Habit
	if err := s.DB.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !habit.IsActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "habit is already deactivated"})
	}

	if err := s.DB.Model(&habit).Update("is_active", false).Error; err != nil {
		log.Printf("DB error deactivating habit %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to deactivate habit"})
	}
	return c.JSON(fiber.Map{"message": "habit deactivated", "id": habit.ID})
}

// RestoreHabit reactivates a previously deactivated habit.
func (s *HabitService) RestoreHabit(c *fiber.Ctx) error {
	id := c.Params("id")

	var habit models.Habit
	if err := s.DB.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if habit.IsActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "habit is already active"})
	}

	if err := s.DB.Model(&habit).Update("is_active", true).Error; err != nil {
		log.Printf("DB error restoring habit %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to restore habit"})
	}
	return c.JSON(habit)
}

// GetHabitStats returns one habit's streak pair and completion count.
func (s *HabitService) GetHabitStats(c *fiber.Ctx) error {
	id := c.Params("id")

	var habit models.Habit
	if err := s.DB.First(&habit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var totalCompletions int64
	if err := s.DB.Model(&models.HabitRegister{}).
		Where("habit_id = ? AND completed = ?", habit.ID, true).
		Count(&totalCompletions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"habit_id":            habit.ID,
		"title":               habit.Title,
		"frequency":           habit.Frequency,
		"current_streak":      habit.CurrentStreak,
		"longest_streak":      habit.LongestStreak,
		"last_completed_date": habit.LastCompletedDate,
		"total_completions":   totalCompletions,
		"is_active":           habit.IsActive,
		"created_at":          habit.CreatedAt,
	})
}
