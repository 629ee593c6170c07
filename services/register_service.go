package services

import (
	"errors"
	"log"
	"time"

	"habit-garden-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterService is the completion registrar: one completion call is one
// logical unit of store write → streak recompute → reward evaluation.
type RegisterService struct {
	DB      *gorm.DB
	Rewards *RewardService
}

func NewRegisterService(db *gorm.DB, rewards *RewardService) *RegisterService {
	return &RegisterService{DB: db, Rewards: rewards}
}

// CompletionResult is what one completion call returns to the client.
type CompletionResult struct {
	ID               string           `json:"id"`
	HabitID          string           `json:"habit_id"`
	Date             string           `json:"date"`
	Completed        bool             `json:"completed"`
	AlreadyCompleted bool             `json:"already_completed"`
	CurrentStreak    int              `json:"current_streak"`
	LongestStreak    int              `json:"longest_streak"`
	NewRewards       []UnlockedReward `json:"new_rewards,omitempty"`
}

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrNotOwner      = errors.New("habit not owned by user")
	ErrHabitInactive = errors.New("habit is not active")
)

// MarkCompleted records a completion for the habit on now's UTC calendar
// date. Repeat calls for the same day are no-op successes annotated
// already_completed — the unique index on (habit_id, date) is the
// authoritative guard, the ON CONFLICT clause turns the race into the
// idempotent answer instead of an error.
//
// Reward evaluation is best-effort enrichment: the completion write is the
// source of truth and never fails because gamification did.
func (s *RegisterService) MarkCompleted(habitID, userID string, now time.Time) (*CompletionResult, error) {
	var habit models.Habit
	err := s.DB.Where("id = ?", habitID).First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}
	if habit.ExternalUserID != userID {
		return nil, ErrNotOwner
	}
	if !habit.IsActive {
		return nil, ErrHabitInactive
	}

	today := DateString(now)
	register := models.HabitRegister{
		ID:        uuid.NewString(),
		HabitID:   habit.ID,
		Date:      today,
		Completed: true,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&register)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Already completed today (client retry or double tap). Return the
		// existing record and change nothing.
		var existing models.HabitRegister
		if err := s.DB.Where("habit_id = ? AND date = ?", habit.ID, today).First(&existing).Error; err != nil {
			return nil, err
		}
		return &CompletionResult{
			ID:               existing.ID,
			HabitID:          habit.ID,
			Date:             existing.Date,
			Completed:        existing.Completed,
			AlreadyCompleted: true,
			CurrentStreak:    habit.CurrentStreak,
			LongestStreak:    habit.LongestStreak,
		}, nil
	}

	if err := s.UpdateHabitStreak(&habit, now); err != nil {
		return nil, err
	}

	result := &CompletionResult{
		ID:            register.ID,
		HabitID:       habit.ID,
		Date:          register.Date,
		Completed:     true,
		CurrentStreak: habit.CurrentStreak,
		LongestStreak: habit.LongestStreak,
	}

	newRewards, err := s.Rewards.CheckAndUnlockRewards(userID, &habit.ID)
	if err != nil {
		// Swallowed on purpose: marking a habit done must never fail
		// because of a reward bug. The next evaluation catches up.
		log.Printf("⚠️ Reward evaluation failed after completion (habit=%s user=%s): %v", habit.ID, userID, err)
	} else {
		result.NewRewards = newRewards
	}

	return result, nil
}

// --- Handlers ---

// MarkCompletedEndpoint is the HTTP face of MarkCompleted.
func (s *RegisterService) MarkCompletedEndpoint(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		HabitID string `json:"habit_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if _, err := uuid.Parse(req.HabitID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid habit_id"})
	}

	result, err := s.MarkCompleted(req.HabitID, userID, time.Now())
	switch {
	case errors.Is(err, ErrHabitNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
	case errors.Is(err, ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "habit does not belong to you"})
	case errors.Is(err, ErrHabitInactive):
		// Deactivated habits are invisible to completion calls, same as
		// missing ones.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
	case err != nil:
		log.Printf("Completion failed (habit=%s user=%s): %v", req.HabitID, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record completion"})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetCompletions lists the caller's completed registers, newest first,
// optionally scoped to one habit via the route param.
func (s *RegisterService) GetCompletions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	habitID := c.Params("habitId")

	type row struct {
		ID         string `json:"id"`
		HabitID    string `json:"habit_id"`
		HabitTitle string `json:"habit_title"`
		Date       string `json:"date"`
		Completed  bool   `json:"completed"`
	}

	q := s.DB.Model(&models.HabitRegister{}).
		Select("habit_registers.id, habit_registers.habit_id, habits.title AS habit_title, habit_registers.date, habit_registers.completed").
		Joins("JOIN habits ON habits.id = habit_registers.habit_id").
		Where("habits.external_user_id = ? AND habit_registers.completed = ?", userID, true).
		Order("habit_registers.date DESC")
	if habitID != "" {
		if _, err := uuid.Parse(habitID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid habit id"})
		}
		q = q.Where("habit_registers.habit_id = ?", habitID)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		log.Printf("DB error listing completions for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch completions"})
	}
	if rows == nil {
		rows = []row{}
	}
	return c.JSON(rows)
}

// GetCompletionByID returns one register with its habit context. Ownership is
// enforced by the route guard before this runs.
func (s *RegisterService) GetCompletionByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var register models.HabitRegister
	if err := s.DB.First(&register, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "completion not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var habit models.Habit
	if err := s.DB.Select("id, title, frequency").First(&habit, "id = ?", register.HabitID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"id":          register.ID,
		"habit_id":    register.HabitID,
		"habit_title": habit.Title,
		"frequency":   habit.Frequency,
		"date":        register.Date,
		"completed":   register.Completed,
		"created_at":  register.CreatedAt,
	})
}

// GetStreakData returns one habit's streak snapshot plus its lifetime
// completion count.
func (s *RegisterService) GetStreakData(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	habitID := c.Params("habitId")

	var habit models.Habit
	err := s.DB.Where("id = ? AND external_user_id = ?", habitID, userID).First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "habit not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var totalCompletions int64
	if err := s.DB.Model(&models.HabitRegister{}).
		Where("habit_id = ? AND completed = ?", habit.ID, true).
		Count(&totalCompletions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{
		"habit_id":          habit.ID,
		"habit_title":       habit.Title,
		"frequency":         habit.Frequency,
		"current_streak":    habit.CurrentStreak,
		"longest_streak":    habit.LongestStreak,
		"total_completions": totalCompletions,
	})
}
