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

type RewardService struct {
	DB      *gorm.DB
	Catalog *RewardCatalog

	// Notifier is optional; when set, fresh unlocks are handed off to the
	// notification service best-effort.
	Notifier *NotificationClient
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// SeedCatalog inserts missing catalog rows keyed by code and loads the
// in-memory catalog. Running it twice creates nothing new — existing codes
// are left untouched, including any icon URLs uploaded since.
func (s *RewardService) SeedCatalog() error {
	var created, skipped int
	for _, seed := range models.RewardCatalogSeed {
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&models.Reward{
			ID:          uuid.NewString(),
			Code:        seed.Code,
			Name:        seed.Name,
			Description: seed.Description,
			Type:        seed.Type,
			Tier:        seed.Tier,
			Icon:        seed.Icon,
			Variant:     seed.Variant,
			Requirement: seed.Requirement,
			OrderIndex:  seed.OrderIndex,
			IsActive:    seed.IsActive,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created++
		} else {
			skipped++
		}
	}
	log.Printf("🎖️ Reward catalog seeded: %d created, %d already present", created, skipped)

	var rewards []models.Reward
	if err := s.DB.Where("is_active = ?", true).Order("order_index ASC").Find(&rewards).Error; err != nil {
		return err
	}
	s.Catalog = NewRewardCatalog(rewards)
	log.Printf("🎖️ Reward catalog loaded: %d active entries", s.Catalog.Len())
	return nil
}

// UnlockedReward is what the registrar hands back to the client for the
// celebration UI after a completion unlocks something.
type UnlockedReward struct {
	ID             string            `json:"id"`
	RewardID       string            `json:"reward_id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Icon           string            `json:"icon"`
	IconURL        string            `json:"icon_url,omitempty"`
	Tier           models.RewardTier `json:"tier"`
	RelatedHabitID *string           `json:"related_habit_id,omitempty"`
	EarnedAt       time.Time         `json:"earned_at"`
	Viewed         bool              `json:"viewed"`
}

// CheckAndUnlockRewards evaluates every category for the user and grants each
// outstanding catalog entry whose threshold the current metrics meet. Grants
// are first-crossing-only: the earned set is checked up front and the unique
// index on (external_user_id, reward_id) backstops concurrent evaluations.
// Re-running with no metric change returns an empty slice and writes nothing.
func (s *RewardService) CheckAndUnlockRewards(userID string, habitID *string) ([]UnlockedReward, error) {
	earned, err := s.earnedSet(userID)
	if err != nil {
		return nil, err
	}

	m, err := s.userMetrics(userID, habitID)
	if err != nil {
		return nil, err
	}

	var unlocked []UnlockedReward
	categories := []struct {
		t       models.RewardType
		metric  int
		habitID *string
	}{
		{models.RewardTypeStreak, m.Streak, m.StreakHabitID},
		{models.RewardTypeHabitCount, m.HabitCount, nil},
		{models.RewardTypeTotalCompletions, m.TotalCompletions, nil},
	}
	for _, cat := range categories {
		for _, r := range s.Catalog.Qualifying(cat.t, cat.metric, earned) {
			ur, err := s.grant(userID, r, cat.habitID)
			if err != nil {
				return unlocked, err
			}
			if ur != nil {
				unlocked = append(unlocked, *ur)
			}
		}
	}

	if len(unlocked) > 0 && s.Notifier != nil {
		go func(rewards []UnlockedReward) {
			if err := s.Notifier.NotifyRewardsUnlocked(userID, rewards); err != nil {
				log.Printf("⚠️ Notification hand-off failed for %s: %v", userID, err)
			}
		}(unlocked)
	}

	return unlocked, nil
}

// userMetrics holds one snapshot of the three category metrics.
type userMetrics struct {
	Streak           int
	StreakHabitID    *string
	HabitCount       int
	TotalCompletions int
}

func (s *RewardService) userMetrics(userID string, habitID *string) (*userMetrics, error) {
	streak, streakHabitID, err := s.streakMetric(userID, habitID)
	if err != nil {
		return nil, err
	}

	var habitCount int64
	if err := s.DB.Model(&models.Habit{}).
		Where("external_user_id = ? AND is_active = ?", userID, true).
		Count(&habitCount).Error; err != nil {
		return nil, err
	}

	var totalCompletions int64
	if err := s.DB.Model(&models.HabitRegister{}).
		Joins("JOIN habits ON habits.id = habit_registers.habit_id").
		Where("habits.external_user_id = ? AND habit_registers.completed = ?", userID, true).
		Count(&totalCompletions).Error; err != nil {
		return nil, err
	}

	return &userMetrics{
		Streak:           streak,
		StreakHabitID:    streakHabitID,
		HabitCount:       int(habitCount),
		TotalCompletions: int(totalCompletions),
	}, nil
}

// metricFor maps a catalog category to its value in the snapshot.
func (m *userMetrics) metricFor(t models.RewardType) int {
	switch t {
	case models.RewardTypeStreak:
		return m.Streak
	case models.RewardTypeHabitCount:
		return m.HabitCount
	case models.RewardTypeTotalCompletions:
		return m.TotalCompletions
	}
	return 0
}

// streakMetric resolves the streak category's metric: the scoped habit's
// current streak when a habit is given, otherwise the user's best current
// streak across active habits. Also returns the habit credited with it.
func (s *RewardService) streakMetric(userID string, habitID *string) (int, *string, error) {
	if habitID != nil {
		var habit models.Habit
		err := s.DB.Where("id = ? AND external_user_id = ?", *habitID, userID).First(&habit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, nil
		}
		if err != nil {
			return 0, nil, err
		}
		return habit.CurrentStreak, &habit.ID, nil
	}

	var best models.Habit
	err := s.DB.Where("external_user_id = ? AND is_active = ?", userID, true).
		Order("current_streak DESC").
		First(&best).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	return best.CurrentStreak, &best.ID, nil
}

func (s *RewardService) earnedSet(userID string) (map[string]bool, error) {
	var ids []string
	if err := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ?", userID).
		Pluck("reward_id", &ids).Error; err != nil {
		return nil, err
	}
	earned := make(map[string]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

// grant persists one unlock. A conflicting concurrent grant is treated as
// already-earned, not an error.
func (s *RewardService) grant(userID string, reward *models.Reward, relatedHabitID *string) (*UnlockedReward, error) {
	ur := models.UserReward{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		RewardID:       reward.ID,
		RelatedHabitID: relatedHabitID,
		Viewed:         false,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "reward_id"}},
		DoNothing: true,
	}).Create(&ur)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil // lost the race, someone else granted it first
	}

	log.Printf("🎖️ Reward unlocked: %s → %s", reward.Code, userID)
	return &UnlockedReward{
		ID:             ur.ID,
		RewardID:       reward.ID,
		Code:           reward.Code,
		Name:           reward.Name,
		Icon:           reward.Icon,
		IconURL:        reward.IconURL,
		Tier:           reward.Tier,
		RelatedHabitID: relatedHabitID,
		EarnedAt:       ur.EarnedAt,
		Viewed:         false,
	}, nil
}

// --- Handlers ---

// GetCatalog returns every active catalog entry ordered for display.
func (s *RewardService) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(s.Catalog.All())
}

// GetUserRewards overlays the catalog with the caller's earned state and the
// live progress toward each not-yet-earned threshold.
func (s *RewardService) GetUserRewards(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var earned []models.UserReward
	if err := s.DB.Where("external_user_id = ?", userID).Find(&earned).Error; err != nil {
		log.Printf("DB error fetching user rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rewards"})
	}

	m, err := s.userMetrics(userID, nil)
	if err != nil {
		log.Printf("DB error computing reward metrics for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch rewards"})
	}

	earnedByReward := make(map[string]*models.UserReward, len(earned))
	for i := range earned {
		earnedByReward[earned[i].RewardID] = &earned[i]
	}

	out := make([]fiber.Map, 0, s.Catalog.Len())
	for _, r := range s.Catalog.All() {
		progress := m.metricFor(r.Type)
		if progress > r.Requirement {
			progress = r.Requirement
		}
		entry := fiber.Map{
			"id":          r.ID,
			"code":        r.Code,
			"name":        r.Name,
			"description": r.Description,
			"type":        r.Type,
			"tier":        r.Tier,
			"icon":        r.Icon,
			"icon_url":    r.IconURL,
			"variant":     r.Variant,
			"requirement": r.Requirement,
			"order_index": r.OrderIndex,
			"progress":    progress,
			"earned":      false,
		}
		if ur, ok := earnedByReward[r.ID]; ok {
			entry["earned"] = true
			entry["earned_at"] = ur.EarnedAt
			entry["viewed"] = ur.Viewed
			if ur.RelatedHabitID != nil {
				entry["related_habit_id"] = *ur.RelatedHabitID
			}
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// CheckRewards lets the client trigger an evaluation outside a completion
// (e.g. after restoring a habit). Same engine, same once-only policy.
func (s *RewardService) CheckRewards(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		HabitID *string `json:"habit_id"`
	}
	// Empty body is fine — evaluation then covers all habits.
	_ = c.BodyParser(&req)

	if req.HabitID != nil {
		if _, err := uuid.Parse(*req.HabitID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid habit_id"})
		}
	}

	unlocked, err := s.CheckAndUnlockRewards(userID, req.HabitID)
	if err != nil {
		log.Printf("Reward check failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reward check failed"})
	}
	if unlocked == nil {
		unlocked = []UnlockedReward{}
	}
	return c.JSON(fiber.Map{"new_rewards": unlocked})
}

// MarkRewardsViewed flips the viewed flag on a batch of the caller's unlocks.
func (s *RewardService) MarkRewardsViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		RewardIDs []string `json:"reward_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if len(req.RewardIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward_ids is required"})
	}

	res := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ? AND id IN ?", userID, req.RewardIDs).
		Update("viewed", true)
	if res.Error != nil {
		log.Printf("Mark viewed failed for %s: %v", userID, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to mark rewards viewed"})
	}
	return c.JSON(fiber.Map{"message": "OK", "marked_count": res.RowsAffected})
}

// MarkRewardViewed flips the viewed flag on one unlock. Ownership is enforced
// by the route guard before this runs.
func (s *RewardService) MarkRewardViewed(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Model(&models.UserReward{}).
		Where("id = ?", id).
		Update("viewed", true)
	if res.Error != nil {
		log.Printf("Mark viewed failed for reward %s: %v", id, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to mark reward viewed"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "reward not found"})
	}
	return c.JSON(fiber.Map{"message": "OK", "id": id})
}

// MarkAllRewardsViewed flips viewed on everything the caller has unlocked.
func (s *RewardService) MarkAllRewardsViewed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ? AND viewed = ?", userID, false).
		Update("viewed", true)
	if res.Error != nil {
		log.Printf("Bulk mark viewed failed for %s: %v", userID, res.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to mark rewards viewed"})
	}
	return c.JSON(fiber.Map{"message": "OK", "marked_count": res.RowsAffected})
}

// GetRewardCounts returns total and unviewed unlock counts for the caller.
// Clients poll this instead of holding a push channel open.
func (s *RewardService) GetRewardCounts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var total int64
	if err := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ?", userID).
		Count(&total).Error; err != nil {
		log.Printf("DB error counting rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting rewards"})
	}

	var unviewed int64
	if err := s.DB.Model(&models.UserReward{}).
		Where("external_user_id = ? AND viewed = ?", userID, false).
		Count(&unviewed).Error; err != nil {
		log.Printf("DB error counting unviewed rewards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting unviewed rewards"})
	}

	return c.JSON(fiber.Map{
		"total_count":    total,
		"unviewed_count": unviewed,
	})
}

// UploadRewardIcon stores an icon image for one catalog entry in R2 and
// writes the CDN URL back to the row (admin; catalog is otherwise read-only,
// icon assets are the one exception and reload on next boot).
func (s *RewardService) UploadRewardIcon(c *fiber.Ctx) error {
	code := c.Params("code")
	reward := s.Catalog.ByCode(code)
	if reward == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "reward not found"})
	}

	file, err := c.FormFile("icon")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "icon file is required"})
	}

	url, err := s.storeIcon(file, reward)
	if err != nil {
		log.Printf("Icon upload failed for %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload icon"})
	}

	return c.JSON(fiber.Map{"code": code, "icon_url": url})
}
