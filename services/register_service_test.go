package services

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"habit-garden-system/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the same tables and unique
// indexes the Postgres schema carries. One connection, so every query sees
// the same in-memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	for _, ddl := range []string{
		`CREATE TABLE habits (
			id text PRIMARY KEY,
			external_user_id text NOT NULL,
			title text NOT NULL,
			slug text,
			description text,
			frequency text DEFAULT 'daily',
			current_streak integer DEFAULT 0,
			longest_streak integer DEFAULT 0,
			last_completed_date text,
			plant_number integer DEFAULT 1,
			is_active numeric DEFAULT true,
			created_at datetime,
			updated_at datetime,
			deleted_at datetime
		)`,
		`CREATE TABLE habit_registers (
			id text PRIMARY KEY,
			habit_id text NOT NULL,
			date text NOT NULL,
			completed numeric DEFAULT true,
			created_at datetime
		)`,
		`CREATE UNIQUE INDEX idx_habit_register_day ON habit_registers(habit_id, date)`,
		`CREATE TABLE user_rewards (
			id text PRIMARY KEY,
			external_user_id text NOT NULL,
			reward_id text NOT NULL,
			related_habit_id text,
			earned_at datetime,
			viewed numeric DEFAULT false
		)`,
		`CREATE UNIQUE INDEX idx_user_reward_once ON user_rewards(external_user_id, reward_id)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func newTestRegistrar(t *testing.T, catalog []models.Reward) (*RegisterService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	rewards := NewRewardService(db)
	rewards.Catalog = NewRewardCatalog(catalog)
	return NewRegisterService(db, rewards), db
}

func seedHabit(t *testing.T, db *gorm.DB, userID string, active bool) models.Habit {
	t.Helper()
	habit := models.Habit{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Title:          "Water the plants",
		Slug:           "water-the-plants",
		Frequency:      models.FrequencyDaily,
		PlantNumber:    1,
		IsActive:       active,
	}
	require.NoError(t, db.Create(&habit).Error)
	if !active {
		// gorm skips the zero-value flag in favor of the column default, so
		// force it down explicitly when seeding an inactive habit.
		require.NoError(t, db.Model(&models.Habit{}).Where("id = ?", habit.ID).Update("is_active", false).Error)
	}
	return habit
}

func TestMarkCompleted(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	t.Run("first completion records and recomputes", func(t *testing.T) {
		svc, db := newTestRegistrar(t, nil)
		habit := seedHabit(t, db, "user-1", true)

		res, err := svc.MarkCompleted(habit.ID, "user-1", now)
		require.NoError(t, err)
		assert.False(t, res.AlreadyCompleted)
		assert.Equal(t, "2026-01-10", res.Date)
		assert.Equal(t, 1, res.CurrentStreak)
		assert.Equal(t, 1, res.LongestStreak)

		var count int64
		require.NoError(t, db.Model(&models.HabitRegister{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("repeat same day is a no-op success", func(t *testing.T) {
		svc, db := newTestRegistrar(t, nil)
		habit := seedHabit(t, db, "user-1", true)

		first, err := svc.MarkCompleted(habit.ID, "user-1", now)
		require.NoError(t, err)
		second, err := svc.MarkCompleted(habit.ID, "user-1", now)
		require.NoError(t, err)

		assert.True(t, second.AlreadyCompleted)
		assert.Equal(t, first.ID, second.ID, "repeat call returns the existing record")
		assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
		assert.Empty(t, second.NewRewards)

		var count int64
		require.NoError(t, db.Model(&models.HabitRegister{}).Count(&count).Error)
		assert.EqualValues(t, 1, count, "record count unchanged by the repeat call")
	})

	t.Run("consecutive days grow the streak", func(t *testing.T) {
		svc, db := newTestRegistrar(t, nil)
		habit := seedHabit(t, db, "user-1", true)

		for i := 0; i < 3; i++ {
			res, err := svc.MarkCompleted(habit.ID, "user-1", now.AddDate(0, 0, i))
			require.NoError(t, err)
			assert.Equal(t, i+1, res.CurrentStreak)
		}

		var stored models.Habit
		require.NoError(t, db.First(&stored, "id = ?", habit.ID).Error)
		assert.Equal(t, 3, stored.CurrentStreak)
		assert.Equal(t, 3, stored.LongestStreak)
		require.NotNil(t, stored.LastCompletedDate)
		assert.Equal(t, "2026-01-12", *stored.LastCompletedDate)
	})

	t.Run("missing habit", func(t *testing.T) {
		svc, _ := newTestRegistrar(t, nil)
		_, err := svc.MarkCompleted(uuid.NewString(), "user-1", now)
		assert.ErrorIs(t, err, ErrHabitNotFound)
	})

	t.Run("foreign habit", func(t *testing.T) {
		svc, db := newTestRegistrar(t, nil)
		habit := seedHabit(t, db, "someone-else", true)
		_, err := svc.MarkCompleted(habit.ID, "user-1", now)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("deactivated habit", func(t *testing.T) {
		svc, db := newTestRegistrar(t, nil)
		habit := seedHabit(t, db, "user-1", false)
		_, err := svc.MarkCompleted(habit.ID, "user-1", now)
		assert.ErrorIs(t, err, ErrHabitInactive)
	})

	t.Run("crossing a threshold unlocks once", func(t *testing.T) {
		catalog := []models.Reward{
			{ID: "r-streak-1", Code: "streak_1", Type: models.RewardTypeStreak, Requirement: 1, IsActive: true},
		}
		svc, db := newTestRegistrar(t, catalog)
		habit := seedHabit(t, db, "user-1", true)

		res, err := svc.MarkCompleted(habit.ID, "user-1", now)
		require.NoError(t, err)
		require.Len(t, res.NewRewards, 1)
		assert.Equal(t, "streak_1", res.NewRewards[0].Code)

		res2, err := svc.MarkCompleted(habit.ID, "user-1", now.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Empty(t, res2.NewRewards, "no second grant for the same reward")

		var count int64
		require.NoError(t, db.Model(&models.UserReward{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func newRegistrarApp(svc *RegisterService, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/completions", svc.MarkCompletedEndpoint)
	app.Get("/completions", svc.GetCompletions)
	return app
}

func TestMarkCompletedEndpointStatusMapping(t *testing.T) {
	svc, db := newTestRegistrar(t, nil)
	active := seedHabit(t, db, "user-1", true)
	inactive := seedHabit(t, db, "user-1", false)
	foreign := seedHabit(t, db, "someone-else", true)
	app := newRegistrarApp(svc, "user-1")

	post := func(t *testing.T, habitID string) int {
		t.Helper()
		body, err := json.Marshal(fiber.Map{"habit_id": habitID})
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/completions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, post(t, active.ID))
	assert.Equal(t, fiber.StatusNotFound, post(t, uuid.NewString()))
	assert.Equal(t, fiber.StatusForbidden, post(t, foreign.ID))
	assert.Equal(t, fiber.StatusNotFound, post(t, inactive.ID), "deactivated habits read as not found")
}

func TestGetCompletionsListsOnlyCompleted(t *testing.T) {
	svc, db := newTestRegistrar(t, nil)
	habit := seedHabit(t, db, "user-1", true)

	require.NoError(t, db.Create(&models.HabitRegister{
		ID: uuid.NewString(), HabitID: habit.ID, Date: "2026-01-09", Completed: true,
	}).Error)
	// Raw insert: gorm would apply the column default over a zero-value flag.
	require.NoError(t, db.Exec(
		`INSERT INTO habit_registers (id, habit_id, date, completed) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), habit.ID, "2026-01-08", false,
	).Error)

	app := newRegistrarApp(svc, "user-1")
	resp, err := app.Test(httptest.NewRequest("GET", "/completions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []struct {
		Date      string `json:"date"`
		Completed bool   `json:"completed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1, "uncompleted rows stay out of the history listing")
	assert.Equal(t, "2026-01-09", rows[0].Date)
	assert.True(t, rows[0].Completed)
}
