package services

import (
	"testing"

	"habit-garden-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *RewardCatalog {
	return NewRewardCatalog([]models.Reward{
		{ID: "r-streak-9", Code: "streak_9", Type: models.RewardTypeStreak, Requirement: 9, OrderIndex: 3, IsActive: true},
		{ID: "r-streak-3", Code: "streak_3", Type: models.RewardTypeStreak, Requirement: 3, OrderIndex: 1, IsActive: true},
		{ID: "r-streak-6", Code: "streak_6", Type: models.RewardTypeStreak, Requirement: 6, OrderIndex: 2, IsActive: true},
		{ID: "r-habit-1", Code: "habit_1", Type: models.RewardTypeHabitCount, Requirement: 1, OrderIndex: 4, IsActive: true},
		{ID: "r-retired", Code: "retired", Type: models.RewardTypeStreak, Requirement: 1, OrderIndex: 0, IsActive: false},
	})
}

func TestNewRewardCatalogIndexing(t *testing.T) {
	c := testCatalog()

	assert.Equal(t, 4, c.Len(), "inactive entries are excluded")
	assert.Nil(t, c.ByCode("retired"))
	require.NotNil(t, c.ByCode("streak_6"))
	assert.Equal(t, "r-streak-6", c.ByCode("streak_6").ID)

	// Type buckets ascend by requirement regardless of insertion order.
	streaks := c.ByType(models.RewardTypeStreak)
	require.Len(t, streaks, 3)
	assert.Equal(t, []int{3, 6, 9}, []int{streaks[0].Requirement, streaks[1].Requirement, streaks[2].Requirement})

	// Display order follows order_index.
	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, "streak_3", all[0].Code)
	assert.Equal(t, "habit_1", all[3].Code)
}

func TestQualifying(t *testing.T) {
	c := testCatalog()
	none := map[string]bool{}

	t.Run("metric below every threshold", func(t *testing.T) {
		assert.Empty(t, c.Qualifying(models.RewardTypeStreak, 2, none))
	})

	t.Run("metric jumping several thresholds grants all in order", func(t *testing.T) {
		got := c.Qualifying(models.RewardTypeStreak, 9, none)
		require.Len(t, got, 3)
		assert.Equal(t, "streak_3", got[0].Code)
		assert.Equal(t, "streak_6", got[1].Code)
		assert.Equal(t, "streak_9", got[2].Code)
	})

	t.Run("already earned entries are filtered", func(t *testing.T) {
		earned := map[string]bool{"r-streak-3": true, "r-streak-6": true}
		got := c.Qualifying(models.RewardTypeStreak, 9, earned)
		require.Len(t, got, 1)
		assert.Equal(t, "streak_9", got[0].Code)
	})

	t.Run("no metric change grants nothing twice", func(t *testing.T) {
		earned := map[string]bool{}
		for _, r := range c.Qualifying(models.RewardTypeStreak, 6, earned) {
			earned[r.ID] = true
		}
		assert.Empty(t, c.Qualifying(models.RewardTypeStreak, 6, earned))
	})

	t.Run("categories are independent", func(t *testing.T) {
		got := c.Qualifying(models.RewardTypeHabitCount, 1, none)
		require.Len(t, got, 1)
		assert.Equal(t, "habit_1", got[0].Code)
		assert.Empty(t, c.Qualifying(models.RewardTypeTotalCompletions, 100, none))
	})
}

func TestRewardCatalogSeed(t *testing.T) {
	seen := make(map[string]bool, len(models.RewardCatalogSeed))
	var streaks, habits, totals int
	for _, r := range models.RewardCatalogSeed {
		assert.False(t, seen[r.Code], "duplicate seed code %s", r.Code)
		seen[r.Code] = true
		assert.Positive(t, r.Requirement, "seed %s must have a positive requirement", r.Code)

		switch r.Type {
		case models.RewardTypeStreak:
			streaks++
		case models.RewardTypeHabitCount:
			habits++
		case models.RewardTypeTotalCompletions:
			totals++
		}
	}
	assert.Equal(t, 30, streaks)
	assert.Equal(t, 4, habits)
	assert.Equal(t, 5, totals)
}
