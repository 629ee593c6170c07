package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name        string
		today       string
		history     []string
		prevLongest int
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "empty history",
			today:       "2026-01-10",
			history:     nil,
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "single completion today",
			today:       "2026-01-10",
			history:     []string{"2026-01-10"},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "three consecutive days ending today",
			today:       "2026-01-10",
			history:     []string{"2026-01-08", "2026-01-09", "2026-01-10"},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "streak ending yesterday still counts",
			today:       "2026-01-10",
			history:     []string{"2026-01-07", "2026-01-08", "2026-01-09"},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "streak ending two days ago is dead",
			today:       "2026-01-10",
			history:     []string{"2026-01-06", "2026-01-07", "2026-01-08"},
			wantCurrent: 0,
			wantLongest: 0,
		},
		{
			name:        "gap in the middle ends the walk",
			today:       "2026-01-05",
			history:     []string{"2026-01-01", "2026-01-02", "2026-01-04"},
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "unordered and duplicated input",
			today:       "2026-01-10",
			history:     []string{"2026-01-10", "2026-01-09", "2026-01-09", "2026-01-10", "2026-01-08"},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "longest ratchets and never shrinks",
			today:       "2026-01-10",
			history:     []string{"2026-01-10", "2026-01-09"},
			prevLongest: 7,
			wantCurrent: 2,
			wantLongest: 7,
		},
		{
			name:        "longest advances when current exceeds it",
			today:       "2026-01-10",
			history:     []string{"2026-01-06", "2026-01-07", "2026-01-08", "2026-01-09", "2026-01-10"},
			prevLongest: 3,
			wantCurrent: 5,
			wantLongest: 5,
		},
		{
			name:        "stray future date is skipped not fatal",
			today:       "2026-01-10",
			history:     []string{"2026-01-12", "2026-01-10", "2026-01-09"},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "month boundary",
			today:       "2026-02-01",
			history:     []string{"2026-01-30", "2026-01-31", "2026-02-01"},
			wantCurrent: 3,
			wantLongest: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeStreak(day(tc.today), tc.history, tc.prevLongest)
			assert.Equal(t, tc.wantCurrent, got.CurrentStreak, "current streak")
			assert.Equal(t, tc.wantLongest, got.LongestStreak, "longest streak")
		})
	}
}

func TestComputeStreakIsIdempotent(t *testing.T) {
	history := []string{"2026-01-08", "2026-01-09", "2026-01-10"}
	today := day("2026-01-10")

	first := ComputeStreak(today, history, 0)
	second := ComputeStreak(today, history, first.LongestStreak)

	assert.Equal(t, first.CurrentStreak, second.CurrentStreak)
	assert.Equal(t, first.LongestStreak, second.LongestStreak)
}

func TestComputeWeeklyStreak(t *testing.T) {
	// 2026-01-14 is a Wednesday; its ISO week starts Monday 2026-01-12.
	today := day("2026-01-14")

	t.Run("three consecutive weeks", func(t *testing.T) {
		history := []string{"2026-01-13", "2026-01-07", "2025-12-31"}
		got := ComputeWeeklyStreak(today, history, 0)
		assert.Equal(t, 3, got.CurrentStreak)
		assert.Equal(t, 3, got.LongestStreak)
	})

	t.Run("multiple completions same week count once", func(t *testing.T) {
		history := []string{"2026-01-12", "2026-01-13", "2026-01-14"}
		got := ComputeWeeklyStreak(today, history, 0)
		assert.Equal(t, 1, got.CurrentStreak)
	})

	t.Run("last week only still live", func(t *testing.T) {
		history := []string{"2026-01-07"}
		got := ComputeWeeklyStreak(today, history, 0)
		assert.Equal(t, 1, got.CurrentStreak)
	})

	t.Run("two weeks ago is dead", func(t *testing.T) {
		history := []string{"2025-12-31"}
		got := ComputeWeeklyStreak(today, history, 0)
		assert.Equal(t, 0, got.CurrentStreak)
	})
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-01-12", "2026-01-12"}, // Monday maps to itself
		{"2026-01-14", "2026-01-12"}, // Wednesday
		{"2026-01-18", "2026-01-12"}, // Sunday belongs to the preceding Monday
		{"2026-01-19", "2026-01-19"}, // next Monday starts a new week
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, WeekStart(day(tc.date)), "week start of %s", tc.date)
	}
}

func TestDateHelpers(t *testing.T) {
	instant := time.Date(2026, 1, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-01-10", DateString(instant))

	parsed, err := ParseDate("2026-01-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDate("10/01/2026")
	assert.Error(t, err)
}
