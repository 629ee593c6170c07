package services

import (
	"sort"
	"time"

	"habit-garden-system/models"
)

// Streak math works on calendar dates in a fixed reference timezone (UTC),
// never on wall-clock instants, so a completion at 23:59 and one at 00:01
// land on the days the user actually saw.

const dayLayout = "2006-01-02"

// DateString normalizes an instant to its UTC calendar date.
func DateString(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight instant.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, time.UTC)
}

// WeekStart returns the Monday of t's ISO week as a UTC calendar date, the
// canonical key for weekly-frequency streaks.
func WeekStart(t time.Time) string {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return DateString(t.AddDate(0, 0, -offset))
}

// StreakResult is the output of one recompute.
type StreakResult struct {
	CurrentStreak int
	LongestStreak int
}

// ComputeStreak walks a habit's completion history and returns the refreshed
// streak pair. history must contain only completed dates (YYYY-MM-DD); order
// and duplicates don't matter, the walk sorts and dedupes. prevLongest is the
// habit's stored longest streak — it only ever ratchets forward, so a streak
// broken and rebuilt can never overstate the historical maximum.
//
// Anchor rule: the count starts at today when today is completed, otherwise
// at yesterday — a habit done yesterday but not yet today still shows a live
// streak until the day fully elapses. The walk then expects exact consecutive
// dates going backward; a date later than expected is stray data and is
// skipped, a date earlier than expected is a gap and ends the streak.
func ComputeStreak(today time.Time, history []string, prevLongest int) StreakResult {
	dates := uniqueSortedDesc(history)
	current := countConsecutive(
		DateString(today),
		DateString(today.AddDate(0, 0, -1)),
		dates,
		-1,
	)
	return ratchet(current, prevLongest)
}

// ComputeWeeklyStreak is the weekly-frequency analog: dates collapse to their
// ISO week's Monday and the anchor is this week, falling back to last week.
func ComputeWeeklyStreak(today time.Time, history []string, prevLongest int) StreakResult {
	weeks := make([]string, 0, len(history))
	for _, d := range history {
		t, err := ParseDate(d)
		if err != nil {
			continue
		}
		weeks = append(weeks, WeekStart(t))
	}

	current := countConsecutive(
		WeekStart(today),
		WeekStart(today.UTC().AddDate(0, 0, -7)),
		uniqueSortedDesc(weeks),
		-7,
	)
	return ratchet(current, prevLongest)
}

func ratchet(current, prevLongest int) StreakResult {
	longest := prevLongest
	if current > longest {
		longest = current
	}
	return StreakResult{CurrentStreak: current, LongestStreak: longest}
}

// countConsecutive runs the backward walk shared by both frequencies over
// sorted-descending unique date keys, stepping the expected date back by
// stepDays per match.
func countConsecutive(anchor, fallback string, keys []string, stepDays int) int {
	if len(keys) == 0 {
		return 0
	}

	// Anchor at today only if today actually appears; stray keys sorted
	// ahead of it must not force the fallback.
	expected := fallback
	for _, k := range keys {
		if k == anchor {
			expected = anchor
			break
		}
		if k < anchor {
			break
		}
	}

	streak := 0
	for _, k := range keys {
		if k > expected {
			// Stray data ahead of the walk (backfill noise, duplicates):
			// skip without counting or breaking.
			continue
		}
		if k < expected {
			break
		}
		streak++
		t, err := ParseDate(expected)
		if err != nil {
			break
		}
		expected = DateString(t.AddDate(0, 0, stepDays))
	}
	return streak
}

func uniqueSortedDesc(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	dedup := out[:1]
	for _, s := range out[1:] {
		if s != dedup[len(dedup)-1] {
			dedup = append(dedup, s)
		}
	}
	return dedup
}

// UpdateHabitStreak recomputes and persists a habit's streak fields from its
// completed registers. Called only as part of a completion write or the
// streak-expiry job; nothing else touches these fields.
func (s *RegisterService) UpdateHabitStreak(habit *models.Habit, now time.Time) error {
	var dates []string
	if err := s.DB.Model(&models.HabitRegister{}).
		Where("habit_id = ? AND completed = ?", habit.ID, true).
		Order("date DESC").
		Pluck("date", &dates).Error; err != nil {
		return err
	}

	var res StreakResult
	if habit.Frequency == models.FrequencyWeekly {
		res = ComputeWeeklyStreak(now, dates, habit.LongestStreak)
	} else {
		res = ComputeStreak(now, dates, habit.LongestStreak)
	}

	habit.CurrentStreak = res.CurrentStreak
	habit.LongestStreak = res.LongestStreak
	if len(dates) > 0 {
		last := dates[0]
		habit.LastCompletedDate = &last
	}

	return s.DB.Model(&models.Habit{}).
		Where("id = ?", habit.ID).
		Updates(map[string]interface{}{
			"current_streak":      habit.CurrentStreak,
			"longest_streak":      habit.LongestStreak,
			"last_completed_date": habit.LastCompletedDate,
		}).Error
}
