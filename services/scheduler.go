package services

import (
	"log"
	"time"

	"habit-garden-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartStreakExpiryScheduler runs the hourly job that zeroes the displayed
// streak of habits whose window lapsed without a completion. Without it a
// broken streak would keep showing until the user's next completion forced a
// recompute.
func (s *RegisterService) StartStreakExpiryScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			now := time.Now()
			s.expireLapsedStreaks(models.FrequencyDaily, DateString(now.AddDate(0, 0, -1)))
			s.expireLapsedStreaks(models.FrequencyWeekly, WeekStart(now.AddDate(0, 0, -7)))
		}),
	)
}

// expireLapsedStreaks resets current_streak for habits of one frequency whose
// last completed date is older than the still-alive cutoff (yesterday for
// daily, last week's Monday for weekly). longest_streak is untouched — it
// only ever ratchets.
func (s *RegisterService) expireLapsedStreaks(freq models.HabitFrequency, cutoff string) {
	res := s.DB.Model(&models.Habit{}).
		Where("frequency = ? AND current_streak > 0 AND last_completed_date < ?", freq, cutoff).
		Update("current_streak", 0)
	if res.Error != nil {
		log.Printf("[Scheduler] Streak expiry failed (%s): %v", freq, res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Expired %d lapsed %s streak(s)", res.RowsAffected, freq)
	}
}
