package models

import (
	"time"
)

// UserReward records one unlocked reward. First-crossing-only: the unique
// index on (external_user_id, reward_id) makes a grant happen at most once
// per user, whatever the evaluator believed at check time. Rows are never
// deleted; only Viewed flips after creation.
type UserReward struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_user_reward_once;not null" json:"external_user_id"`
	RewardID       string    `gorm:"uniqueIndex:idx_user_reward_once;not null" json:"reward_id"`
	Reward         *Reward   `gorm:"foreignKey:RewardID" json:"reward,omitempty"`

	// Habit whose streak triggered the grant; display only, empty for
	// habit_count and total_completions rewards.
	RelatedHabitID *string `gorm:"type:uuid" json:"related_habit_id,omitempty"`

	EarnedAt time.Time `json:"earned_at" gorm:"autoCreateTime"`
	Viewed   bool      `gorm:"default:false;index" json:"viewed"`
}
