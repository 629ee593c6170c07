package models

import (
	"time"

	"gorm.io/gorm"
)

type HabitFrequency string

const (
	FrequencyDaily  HabitFrequency = "daily"
	FrequencyWeekly HabitFrequency = "weekly"
)

// Habit belongs to exactly one user (by external ID). Streak fields are
// mutated only by the streak recompute that runs inside a completion write;
// LongestStreak only ever ratchets forward.
type Habit struct {
	ID             string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string         `gorm:"index;not null" json:"external_user_id"`
	Title          string         `gorm:"size:100;not null" json:"title"`
	Slug           string         `gorm:"size:120;index" json:"slug"`
	Description    string         `gorm:"size:255" json:"description,omitempty"`
	Frequency      HabitFrequency `gorm:"type:varchar(8);default:'daily'" json:"frequency"`

	CurrentStreak int `gorm:"default:0" json:"current_streak"`
	LongestStreak int `gorm:"default:0" json:"longest_streak"`

	// Last calendar date (YYYY-MM-DD, UTC) with a completed register.
	LastCompletedDate *string `gorm:"type:date" json:"last_completed_date,omitempty"`

	// Flower shown in the client garden (1-15).
	PlantNumber int `gorm:"default:1" json:"plant_number"`

	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Registers []HabitRegister `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE" json:"-"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
