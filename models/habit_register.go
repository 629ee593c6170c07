package models

import (
	"time"
)

// HabitRegister is one completion record in the append-only log. The unique
// index on (habit_id, date) is the authoritative guard against duplicate
// same-day completions; everything above it is best-effort decoration.
type HabitRegister struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	HabitID   string    `gorm:"uniqueIndex:idx_habit_register_day;not null" json:"habit_id"`
	Date      string    `gorm:"type:date;uniqueIndex:idx_habit_register_day;not null" json:"date"` // YYYY-MM-DD, UTC calendar date
	Completed bool      `gorm:"default:true" json:"completed"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
