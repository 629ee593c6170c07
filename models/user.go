package models

import (
	"time"

	"gorm.io/gorm"
)

// HabitUser is a local snapshot of user data needed by the habit service.
// Owned and managed solely by this service; populated via the profile sync
// worker from the Profile Service. Auth/session issuance lives at the gateway.
type HabitUser struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string     `gorm:"uniqueIndex;not null" json:"external_user_id"` // the profile service's UUID
	Username       string     `gorm:"index;not null" json:"username"`
	Email          string     `json:"email,omitempty"`
	Name           *string    `json:"name,omitempty"`
	AvatarURL      *string    `json:"avatar_url,omitempty"`
	Timezone       *string    `json:"timezone,omitempty"` // informational; streak math is fixed to UTC
	EmailVerified  bool       `gorm:"default:false" json:"email_verified"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
