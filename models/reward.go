package models

import (
	"fmt"
	"time"
)

// RewardType is the metric category a reward threshold is evaluated against.
type RewardType string

const (
	RewardTypeStreak           RewardType = "streak"
	RewardTypeHabitCount       RewardType = "habit_count"
	RewardTypeTotalCompletions RewardType = "total_completions"
)

// RewardTier is an ordinal rarity label, lowest to highest.
type RewardTier string

const (
	TierStarter   RewardTier = "starter"
	TierCommon    RewardTier = "common"
	TierUncommon  RewardTier = "uncommon"
	TierRare      RewardTier = "rare"
	TierRarePlus  RewardTier = "rare_plus"
	TierEpic      RewardTier = "epic"
	TierEpicPlus  RewardTier = "epic_plus"
	TierLegendary RewardTier = "legendary"
	TierMythic    RewardTier = "mythic"
	TierUltimate  RewardTier = "ultimate"
)

// Reward is one immutable catalog entry. Rows are seed data keyed by Code;
// the service treats the table as read-only after startup.
type Reward struct {
	ID          string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null" json:"code"` // e.g. "streak_day_6_gem9_v3"
	Name        string     `gorm:"not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Type        RewardType `gorm:"type:varchar(24);not null;index" json:"type"`
	Tier        RewardTier `gorm:"type:varchar(16);not null" json:"tier"`
	Icon        string     `json:"icon"`                // gem number within the variant sheet
	IconURL     string     `gorm:"type:text" json:"icon_url,omitempty"` // CDN URL once uploaded
	Variant     int        `json:"variant"`             // gem art variant (3=basic, 2=improved, 1=supreme)
	Requirement int        `gorm:"not null" json:"requirement"`
	OrderIndex  int        `gorm:"default:0" json:"order_index"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// gem returns one streak-gem catalog entry. Gems unlock every third day of a
// streak; each 30-day month uses a different art variant.
func gem(day, icon, variant, order int, tier RewardTier, name, desc string) Reward {
	return Reward{
		Code:        streakGemCode(day, icon, variant),
		Name:        name,
		Description: desc,
		Type:        RewardTypeStreak,
		Tier:        tier,
		Icon:        fmt.Sprintf("%d", icon),
		Variant:     variant,
		Requirement: day,
		OrderIndex:  order,
		IsActive:    true,
	}
}

func streakGemCode(day, icon, variant int) string {
	return fmt.Sprintf("streak_day_%d_gem%d_v%d", day, icon, variant)
}

var gemTiers = []RewardTier{
	TierStarter, TierCommon, TierUncommon, TierRare, TierRarePlus,
	TierEpic, TierEpicPlus, TierLegendary, TierMythic, TierUltimate,
}

// streakGems builds one month of gem rewards: ten gems, one every three days,
// descending icon numbers 10..1, tiers ascending starter..ultimate.
func streakGems(startDay, variant, startOrder int, monthLabel string) []Reward {
	out := make([]Reward, 0, 10)
	for i := 0; i < 10; i++ {
		day := startDay + i*3
		icon := 10 - i
		name := fmt.Sprintf("%s %d", monthLabel, day)
		desc := fmt.Sprintf("Streak gem for %d consecutive days", day)
		tier := gemTiers[i]
		out = append(out, gem(day, icon, variant, startOrder+i, tier, name, desc))
	}
	return out
}

// RewardCatalogSeed is the static reward catalog. Seeded idempotently by Code
// at startup; never mutated at runtime.
var RewardCatalogSeed = buildRewardCatalogSeed()

func buildRewardCatalogSeed() []Reward {
	var rewards []Reward

	// Month 1-3: streak gems, one every third day up to 90.
	rewards = append(rewards, streakGems(3, 3, 1, "🔥 Day")...)
	rewards = append(rewards, streakGems(33, 2, 11, "💎 Day")...)
	rewards = append(rewards, streakGems(63, 1, 21, "⭐ Day")...)

	// Habit collection milestones.
	habitCounts := []struct {
		req  int
		tier RewardTier
		name string
	}{
		{1, TierStarter, "First Seed"},
		{3, TierCommon, "Small Garden"},
		{5, TierRare, "Growing Garden"},
		{10, TierEpic, "Full Greenhouse"},
	}
	for i, hc := range habitCounts {
		rewards = append(rewards, Reward{
			Code:        fmt.Sprintf("habit_count_%d", hc.req),
			Name:        hc.name,
			Description: fmt.Sprintf("Keep %d active habits", hc.req),
			Type:        RewardTypeHabitCount,
			Tier:        hc.tier,
			Icon:        "🌱",
			Requirement: hc.req,
			OrderIndex:  31 + i,
			IsActive:    true,
		})
	}

	// Lifetime completion milestones across all habits.
	completions := []struct {
		req  int
		tier RewardTier
		name string
	}{
		{1, TierStarter, "First Step"},
		{10, TierCommon, "Ten Done"},
		{50, TierUncommon, "Fifty Done"},
		{100, TierEpic, "Century"},
		{365, TierLegendary, "A Year of Work"},
	}
	for i, tc := range completions {
		rewards = append(rewards, Reward{
			Code:        fmt.Sprintf("total_completions_%d", tc.req),
			Name:        tc.name,
			Description: fmt.Sprintf("Complete habits %d times in total", tc.req),
			Type:        RewardTypeTotalCompletions,
			Tier:        tc.tier,
			Icon:        "🏆",
			Requirement: tc.req,
			OrderIndex:  41 + i,
			IsActive:    true,
		})
	}

	return rewards
}
