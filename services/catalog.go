package services

import (
	"sort"

	"habit-garden-system/models"
)

// RewardCatalog is the process-wide reward table: loaded once from the DB
// after seeding, then read-only. No locking needed — nothing mutates it after
// LoadRewardCatalog returns.
type RewardCatalog struct {
	byCode map[string]*models.Reward
	byType map[models.RewardType][]*models.Reward
	all    []*models.Reward
}

// NewRewardCatalog indexes active rewards by code and by type. Type buckets
// are sorted ascending by requirement so the evaluator grants intermediate
// thresholds in order when a metric jumps several at once.
func NewRewardCatalog(rewards []models.Reward) *RewardCatalog {
	c := &RewardCatalog{
		byCode: make(map[string]*models.Reward, len(rewards)),
		byType: make(map[models.RewardType][]*models.Reward),
	}
	for i := range rewards {
		r := &rewards[i]
		if !r.IsActive {
			continue
		}
		c.byCode[r.Code] = r
		c.byType[r.Type] = append(c.byType[r.Type], r)
		c.all = append(c.all, r)
	}
	for _, bucket := range c.byType {
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].Requirement < bucket[j].Requirement
		})
	}
	sort.Slice(c.all, func(i, j int) bool {
		return c.all[i].OrderIndex < c.all[j].OrderIndex
	})
	return c
}

// ByCode returns the catalog entry for code, or nil.
func (c *RewardCatalog) ByCode(code string) *models.Reward {
	return c.byCode[code]
}

// ByType returns the entries of one category, ascending by requirement.
func (c *RewardCatalog) ByType(t models.RewardType) []*models.Reward {
	return c.byType[t]
}

// All returns every active entry ordered by display index.
func (c *RewardCatalog) All() []*models.Reward {
	return c.all
}

// Qualifying returns the entries of one category whose requirement is met by
// metric and whose ID is not already in earned. Pure: the evaluator decides
// here, the DB write happens in the caller.
func (c *RewardCatalog) Qualifying(t models.RewardType, metric int, earned map[string]bool) []*models.Reward {
	var out []*models.Reward
	for _, r := range c.byType[t] {
		if r.Requirement > metric {
			break // bucket is sorted ascending, nothing further qualifies
		}
		if earned[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Len reports how many active entries the catalog holds.
func (c *RewardCatalog) Len() int {
	return len(c.all)
}
