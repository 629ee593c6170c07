package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// NotificationClient posts "reward unlocked" events to the external
// notification service, which owns delivery. The reward service calls this
// fire-and-forget after fresh unlocks; the completion path never blocks on it.
type NotificationClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewNotificationClient(baseURL, token string) *NotificationClient {
	return &NotificationClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type rewardUnlockedEvent struct {
	UserID  string           `json:"user_id"`
	Event   string           `json:"event"`
	Rewards []UnlockedReward `json:"rewards"`
}

// NotifyRewardsUnlocked tells the notification service a user earned badges.
// Errors are the caller's to ignore — delivery is best-effort by contract.
func (c *NotificationClient) NotifyRewardsUnlocked(userID string, rewards []UnlockedReward) error {
	if len(rewards) == 0 {
		return nil
	}

	payload, _ := json.Marshal(rewardUnlockedEvent{
		UserID:  userID,
		Event:   "rewards_unlocked",
		Rewards: rewards,
	})

	url := fmt.Sprintf("%s/notifications/events", c.BaseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Printf("Notification service returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("notification service responded %d", resp.StatusCode)
	}
	return nil
}
