package models

import "time"

// Subscription represents an acknowledged hub subscription to a YouTube channel feed.
type Subscription struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle"`
	HubTopic     string    `json:"hubTopic"`
	LeaseSeconds int       `json:"leaseSeconds"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Expired reports whether the lease has run out at t.
func (s Subscription) Expired(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}
