package models

import "time"

// Notification is a single video update pushed by the hub.
type Notification struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	VideoID      string    `json:"videoId"`
	Title        string    `json:"title"`
	PublishedAt  string    `json:"publishedAt"`
	ChannelTitle string    `json:"channelTitle"`
	ReceivedAt   time.Time `json:"receivedAt"`
}
