package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationReceived = "notification:received"
)

type NotificationReceivedPayload struct {
	NotificationID string
	ChannelID      string
	ChannelTitle   string
	VideoID        string
	Title          string
	PublishedAt    string
	ReceivedAt     time.Time
}

func NewNotificationReceivedTask(p NotificationReceivedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeNotificationReceived, payload), nil
}
