package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"webhub-checker/internal/feed"
	"webhub-checker/pkg/tasks"
)

type TaskHandler struct {
	log zerolog.Logger
}

func NewTaskHandler(logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{log: logger}
}

// HandleNotificationReceivedTask logs a newly received video. A payload
// without a video id can never succeed and is not retried.
func (h *TaskHandler) HandleNotificationReceivedTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.NotificationReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.VideoID == "" {
		return fmt.Errorf("notification %s has no video id: %w", p.NotificationID, asynq.SkipRetry)
	}

	h.log.Info().
		Str("notification_id", p.NotificationID).
		Str("channel_id", p.ChannelID).
		Str("channel_title", p.ChannelTitle).
		Str("video_id", p.VideoID).
		Str("published_at", p.PublishedAt).
		Time("received_at", p.ReceivedAt).
		Str("url", feed.WatchURL(p.VideoID)).
		Msgf("new video: %s", p.Title)
	return nil
}
