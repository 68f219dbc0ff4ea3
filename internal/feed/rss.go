package feed

import (
	"fmt"
	"net/http"
	"time"

	"github.com/eduncan911/podcast"
	"webhub-checker/internal/models"
)

// BaseURL returns the public origin of the service. A configured base URL
// wins; otherwise it is derived from the request.
func BaseURL(configured string, r *http.Request) string {
	if configured != "" {
		return configured
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// WatchURL is the public YouTube page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// GenerateRSS renders the notification log as an RSS 2.0 document.
func GenerateRSS(notifications []models.Notification, baseURL string, now time.Time) (string, error) {
	p := podcast.New(
		"WebHub notifications",
		baseURL+"/rss",
		"Videos pushed by the WebSub hub for subscribed YouTube channels.",
		nil, &now,
	)

	for _, n := range notifications {
		pubDate := n.ReceivedAt
		if t, err := time.Parse(time.RFC3339, n.PublishedAt); err == nil {
			pubDate = t
		}
		item := podcast.Item{
			Title:       n.Title,
			Description: fmt.Sprintf("New video from %s", n.ChannelTitle),
			Link:        WatchURL(n.VideoID),
			PubDate:     &pubDate,
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add item %s: %w", n.VideoID, err)
		}
	}

	return p.String(), nil
}
