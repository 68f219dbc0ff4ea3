// Package hub talks to a WebSub (PubSubHubbub) hub on behalf of the subscriber.
package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultURL is Google's public hub used by YouTube feeds.
	DefaultURL = "https://pubsubhubbub.appspot.com/subscribe"

	topicBase = "https://www.youtube.com/xml/feeds/videos.xml?channel_id="
)

// TopicURL returns the canonical feed topic for a YouTube channel.
func TopicURL(channelID string) string {
	return topicBase + url.QueryEscape(channelID)
}

// SubscribeRequest describes one subscribe call.
type SubscribeRequest struct {
	Callback     string
	Topic        string
	LeaseSeconds int
}

// RejectedError is returned when the hub declines a request or cannot be
// reached. StatusCode is zero for transport failures.
type RejectedError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hub unreachable: %v", e.Err)
	}
	return fmt.Sprintf("hub rejected request with status %d: %s", e.StatusCode, e.Body)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Client sends subscribe requests to a single hub endpoint.
type Client struct {
	httpClient *http.Client
	hubURL     string
}

func NewClient(hubURL string) *Client {
	if hubURL == "" {
		hubURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		hubURL:     hubURL,
	}
}

// Subscribe makes a single synchronous-verification subscribe request.
// Any 2xx answer counts as acceptance.
func (c *Client) Subscribe(ctx context.Context, req SubscribeRequest) error {
	form := url.Values{}
	form.Set("hub.callback", req.Callback)
	form.Set("hub.topic", req.Topic)
	form.Set("hub.verify", "sync")
	form.Set("hub.mode", "subscribe")
	form.Set("hub.lease_seconds", strconv.Itoa(req.LeaseSeconds))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build hub request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RejectedError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read response body (limit to 1KB)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RejectedError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
