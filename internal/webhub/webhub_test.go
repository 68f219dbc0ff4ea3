package webhub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webhub-checker/internal/hub"
	"webhub-checker/internal/store"
	"webhub-checker/internal/test"
	"webhub-checker/pkg/tasks"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// tickingClock advances one second on every reading.
type tickingClock struct {
	ticks atomic.Int64
}

func (c *tickingClock) Now() time.Time {
	return baseTime.Add(time.Duration(c.ticks.Add(1)) * time.Second)
}

type fakeHub struct {
	mu       sync.Mutex
	requests []hub.SubscribeRequest
	err      error
}

func (f *fakeHub) Subscribe(ctx context.Context, req hub.SubscribeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.err
}

func newTestService(st store.Store, h HubSubscriber, opts ...Option) *Service {
	clock := &tickingClock{}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(st, h, zerolog.Nop(), opts...)
}

func videoPush(videoID, title string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>YouTube video feed</title>
  <entry>
    <yt:videoId>%s</yt:videoId>
    <yt:channelId>UC123456789</yt:channelId>
    <title>%s</title>
    <author><name>Test Channel</name></author>
    <published>2024-01-01T00:00:00+00:00</published>
  </entry>
</feed>`, videoID, title)
}

func TestCreateSubscription(t *testing.T) {
	st := test.NewMemoryStore()
	h := &fakeHub{}
	svc := newTestService(st, h)

	sub, err := svc.CreateSubscription(context.Background(), "UC123456789", "Test Channel", "https://example.com/webhook")
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "UC123456789", sub.ChannelID)
	assert.Equal(t, "Test Channel", sub.ChannelTitle)
	assert.Equal(t, "https://www.youtube.com/xml/feeds/videos.xml?channel_id=UC123456789", sub.HubTopic)
	assert.Equal(t, 432000, sub.LeaseSeconds)
	assert.Equal(t, 432000*time.Second, sub.ExpiresAt.Sub(sub.CreatedAt))

	require.Len(t, h.requests, 1)
	assert.Equal(t, hub.SubscribeRequest{
		Callback:     "https://example.com/webhook",
		Topic:        sub.HubTopic,
		LeaseSeconds: LeaseSeconds,
	}, h.requests[0])

	assert.True(t, st.Has(store.NamespaceSubscriptions, sub.ID))
	assert.Equal(t, 1, st.Len(store.NamespaceSubscriptions))
	assert.Equal(t, sub, svc.Subscriptions()[0])
}

func TestCreateSubscriptionHubRejected(t *testing.T) {
	st := test.NewMemoryStore()
	h := &fakeHub{err: &hub.RejectedError{StatusCode: http.StatusBadRequest, Body: "bad"}}
	svc := newTestService(st, h)

	_, err := svc.CreateSubscription(context.Background(), "UC1", "", "https://example.com/webhook")

	var rejected *hub.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Len(t, h.requests, 1)
	assert.Zero(t, st.Len(store.NamespaceSubscriptions))
	assert.Empty(t, svc.Subscriptions())
}

func TestCreateSubscriptionStorageFailure(t *testing.T) {
	st := test.NewMemoryStore()
	st.PutErr = errors.New("disk full")
	svc := newTestService(st, &fakeHub{})

	_, err := svc.CreateSubscription(context.Background(), "UC1", "", "https://example.com/webhook")

	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, svc.Subscriptions())
}

func TestCreateSubscriptionRequiresChannel(t *testing.T) {
	h := &fakeHub{}
	svc := newTestService(test.NewMemoryStore(), h)

	_, err := svc.CreateSubscription(context.Background(), "  ", "title", "https://example.com/webhook")

	assert.ErrorIs(t, err, ErrInvalidChannel)
	assert.Empty(t, h.requests)
}

func TestVerifyChallenge(t *testing.T) {
	assert.Equal(t, "abc123", VerifyChallenge("abc123"))
	assert.Equal(t, "No challenge", VerifyChallenge(""))
}

func TestIngest(t *testing.T) {
	st := test.NewMemoryStore()
	svc := newTestService(st, &fakeHub{})

	ok, err := svc.Ingest(context.Background(), videoPush("vid-1", "First video"))
	require.NoError(t, err)
	require.True(t, ok)

	got := svc.Notifications()
	require.Len(t, got, 1)
	n := got[0]
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "vid-1", n.VideoID)
	assert.Equal(t, "First video", n.Title)
	assert.Equal(t, "UC123456789", n.ChannelID)
	assert.Equal(t, "Test Channel", n.ChannelTitle)
	assert.Equal(t, "2024-01-01T00:00:00+00:00", n.PublishedAt)
	assert.False(t, n.ReceivedAt.IsZero())
	assert.True(t, st.Has(store.NamespaceNotifications, n.ID))
}

func TestIngestDefaults(t *testing.T) {
	svc := newTestService(test.NewMemoryStore(), &fakeHub{})

	ok, err := svc.Ingest(context.Background(),
		`<yt:videoId>V</yt:videoId><title>T</title><yt:channelId>C</yt:channelId>`)
	require.NoError(t, err)
	require.True(t, ok)

	n := svc.Notifications()[0]
	assert.Equal(t, "Unknown Channel", n.ChannelTitle)
	assert.Equal(t, n.ReceivedAt.Format("2006-01-02T15:04:05.000Z"), n.PublishedAt)
}

func TestIngestMalformedIsNoop(t *testing.T) {
	st := test.NewMemoryStore()
	enq := &test.MockTaskEnqueuer{}
	svc := newTestService(st, &fakeHub{}, WithEnqueuer(enq))

	payloads := []string{
		"",
		"not xml at all",
		`<title>T</title><yt:channelId>C</yt:channelId>`,
		`<yt:videoId>V</yt:videoId><yt:channelId>C</yt:channelId>`,
		`<yt:videoId>V</yt:videoId><title>T</title>`,
	}
	for _, p := range payloads {
		ok, err := svc.Ingest(context.Background(), p)
		assert.NoError(t, err)
		assert.False(t, ok)
	}

	assert.Empty(t, svc.Notifications())
	assert.Zero(t, st.Len(store.NamespaceNotifications))
	assert.Empty(t, enq.Tasks())
}

func TestIngestCapacity(t *testing.T) {
	for _, n := range []int{1, 99, 100, 101, 250} {
		t.Run(fmt.Sprintf("%d pushes", n), func(t *testing.T) {
			st := test.NewMemoryStore()
			svc := newTestService(st, &fakeHub{})

			for i := 1; i <= n; i++ {
				_, err := svc.Ingest(context.Background(), videoPush(fmt.Sprintf("vid-%d", i), fmt.Sprintf("video %d", i)))
				require.NoError(t, err)
			}

			want := min(n, MaxNotifications)
			got := svc.Notifications()
			require.Len(t, got, want)
			assert.Equal(t, want, st.Len(store.NamespaceNotifications))

			for i, notif := range got {
				assert.Equal(t, fmt.Sprintf("vid-%d", n-i), notif.VideoID)
				assert.True(t, st.Has(store.NamespaceNotifications, notif.ID))
				if i > 0 {
					assert.True(t, got[i-1].ReceivedAt.After(notif.ReceivedAt))
				}
			}
		})
	}
}

func TestIngestEvictionDeleteFailure(t *testing.T) {
	st := test.NewMemoryStore()
	svc := newTestService(st, &fakeHub{})
	for i := 0; i < MaxNotifications; i++ {
		_, err := svc.Ingest(context.Background(), videoPush(fmt.Sprintf("vid-%d", i), "t"))
		require.NoError(t, err)
	}

	st.DeleteErr = errors.New("timeout")
	ok, err := svc.Ingest(context.Background(), videoPush("latest", "t"))

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, svc.Notifications(), MaxNotifications)
	assert.Equal(t, "latest", svc.Notifications()[0].VideoID)
}

func TestIngestStorageFailure(t *testing.T) {
	st := test.NewMemoryStore()
	st.PutErr = errors.New("disk full")
	enq := &test.MockTaskEnqueuer{}
	svc := newTestService(st, &fakeHub{}, WithEnqueuer(enq))

	ok, err := svc.Ingest(context.Background(), videoPush("vid", "t"))

	assert.ErrorIs(t, err, ErrStorage)
	assert.False(t, ok)
	assert.Empty(t, svc.Notifications())
	assert.Empty(t, enq.Tasks())
}

func TestIngestEnqueuesTask(t *testing.T) {
	enq := &test.MockTaskEnqueuer{}
	svc := newTestService(test.NewMemoryStore(), &fakeHub{}, WithEnqueuer(enq))

	_, err := svc.Ingest(context.Background(), videoPush("vid-9", "Nine"))
	require.NoError(t, err)

	require.Len(t, enq.Tasks(), 1)
	assert.Equal(t, tasks.TypeNotificationReceived, enq.Tasks()[0].Type())

	enq.Err = errors.New("redis down")
	ok, err := svc.Ingest(context.Background(), videoPush("vid-10", "Ten"))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, svc.Notifications(), 2)
}

func TestIngestConcurrent(t *testing.T) {
	st := test.NewMemoryStore()
	svc := newTestService(st, &fakeHub{})

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, err := svc.Ingest(context.Background(), videoPush(fmt.Sprintf("vid-%d-%d", g, i), "t"))
				assert.NoError(t, err)
				assert.LessOrEqual(t, len(svc.Notifications()), MaxNotifications)
			}
		}(g)
	}
	wg.Wait()

	got := svc.Notifications()
	assert.Len(t, got, MaxNotifications)
	assert.Equal(t, MaxNotifications, st.Len(store.NamespaceNotifications))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].ReceivedAt.After(got[i].ReceivedAt), "log must stay newest-first")
	}
}
