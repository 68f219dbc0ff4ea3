package feed

import (
	"regexp"
	"strings"
	"time"
)

const (
	// UnknownChannel is used when the push carries no author name.
	UnknownChannel = "Unknown Channel"

	// TimestampFormat is the millisecond UTC layout used for defaulted timestamps.
	TimestampFormat = "2006-01-02T15:04:05.000Z"
)

var (
	videoIDPattern   = regexp.MustCompile(`<yt:videoId>([^<]+)</yt:videoId>`)
	titlePattern     = regexp.MustCompile(`<title>([^<]+)</title>`)
	channelIDPattern = regexp.MustCompile(`<yt:channelId>([^<]+)</yt:channelId>`)
	publishedPattern = regexp.MustCompile(`<published>([^<]+)</published>`)
	namePattern      = regexp.MustCompile(`<name>([^<]+)</name>`)
)

// Entry holds the fields extracted from one pushed feed update.
type Entry struct {
	VideoID      string
	Title        string
	ChannelID    string
	PublishedAt  string
	ChannelTitle string
}

// ParseEntry extracts a video entry from a hub push. It is a best-effort
// field search, not an XML parse: each field is located independently.
// The payload must carry a video id, a title and a channel id. PublishedAt
// and ChannelTitle are left empty when absent; see WithDefaults.
func ParseEntry(payload string) (Entry, bool) {
	// Atom pushes carry a feed-level <title> before the entry.
	if i := strings.Index(payload, "<entry>"); i >= 0 {
		payload = payload[i:]
	}

	videoID, ok := match(videoIDPattern, payload)
	if !ok {
		return Entry{}, false
	}
	title, ok := match(titlePattern, payload)
	if !ok {
		return Entry{}, false
	}
	channelID, ok := match(channelIDPattern, payload)
	if !ok {
		return Entry{}, false
	}

	entry := Entry{VideoID: videoID, Title: title, ChannelID: channelID}
	entry.PublishedAt, _ = match(publishedPattern, payload)
	entry.ChannelTitle, _ = match(namePattern, payload)
	return entry, true
}

// WithDefaults fills a missing publish time with now and a missing author
// with UnknownChannel.
func (e Entry) WithDefaults(now time.Time) Entry {
	if e.PublishedAt == "" {
		e.PublishedAt = now.UTC().Format(TimestampFormat)
	}
	if e.ChannelTitle == "" {
		e.ChannelTitle = UnknownChannel
	}
	return e
}

func match(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
