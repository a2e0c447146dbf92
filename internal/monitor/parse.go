package monitor

import (
	"net/url"
	"regexp"
	"strconv"
	"time"

	"threadwatch.app/scout/internal/model"
)

// RawMessage is the wire shape of one search hit from the messaging
// platform. Only the fields the pipeline reads are declared.
type RawMessage struct {
	Type       string     `json:"type"`
	Subtype    string     `json:"subtype"`
	TS         string     `json:"ts"`
	ThreadTS   string     `json:"thread_ts"`
	Text       string     `json:"text"`
	User       string     `json:"user"`
	Username   string     `json:"username"`
	BotID      string     `json:"bot_id"`
	Permalink  string     `json:"permalink"`
	ReplyCount int        `json:"reply_count"`
	Channel    RawChannel `json:"channel"`
}

type RawChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Permalinks embed the thread timestamp either as a query parameter or
// as a /p<10 digits><6 digits> path segment.
var permalinkThreadRe = regexp.MustCompile(`/p(\d{10})(\d{6})(?:\?|$)`)

// ParseMessage converts a raw search hit into a CandidateMessage, tagging
// it with the strategy that produced it. Returns false when the hit lacks
// the fields required for thread identity.
func ParseMessage(raw RawMessage, strategy SearchStrategy) (model.CandidateMessage, bool) {
	if raw.TS == "" || raw.Channel.ID == "" {
		return model.CandidateMessage{}, false
	}

	threadID := raw.ThreadTS
	if threadID == "" {
		threadID = extractThreadTS(raw.Permalink)
	}
	if threadID == "" {
		// Unthreaded hit: the root timestamp is the thread identity.
		threadID = raw.TS
	}

	return model.CandidateMessage{
		ChannelID:      raw.Channel.ID,
		ChannelName:    raw.Channel.Name,
		ThreadID:       threadID,
		AuthorID:       raw.User,
		AuthorName:     raw.Username,
		Text:           raw.Text,
		Timestamp:      parseTimestamp(raw.TS),
		Permalink:      raw.Permalink,
		SourceStrategy: strategy.Name,
		ReplyCount:     raw.ReplyCount,
	}, true
}

// parseTimestamp reads the platform's epoch-with-microseconds ts field.
// Unparseable values fall back to now so a single malformed hit cannot
// poison the cycle.
func parseTimestamp(ts string) time.Time {
	epoch, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Now().UTC()
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// extractThreadTS pulls the thread timestamp out of a permalink URL.
func extractThreadTS(permalink string) string {
	if permalink == "" {
		return ""
	}

	if u, err := url.Parse(permalink); err == nil {
		if ts := u.Query().Get("thread_ts"); ts != "" {
			return ts
		}
	}

	if m := permalinkThreadRe.FindStringSubmatch(permalink); m != nil {
		return m[1] + "." + m[2]
	}

	return ""
}
