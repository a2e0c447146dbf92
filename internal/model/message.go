package model

import (
	"fmt"
	"time"
)

// CandidateMessage is a parsed search hit that may need a response.
// Immutable after parsing; scoring attaches to ScoredCandidate instead.
type CandidateMessage struct {
	ChannelID      string    `json:"channel_id"`
	ChannelName    string    `json:"channel_name"`
	ThreadID       string    `json:"thread_id"` // root ts when the hit is not threaded
	AuthorID       string    `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	Permalink      string    `json:"permalink"`
	SourceStrategy string    `json:"source_strategy"`
	ReplyCount     int       `json:"reply_count"`
}

// MessageID is the thread-identity key used for deduplication and the
// answered cache: channel_id + ":" + thread_id.
func (m CandidateMessage) MessageID() string {
	return m.ChannelID + ":" + m.ThreadID
}

// RelativeTime renders the message age for notifications ("2h ago").
func (m CandidateMessage) RelativeTime(now time.Time) string {
	diff := now.Sub(m.Timestamp)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

// Signals are the filter-derived facts that fed a candidate's score,
// kept for tie-break audit logs.
type Signals struct {
	IsQuestion   bool `json:"is_question"`
	IsFYI        bool `json:"is_fyi"`
	IsQuoted     bool `json:"is_quoted"`
	HasKeyword   bool `json:"has_keyword"`
	StrategyBase int  `json:"strategy_base"`
}

// ScoredCandidate pairs a candidate with its non-negative priority score.
type ScoredCandidate struct {
	CandidateMessage
	Score   int     `json:"score"`
	Signals Signals `json:"signals"`
}
