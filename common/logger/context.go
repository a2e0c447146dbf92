package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so business context (message_id,
// approval_id, review round, etc.) is included without touching call sites.
type LogFields struct {
	MessageID  *string // Thread identity key (channel_id:thread_id)
	ChannelID  *string // Channel the candidate was found in
	Strategy   *string // Search strategy that surfaced the candidate
	ApprovalID *string // Pending approval token
	Round      *int    // Quality review round
	Component  string  // Component name (e.g., "scout.engine.quality")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.ChannelID != nil {
		result.ChannelID = next.ChannelID
	}
	if next.Strategy != nil {
		result.Strategy = next.Strategy
	}
	if next.ApprovalID != nil {
		result.ApprovalID = next.ApprovalID
	}
	if next.Round != nil {
		result.Round = next.Round
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like drafts or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
