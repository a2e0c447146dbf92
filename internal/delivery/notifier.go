// Package delivery renders and posts outbound chat messages: review
// notifications to the owner and approved answers into the original
// thread.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/internal/model"
	"threadwatch.app/scout/internal/platform"
)

// Poster is the posting half of the platform client.
type Poster interface {
	PostMessage(ctx context.Context, post platform.PostRequest) (string, error)
}

type Notifier struct {
	poster       Poster
	ownerChannel string
}

func NewNotifier(poster Poster, ownerChannel string) *Notifier {
	return &Notifier{
		poster:       poster,
		ownerChannel: ownerChannel,
	}
}

// NotifyDraft sends the owner a review card for a pending approval:
// the detected question, the draft answer, a quality gauge, and the
// approve/edit/reject buttons carrying the approval ID.
func (n *Notifier) NotifyDraft(ctx context.Context, pending model.PendingApproval, totalCriteria int) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ApprovalID: logger.Ptr(pending.ApprovalID),
		MessageID:  logger.Ptr(pending.MessageID),
		Component:  "scout.delivery",
	})

	c := pending.Candidate
	header := fmt.Sprintf("Unanswered question in #%s", c.ChannelName)
	gauge := qualityGauge(pending.QualityScore, totalCriteria)

	blocks := []map[string]any{
		headerBlock(header),
		sectionBlock(fmt.Sprintf("*%s* asked %s:\n> %s",
			c.AuthorName, c.RelativeTime(time.Now()), logger.Truncate(c.Text, 500))),
		sectionBlock("*Draft answer:*\n" + pending.Draft),
		contextBlock(fmt.Sprintf("Quality %s %d/%d  |  Priority %d  |  <%s|View thread>",
			gauge, pending.QualityScore, totalCriteria, c.Score, c.Permalink)),
		actionsBlock(pending.ApprovalID),
	}

	fallback := fmt.Sprintf("Draft answer for #%s: %s", c.ChannelName, logger.Truncate(pending.Draft, 200))
	_, err := n.poster.PostMessage(ctx, platform.PostRequest{
		Channel: n.ownerChannel,
		Text:    fallback,
		Blocks:  blocks,
	})
	if err != nil {
		return fmt.Errorf("notifying draft %s: %w", pending.ApprovalID, err)
	}

	slog.InfoContext(ctx, "review notification sent", "quality_score", pending.QualityScore)
	return nil
}

// NotifyError tells the owner an investigation failed so the question
// is not silently dropped.
func (n *Notifier) NotifyError(ctx context.Context, candidate model.ScoredCandidate, cause error) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(candidate.MessageID()),
		Component: "scout.delivery",
	})

	blocks := []map[string]any{
		headerBlock("Investigation failed"),
		sectionBlock(fmt.Sprintf("Could not draft an answer for *%s* in #%s:\n> %s",
			candidate.AuthorName, candidate.ChannelName, logger.Truncate(candidate.Text, 500))),
		contextBlock(fmt.Sprintf("%v  |  <%s|View thread>", cause, candidate.Permalink)),
	}

	_, err := n.poster.PostMessage(ctx, platform.PostRequest{
		Channel: n.ownerChannel,
		Text:    "Investigation failed for a question in #" + candidate.ChannelName,
		Blocks:  blocks,
	})
	if err != nil {
		return fmt.Errorf("notifying error for %s: %w", candidate.MessageID(), err)
	}
	return nil
}

// PostAnswer publishes the approved text as a reply in the original
// thread and returns the posted timestamp.
func (n *Notifier) PostAnswer(ctx context.Context, candidate model.ScoredCandidate, text string) (string, error) {
	ts, err := n.poster.PostMessage(ctx, platform.PostRequest{
		Channel:  candidate.ChannelID,
		ThreadTS: candidate.ThreadID,
		Text:     text,
	})
	if err != nil {
		return "", fmt.Errorf("posting answer to %s: %w", candidate.MessageID(), err)
	}
	return ts, nil
}

// qualityGauge renders passed/total as a fixed-width bar, e.g. [####--].
func qualityGauge(passed, total int) string {
	if total <= 0 {
		return "[------]"
	}
	const width = 6
	filled := passed * width / total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func headerBlock(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": text},
	}
}

func sectionBlock(text string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}

func contextBlock(text string) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{"type": "mrkdwn", "text": text},
		},
	}
}

func actionsBlock(approvalID string) map[string]any {
	button := func(label, action, style string) map[string]any {
		b := map[string]any{
			"type":      "button",
			"text":      map[string]any{"type": "plain_text", "text": label},
			"action_id": action,
			"value":     approvalID,
		}
		if style != "" {
			b["style"] = style
		}
		return b
	}
	return map[string]any{
		"type": "actions",
		"elements": []map[string]any{
			button("Approve", string(model.ActionApprove), "primary"),
			button("Edit", string(model.ActionEdit), ""),
			button("Reject", string(model.ActionReject), "danger"),
		},
	}
}
