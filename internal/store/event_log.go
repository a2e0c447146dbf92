// Package store persists the analytics trail: every question the
// pipeline surfaced, every investigation outcome, and every human
// decision. Feeds later tuning of keywords and scoring weights.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"threadwatch.app/scout/core/db"
	"threadwatch.app/scout/internal/model"
)

var ErrNotFound = errors.New("record not found")

type EventLog struct {
	db *db.DB
}

func NewEventLog(database *db.DB) *EventLog {
	return &EventLog{db: database}
}

// RecordQuestion logs a candidate that survived ranking.
func (s *EventLog) RecordQuestion(ctx context.Context, c model.ScoredCandidate) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO questions (message_id, channel_id, channel_name, author_name, text, score, strategy, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (message_id) DO UPDATE SET score = EXCLUDED.score, strategy = EXCLUDED.strategy`,
		c.MessageID(), c.ChannelID, c.ChannelName, c.AuthorName, c.Text, c.Score, c.SourceStrategy, c.Timestamp)
	if err != nil {
		return fmt.Errorf("recording question %s: %w", c.MessageID(), err)
	}
	return nil
}

// RecordInvestigation logs the outcome of one investigation run.
func (s *EventLog) RecordInvestigation(ctx context.Context, messageID string, result model.InvestigationResult) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO investigations (message_id, quality_score, total_criteria, rounds_used, accepted, draft)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		messageID, result.QualityScore, result.TotalCriteria, result.RoundsUsed, result.Accepted, result.FinalDraft)
	if err != nil {
		return fmt.Errorf("recording investigation %s: %w", messageID, err)
	}
	return nil
}

// RecordResolution logs the human decision on a pending approval,
// including edited text when the reviewer rewrote the draft.
func (s *EventLog) RecordResolution(ctx context.Context, pending model.PendingApproval, action model.Action, userID, finalText string) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO resolutions (approval_id, message_id, action, resolved_by, draft, final_text)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			pending.ApprovalID, pending.MessageID, string(action), userID, pending.Draft, finalText)
		if err != nil {
			return fmt.Errorf("recording resolution %s: %w", pending.ApprovalID, err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE questions SET resolved_action = $2 WHERE message_id = $1`,
			pending.MessageID, string(action))
		if err != nil {
			return fmt.Errorf("marking question resolved %s: %w", pending.MessageID, err)
		}
		return nil
	})
}

// ActionCounts aggregates resolutions per action over the whole trail.
func (s *EventLog) ActionCounts(ctx context.Context) (map[model.Action]int, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT action, COUNT(*) FROM resolutions GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("counting resolutions: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Action]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scanning resolution count: %w", err)
		}
		counts[model.Action(action)] = count
	}
	return counts, rows.Err()
}
