// Package bot wires the full pipeline together: the poll cycle that
// finds and investigates unanswered questions, and the action loop
// that applies human decisions arriving over the action stream.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/approval"
	"threadwatch.app/scout/internal/cache"
	"threadwatch.app/scout/internal/engine"
	"threadwatch.app/scout/internal/model"
	"threadwatch.app/scout/internal/monitor"
	"threadwatch.app/scout/internal/queue"
)

// Ranker is the monitoring pipeline's entry point.
type Ranker interface {
	FindUnanswered(ctx context.Context, cachedAnswered monitor.AnsweredSet) ([]model.ScoredCandidate, monitor.AnsweredSet)
}

// ActionConsumer reads reviewer decisions off the action stream.
type ActionConsumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Notifier is the outbound messaging surface the bot needs.
type Notifier interface {
	NotifyDraft(ctx context.Context, pending model.PendingApproval, totalCriteria int) error
	NotifyError(ctx context.Context, candidate model.ScoredCandidate, cause error) error
	PostAnswer(ctx context.Context, candidate model.ScoredCandidate, text string) (string, error)
}

// EventRecorder is the optional analytics trail. All methods are
// best-effort; recording failures never block the pipeline.
type EventRecorder interface {
	RecordQuestion(ctx context.Context, c model.ScoredCandidate) error
	RecordInvestigation(ctx context.Context, messageID string, result model.InvestigationResult) error
	RecordResolution(ctx context.Context, pending model.PendingApproval, action model.Action, userID, finalText string) error
}

type Config struct {
	PollInterval  time.Duration
	MaxAttempts   int
	TotalCriteria int
}

type Bot struct {
	cfg       Config
	ranker    Ranker
	engine    engine.Engine
	approvals approval.Store
	answered  cache.AnsweredCache
	notifier  Notifier
	consumer  ActionConsumer
	events    EventRecorder // nil disables the analytics trail

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(cfg Config, ranker Ranker, eng engine.Engine, approvals approval.Store,
	answered cache.AnsweredCache, notifier Notifier, consumer ActionConsumer,
	events EventRecorder) *Bot {
	return &Bot{
		cfg:       cfg,
		ranker:    ranker,
		engine:    eng,
		approvals: approvals,
		answered:  answered,
		notifier:  notifier,
		consumer:  consumer,
		events:    events,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func NewConfig(cfg config.Config) Config {
	return Config{
		PollInterval:  cfg.Monitoring.PollInterval,
		MaxAttempts:   3,
		TotalCriteria: len(cfg.Quality.Criteria),
	}
}

// Run blocks until the context is canceled or Stop is called. The poll
// cycle and the action loop run concurrently; one immediate cycle fires
// on startup so a restart does not wait a full interval.
func (b *Bot) Run(ctx context.Context) error {
	defer close(b.stoppedCh)

	slog.InfoContext(ctx, "bot started", "poll_interval", b.cfg.PollInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.actionLoop(ctx)
	}()

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	b.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-b.stopCh:
			slog.InfoContext(ctx, "bot stopping")
			wg.Wait()
			return nil
		case <-ticker.C:
			b.RunCycle(ctx)
		}
	}
}

func (b *Bot) Stop() {
	close(b.stopCh)
	<-b.stoppedCh
}

// RunCycle executes one monitoring pass: load the answered cache, rank
// candidates, investigate each new one, and park the drafts for review.
// Investigations run concurrently; the engine bounds the parallelism.
func (b *Bot) RunCycle(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.bot"})
	start := time.Now()

	cached, err := b.answered.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "loading answered cache failed, proceeding without it", "error", err)
		cached = monitor.NewAnsweredSet()
	}

	candidates, answered := b.ranker.FindUnanswered(ctx, cached)
	b.persistAnswered(ctx, cached, answered)

	var investigated int
	var wg sync.WaitGroup
	for _, candidate := range candidates {
		if _, err := b.approvals.GetByMessage(candidate.MessageID()); err == nil {
			continue // already awaiting review
		}

		b.recordQuestion(ctx, candidate)

		investigated++
		wg.Add(1)
		go func(c model.ScoredCandidate) {
			defer wg.Done()
			b.investigate(ctx, c)
		}(candidate)
	}
	wg.Wait()

	slog.InfoContext(ctx, "cycle complete",
		"candidates", len(candidates),
		"investigated", investigated,
		"pending", b.approvals.Len(),
		"duration", time.Since(start).Round(time.Millisecond))
}

func (b *Bot) investigate(ctx context.Context, candidate model.ScoredCandidate) {
	result, err := b.engine.Investigate(ctx, candidate)
	if err != nil {
		if notifyErr := b.notifier.NotifyError(ctx, candidate, err); notifyErr != nil {
			slog.ErrorContext(ctx, "failed to notify investigation error",
				"error", notifyErr, "message_id", candidate.MessageID())
		}
		return
	}

	if b.events != nil {
		if err := b.events.RecordInvestigation(ctx, candidate.MessageID(), result); err != nil {
			slog.WarnContext(ctx, "failed to record investigation", "error", err)
		}
	}

	pending := b.approvals.Submit(candidate, result.FinalDraft, result.QualityScore)
	if err := b.notifier.NotifyDraft(ctx, pending, result.TotalCriteria); err != nil {
		slog.ErrorContext(ctx, "failed to send review notification",
			"error", err, "approval_id", pending.ApprovalID)
	}
}

// persistAnswered writes threads newly observed as answered back to the
// cross-cycle cache.
func (b *Bot) persistAnswered(ctx context.Context, cached, answered monitor.AnsweredSet) {
	for id := range answered {
		if cached.IsAnswered(id) {
			continue
		}
		if err := b.answered.MarkAnswered(ctx, id); err != nil {
			slog.WarnContext(ctx, "failed to persist answered thread", "error", err, "message_id", id)
		}
	}
}

func (b *Bot) recordQuestion(ctx context.Context, candidate model.ScoredCandidate) {
	if b.events == nil {
		return
	}
	if err := b.events.RecordQuestion(ctx, candidate); err != nil {
		slog.WarnContext(ctx, "failed to record question", "error", err)
	}
}

func (b *Bot) actionLoop(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.bot.actions"})

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		default:
		}

		messages, err := b.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "reading action stream failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			b.handleAction(ctx, msg)
		}
	}
}

// handleAction applies one reviewer decision. The pending approval is
// only resolved after the answer post succeeds, so a transient posting
// failure leaves it intact for the retry.
func (b *Bot) handleAction(ctx context.Context, msg queue.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{ApprovalID: logger.Ptr(msg.ApprovalID)})

	pending, err := b.approvals.Get(msg.ApprovalID)
	if err != nil {
		// Unknown, evicted, or already resolved. Terminal either way.
		slog.WarnContext(ctx, "action for unknown approval, dropping",
			"action", msg.Action)
		b.ack(ctx, msg)
		return
	}

	finalText := ""
	switch msg.Action {
	case model.ActionApprove:
		finalText = pending.Draft
	case model.ActionEdit:
		finalText = msg.EditedText
	case model.ActionReject:
		// nothing to post
	}

	if finalText != "" {
		if _, err := b.notifier.PostAnswer(ctx, pending.Candidate, finalText); err != nil {
			slog.ErrorContext(ctx, "posting approved answer failed", "error", err)
			b.retry(ctx, msg, err)
			return
		}
		if err := b.answered.MarkAnswered(ctx, pending.MessageID); err != nil {
			slog.WarnContext(ctx, "failed to mark thread answered", "error", err)
		}
	}

	if _, err := b.approvals.Resolve(msg.ApprovalID, msg.Action); err != nil {
		// A concurrent resolve or eviction won the race; the answer (if
		// any) is already posted, so just drop the message.
		slog.WarnContext(ctx, "approval vanished before resolve", "error", err)
	}

	if b.events != nil {
		if err := b.events.RecordResolution(ctx, pending, msg.Action, msg.UserID, finalText); err != nil {
			slog.WarnContext(ctx, "failed to record resolution", "error", err)
		}
	}

	slog.InfoContext(ctx, "approval resolved",
		"action", msg.Action,
		"user_id", msg.UserID,
		"message_id", pending.MessageID)
	b.ack(ctx, msg)
}

func (b *Bot) ack(ctx context.Context, msg queue.Message) {
	if err := b.consumer.Ack(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "acking action message failed", "error", err, "message_id", msg.ID)
	}
}

func (b *Bot) retry(ctx context.Context, msg queue.Message, cause error) {
	if msg.Attempt >= b.cfg.MaxAttempts {
		if err := b.consumer.SendDLQ(ctx, msg, cause.Error()); err != nil {
			slog.ErrorContext(ctx, "sending action to DLQ failed", "error", err, "message_id", msg.ID)
		}
		return
	}
	if err := b.consumer.Requeue(ctx, msg, fmt.Sprintf("attempt %d: %v", msg.Attempt, cause)); err != nil {
		slog.ErrorContext(ctx, "requeueing action failed", "error", err, "message_id", msg.ID)
	}
}
