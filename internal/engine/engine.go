// Package engine turns a ranked candidate question into a reviewed
// draft answer. An Invoker runs the underlying assistant (a local CLI
// or a direct LLM call), and a quality loop reviews and revises the
// draft until it clears the criteria threshold or rounds run out.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/model"
)

type Engine interface {
	// Investigate produces a reviewed draft for the candidate. A non-nil
	// error means the initial investigation itself failed and the result
	// carries no usable draft; quality-loop failures degrade to an
	// unaccepted best-effort draft instead.
	Investigate(ctx context.Context, candidate model.ScoredCandidate) (model.InvestigationResult, error)
}

type engine struct {
	cfg     config.EngineConfig
	invoker Invoker
	loop    *Loop
	sem     chan struct{}
}

func New(cfg config.EngineConfig, qualityCfg config.QualityConfig, invoker Invoker) Engine {
	return &engine{
		cfg:     cfg,
		invoker: invoker,
		loop:    NewLoop(qualityCfg, cfg, invoker),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

func (e *engine) Investigate(ctx context.Context, candidate model.ScoredCandidate) (model.InvestigationResult, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return failedResult(candidate.Text), ctx.Err()
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(candidate.MessageID()),
		ChannelID: logger.Ptr(candidate.ChannelID),
		Component: "scout.engine",
	})

	start := time.Now()
	slog.InfoContext(ctx, "starting investigation",
		"score", candidate.Score,
		"question", logger.Truncate(candidate.Text, 120))

	draft, err := e.investigate(ctx, candidate)
	if err != nil {
		slog.ErrorContext(ctx, "initial investigation failed", "error", err)
		return failedResult(candidate.Text), fmt.Errorf("investigate %s: %w", candidate.MessageID(), err)
	}

	result := e.loop.Run(ctx, candidate.Text, draft)

	slog.InfoContext(ctx, "investigation complete",
		"accepted", result.Accepted,
		"quality_score", result.QualityScore,
		"rounds", result.RoundsUsed,
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (e *engine) investigate(ctx context.Context, candidate model.ScoredCandidate) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.InvestigationTimeout)
	defer cancel()
	return e.invoker.Invoke(ctx, buildInvestigationPrompt(candidate.Text, buildCandidateContext(candidate)))
}

func failedResult(question string) model.InvestigationResult {
	return model.InvestigationResult{
		Question:     question,
		QualityScore: 0,
		Accepted:     false,
	}
}
