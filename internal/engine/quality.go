package engine

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/model"
)

// Loop is the bounded writer/reviewer state machine. Each round reviews
// the current draft against the configured criteria; a failing draft is
// revised from the reviewer's feedback until the pass threshold is met
// or rounds run out.
type Loop struct {
	cfg           config.QualityConfig
	invoker       Invoker
	reviseTimeout time.Duration
	reviewTimeout time.Duration
}

func NewLoop(cfg config.QualityConfig, engineCfg config.EngineConfig, invoker Invoker) *Loop {
	return &Loop{
		cfg:           cfg,
		invoker:       invoker,
		reviseTimeout: engineCfg.InvestigationTimeout,
		reviewTimeout: engineCfg.ReviewTimeout,
	}
}

// Run drives the loop from an initial draft. The returned result is
// never an error: a mid-loop review or revision failure degrades to the
// best draft seen so far, marked unaccepted.
func (l *Loop) Run(ctx context.Context, question, initialDraft string) model.InvestigationResult {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.engine.quality"})

	currentDraft := initialDraft
	var rounds []model.ReviewRound

	for round := 1; round <= l.cfg.MaxRounds; round++ {
		rctx := logger.WithLogFields(ctx, logger.LogFields{Round: logger.Ptr(round)})

		reviewText, err := l.review(rctx, question, currentDraft)
		if err != nil {
			slog.WarnContext(rctx, "review call failed, falling back to best draft",
				"error", err)
			return l.exhausted(question, initialDraft, rounds, round)
		}

		result := l.parseReview(reviewText)
		result.Round = round
		result.Draft = currentDraft
		rounds = append(rounds, result)

		slog.DebugContext(rctx, "review round complete",
			"passed", result.PassedCount,
			"total", len(l.cfg.Criteria),
			"threshold", l.cfg.MinPassCriteria)

		if result.PassedCount >= l.cfg.MinPassCriteria {
			slog.InfoContext(rctx, "quality threshold met",
				"passed", result.PassedCount,
				"total", len(l.cfg.Criteria))
			return model.InvestigationResult{
				Question:      question,
				FinalDraft:    currentDraft,
				QualityScore:  result.PassedCount,
				TotalCriteria: len(l.cfg.Criteria),
				RoundsUsed:    round,
				Accepted:      true,
			}
		}

		if round == l.cfg.MaxRounds {
			break
		}

		revised, err := l.revise(rctx, question, result)
		if err != nil {
			slog.WarnContext(rctx, "revision call failed, falling back to best draft",
				"error", err)
			return l.exhausted(question, initialDraft, rounds, round)
		}
		currentDraft = revised
	}

	slog.InfoContext(ctx, "quality rounds exhausted",
		"max_rounds", l.cfg.MaxRounds)
	return l.exhausted(question, initialDraft, rounds, l.cfg.MaxRounds)
}

// exhausted selects the best-scoring draft across all completed rounds,
// breaking ties toward the earliest round. With no completed rounds the
// initial draft is all there is.
func (l *Loop) exhausted(question, initialDraft string, rounds []model.ReviewRound, roundsUsed int) model.InvestigationResult {
	bestDraft := initialDraft
	bestPassed := -1
	for _, r := range rounds {
		if r.PassedCount > bestPassed {
			bestPassed = r.PassedCount
			bestDraft = r.Draft
		}
	}
	if bestPassed < 0 {
		bestPassed = 0
	}

	return model.InvestigationResult{
		Question:      question,
		FinalDraft:    bestDraft,
		QualityScore:  bestPassed,
		TotalCriteria: len(l.cfg.Criteria),
		RoundsUsed:    roundsUsed,
		Accepted:      false,
	}
}

func (l *Loop) review(ctx context.Context, question, draft string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.reviewTimeout)
	defer cancel()
	return l.invoker.Invoke(ctx, buildReviewPrompt(question, draft, l.cfg.Criteria))
}

func (l *Loop) revise(ctx context.Context, question string, round model.ReviewRound) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.reviseTimeout)
	defer cancel()
	return l.invoker.Invoke(ctx, buildInvestigationPrompt(question, buildRevisionContext(round)))
}

var verdictLineRe = regexp.MustCompile(`(?i)^[-*]?\s*(.+?):\s*(PASS|FAIL)\b`)

// parseReview extracts one verdict per configured criterion from the
// reviewer's output. Criteria the reviewer never mentioned count as FAIL.
func (l *Loop) parseReview(reviewText string) model.ReviewRound {
	verdicts := make(map[string]bool)
	var feedbackLines []string
	inFeedback := false

	for _, line := range strings.Split(reviewText, "\n") {
		stripped := strings.TrimSpace(line)
		lower := strings.ToLower(stripped)

		if strings.HasPrefix(lower, "## feedback") || lower == "feedback:" {
			inFeedback = true
			continue
		}
		if inFeedback {
			feedbackLines = append(feedbackLines, line)
			continue
		}

		if m := verdictLineRe.FindStringSubmatch(stripped); m != nil {
			name := strings.ToLower(strings.TrimSpace(m[1]))
			verdicts[name] = strings.EqualFold(m[2], "PASS")
		}
	}

	criteria := make([]model.CriterionResult, len(l.cfg.Criteria))
	passed := 0
	for i, name := range l.cfg.Criteria {
		ok, found := verdicts[strings.ToLower(name)]
		criteria[i] = model.CriterionResult{Name: name, Passed: found && ok}
		if criteria[i].Passed {
			passed++
		}
	}

	feedback := strings.TrimSpace(strings.Join(feedbackLines, "\n"))
	if feedback == "" {
		feedback = "No feedback provided."
	}

	return model.ReviewRound{
		Criteria:    criteria,
		PassedCount: passed,
		Feedback:    feedback,
	}
}
