package monitor

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"threadwatch.app/scout/common/logger"
	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/model"
)

// SearchClient is the transport boundary to the messaging platform's
// search API. Implementations handle auth and wire details; the ranker
// depends only on parsed RawMessage records.
type SearchClient interface {
	SearchMessages(ctx context.Context, query string, count, page int) (SearchPage, error)
}

// SearchPage is one page of search results.
type SearchPage struct {
	Matches    []RawMessage
	Page       int
	TotalPages int
}

const searchPageSize = 100

// Ranker composes strategy generation, filtering, scoring, and
// deduplication into one pipeline producing a priority-sorted candidate
// list. The pipeline itself is pure and synchronous; only the per-strategy
// searches touch the network.
type Ranker struct {
	cfg    config.MonitoringConfig
	filter *Filter
	scorer *Scorer
	client SearchClient
}

func NewRanker(cfg config.MonitoringConfig, client SearchClient) *Ranker {
	f := NewFilter(cfg)
	return &Ranker{
		cfg:    cfg,
		filter: f,
		scorer: NewScorer(f),
		client: client,
	}
}

// Filter exposes the predicate library, mainly for the notifier's
// classification labels.
func (r *Ranker) Filter() *Filter {
	return r.filter
}

// FindUnanswered runs one full monitoring cycle. cachedAnswered carries
// thread keys answered in previous cycles; the returned AnsweredSet is
// the union of that cache and threads the owner responded to this cycle.
//
// A failing strategy is logged and skipped - one bad search never aborts
// the cycle.
func (r *Ranker) FindUnanswered(ctx context.Context, cachedAnswered AnsweredSet) ([]model.ScoredCandidate, AnsweredSet) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.monitor.ranker"})

	lookback := time.Now().UTC().AddDate(0, 0, -r.cfg.LookbackDays)
	strategies := GenerateStrategies(r.cfg, lookback.Format("2006-01-02"))

	answered := NewAnsweredSet()
	answered.Merge(cachedAnswered)

	var scored []model.ScoredCandidate
	collected := 0

	for _, strategy := range strategies {
		hits, err := r.searchAll(ctx, strategy)
		if err != nil {
			slog.WarnContext(ctx, "search strategy failed, skipping",
				"strategy", strategy.Name,
				"error", err)
			continue
		}

		for _, raw := range hits {
			if r.filter.IsBot(raw) {
				continue
			}
			msg, ok := ParseMessage(raw, strategy)
			if !ok {
				continue
			}
			if strategy.FilterOnly {
				answered.Add(msg.MessageID())
				continue
			}
			scored = append(scored, r.scorer.Score(msg, strategy))
			collected++
		}
	}

	slog.InfoContext(ctx, "collected candidates",
		"count", collected,
		"answered_threads", len(answered))

	unanswered := scored[:0:0]
	for _, c := range scored {
		if answered.IsAnswered(c.MessageID()) {
			continue
		}
		unanswered = append(unanswered, c)
	}

	unique := Dedup(unanswered)

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Score > unique[j].Score
	})

	slog.InfoContext(ctx, "ranking cycle complete",
		"candidates", len(scored),
		"unanswered", len(unique))

	return unique, answered
}

// searchAll executes one strategy, folding pages until the strategy's
// count is reached or the backend runs out of pages.
func (r *Ranker) searchAll(ctx context.Context, strategy SearchStrategy) ([]RawMessage, error) {
	var results []RawMessage
	remaining := strategy.Count
	page := 1

	for remaining > 0 {
		size := remaining
		if size > searchPageSize {
			size = searchPageSize
		}

		resp, err := r.client.SearchMessages(ctx, strategy.Query, size, page)
		if err != nil {
			// Partial results from earlier pages are still usable.
			if len(results) > 0 {
				slog.WarnContext(ctx, "pagination aborted, keeping partial results",
					"strategy", strategy.Name,
					"page", page,
					"error", err)
				return results, nil
			}
			return nil, err
		}
		if len(resp.Matches) == 0 {
			break
		}

		results = append(results, resp.Matches...)
		remaining -= len(resp.Matches)

		if resp.Page >= resp.TotalPages {
			break
		}
		page++
	}

	slog.DebugContext(ctx, "strategy executed",
		"strategy", strategy.Name,
		"results", len(results))

	return results, nil
}
