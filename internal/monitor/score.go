package monitor

import (
	"threadwatch.app/scout/internal/model"
)

// Scoring rule table. Applied in this fixed order so tie-break audit
// logs are reproducible; the sum itself is order-independent.
const (
	questionBonus     = 20
	keywordBonus      = 15
	fyiPenalty        = -30
	noQuestionPenalty = -10
	quotedPenalty     = -50
)

// Scorer combines strategy boosts and filter signals into a non-negative
// priority score.
type Scorer struct {
	filter *Filter
}

func NewScorer(filter *Filter) *Scorer {
	return &Scorer{filter: filter}
}

// Score evaluates a candidate found by a strategy. The result is always
// floored at zero, however negative the penalty sum.
func (s *Scorer) Score(msg model.CandidateMessage, strategy SearchStrategy) model.ScoredCandidate {
	signals := model.Signals{
		IsQuestion:   s.filter.IsQuestion(msg.Text),
		IsFYI:        s.filter.IsFYI(msg.Text),
		IsQuoted:     s.filter.IsQuotedMention(msg.Text),
		HasKeyword:   s.filter.HasDomainKeyword(msg.Text),
		StrategyBase: strategy.PriorityBoost,
	}

	points := strategy.PriorityBoost
	if signals.IsQuestion {
		points += questionBonus
	}
	if signals.HasKeyword {
		points += keywordBonus
	}
	if signals.IsFYI {
		points += fyiPenalty
	}
	if !signals.IsQuestion {
		points += noQuestionPenalty
	}
	if signals.IsQuoted {
		points += quotedPenalty
	}

	if points < 0 {
		points = 0
	}

	return model.ScoredCandidate{
		CandidateMessage: msg,
		Score:            points,
		Signals:          signals,
	}
}
