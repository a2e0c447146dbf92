package model

// CriterionResult is one pass/fail dimension from a review round.
type CriterionResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// ReviewRound records one writer/reviewer iteration. Rounds accumulate
// so the exhaustion fallback can pick the best draft seen, not the last.
type ReviewRound struct {
	Round       int               `json:"round"`
	Draft       string            `json:"draft"`
	Criteria    []CriterionResult `json:"criteria"`
	PassedCount int               `json:"passed_count"`
	Feedback    string            `json:"feedback"`
}

// FailedCriteria returns the names of criteria that did not pass,
// in rubric order.
func (r ReviewRound) FailedCriteria() []string {
	var failed []string
	for _, c := range r.Criteria {
		if !c.Passed {
			failed = append(failed, c.Name)
		}
	}
	return failed
}

// InvestigationResult is the outcome of a full investigate-and-review run.
type InvestigationResult struct {
	Question      string `json:"question"`
	FinalDraft    string `json:"final_draft"`
	QualityScore  int    `json:"quality_score"`
	TotalCriteria int    `json:"total_criteria"`
	RoundsUsed    int    `json:"rounds_used"`
	Accepted      bool   `json:"accepted"`
}
