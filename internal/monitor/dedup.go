package monitor

import "threadwatch.app/scout/internal/model"

// Dedup collapses multiple sightings of the same thread into the
// highest-scoring one. Ties keep the first-seen entry. Relative input
// order is preserved among surviving keys; sorting by score is the
// Ranker's job, not this function's.
func Dedup(candidates []model.ScoredCandidate) []model.ScoredCandidate {
	best := make(map[string]int, len(candidates)) // message_id -> index into out
	out := make([]model.ScoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		id := c.MessageID()
		if i, seen := best[id]; seen {
			if c.Score > out[i].Score {
				out[i] = c
			}
			continue
		}
		best[id] = len(out)
		out = append(out, c)
	}

	return out
}
