package monitor

import (
	"fmt"
	"strings"

	"threadwatch.app/scout/core/config"
)

// SearchStrategy is one named query pattern with its scoring metadata.
// Strategies are generated fresh each cycle from configuration.
type SearchStrategy struct {
	Name          string
	Query         string
	Count         int
	PriorityBoost int
	MarksMention  bool
	MarksDM       bool
	// FilterOnly strategies feed the answered-thread set and are never
	// surfaced as candidates.
	FilterOnly bool
}

const (
	defaultResultCount = 100

	// Search backends cap query length, so domain keywords are split
	// into at most this many OR-groups.
	maxKeywordChunks = 3
)

var genericTerms = []string{"model", "data", "metric", "report", "number", "query"}

// GenerateStrategies derives the full strategy list from monitoring
// configuration. Deterministic given config; order is presentational.
func GenerateStrategies(cfg config.MonitoringConfig, lookbackDate string) []SearchStrategy {
	var strategies []SearchStrategy
	owner := cfg.OwnerUsername
	after := "after:" + lookbackDate

	if owner != "" {
		strategies = append(strategies, SearchStrategy{
			Name:          "direct_mentions",
			Query:         fmt.Sprintf("@%s %s", owner, after),
			Count:         defaultResultCount,
			PriorityBoost: 100,
			MarksMention:  true,
		})
	}

	inChannels := channelClause(cfg.Channels)
	if inChannels != "" {
		strategies = append(strategies, SearchStrategy{
			Name:          "channel_questions",
			Query:         fmt.Sprintf("? %s %s", inChannels, after),
			Count:         defaultResultCount,
			PriorityBoost: 50,
		})
	}

	for i, chunk := range chunkKeywords(cfg.DomainKeywords, maxKeywordChunks) {
		strategies = append(strategies, SearchStrategy{
			Name:          fmt.Sprintf("domain_keywords_%d", i+1),
			Query:         fmt.Sprintf("(%s) ? %s", strings.Join(chunk, " OR "), after),
			Count:         defaultResultCount,
			PriorityBoost: 30,
		})
	}

	genericQuery := strings.Join(genericTerms, " OR ")
	if inChannels != "" {
		strategies = append(strategies, SearchStrategy{
			Name:          "generic_data_questions",
			Query:         fmt.Sprintf("(%s) ? %s %s", genericQuery, inChannels, after),
			Count:         defaultResultCount,
			PriorityBoost: 20,
		})
	} else {
		strategies = append(strategies, SearchStrategy{
			Name:          "generic_data_questions",
			Query:         fmt.Sprintf("(%s) ? %s", genericQuery, after),
			Count:         defaultResultCount,
			PriorityBoost: 20,
		})
	}

	if owner != "" {
		strategies = append(strategies, SearchStrategy{
			Name:          "direct_messages",
			Query:         fmt.Sprintf("to:@%s %s", owner, after),
			Count:         defaultResultCount,
			PriorityBoost: 80,
			MarksDM:       true,
		})
		strategies = append(strategies, SearchStrategy{
			Name:       "owner_responses",
			Query:      fmt.Sprintf("from:@%s %s", owner, after),
			Count:      defaultResultCount,
			FilterOnly: true,
		})
	}

	return strategies
}

func channelClause(channels []string) string {
	if len(channels) == 0 {
		return ""
	}
	clauses := make([]string, len(channels))
	for i, name := range channels {
		clauses[i] = "in:#" + name
	}
	return strings.Join(clauses, " ")
}

// chunkKeywords splits keywords into at most maxChunks groups of roughly
// equal size, preserving configuration order.
func chunkKeywords(keywords []string, maxChunks int) [][]string {
	if len(keywords) == 0 {
		return nil
	}
	chunkSize := len(keywords) / maxChunks
	if len(keywords)%maxChunks != 0 {
		chunkSize++
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks [][]string
	for i := 0; i < len(keywords) && len(chunks) < maxChunks; i += chunkSize {
		end := i + chunkSize
		if end > len(keywords) {
			end = len(keywords)
		}
		chunks = append(chunks, keywords[i:end])
	}
	return chunks
}
