package engine

import (
	"fmt"
	"strings"
	"time"

	"threadwatch.app/scout/internal/model"
)

func buildInvestigationPrompt(question, context string) string {
	var sb strings.Builder

	sb.WriteString("You are a data investigation assistant. A user asked a question ")
	sb.WriteString("in a team chat channel. Investigate and provide a clear, accurate answer.\n\n")
	sb.WriteString("## Question\n")
	sb.WriteString(question)
	sb.WriteString("\n")

	if context != "" {
		sb.WriteString("\n## Context\n")
		sb.WriteString(context)
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Instructions\n")
	sb.WriteString("1. Use available tools to query data sources and explore the codebase.\n")
	sb.WriteString("2. Verify your findings before presenting them.\n")
	sb.WriteString("3. Provide a concise answer suitable for posting back to the chat channel.\n")
	sb.WriteString("4. Include relevant numbers, SQL snippets, or references where helpful.\n")
	sb.WriteString("5. If you cannot determine the answer, explain what you tried and suggest next steps.\n")

	return sb.String()
}

func buildReviewPrompt(question, draft string, criteria []string) string {
	var sb strings.Builder

	sb.WriteString("You are a quality reviewer. Evaluate the following draft answer ")
	sb.WriteString("against each criterion below.\n\n")
	sb.WriteString("## Original Question\n")
	sb.WriteString(question)
	sb.WriteString("\n\n## Draft Answer\n")
	sb.WriteString(draft)
	sb.WriteString("\n\n## Review Criteria\n")
	for _, c := range criteria {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Instructions\n")
	sb.WriteString("For EACH criterion, output exactly one line in this format:\n")
	sb.WriteString("  CRITERION_NAME: PASS or FAIL\n")
	sb.WriteString("followed by a brief explanation.\n\n")
	sb.WriteString("After all criteria, add a section:\n")
	sb.WriteString("  ## Feedback\n")
	sb.WriteString("with specific, actionable suggestions for improvement. ")
	sb.WriteString("If everything passes, write 'No changes needed.'\n")

	return sb.String()
}

// buildRevisionContext packages the prior round's failures into context
// for the next investigation pass.
func buildRevisionContext(round model.ReviewRound) string {
	var sb strings.Builder

	sb.WriteString("## Previous Feedback\n")
	sb.WriteString(round.Feedback)
	sb.WriteString("\n\n## Failed Criteria\n")
	for _, name := range round.FailedCriteria() {
		sb.WriteString("- ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	sb.WriteString("\n## Previous Draft\n")
	sb.WriteString(round.Draft)

	return sb.String()
}

// buildCandidateContext formats candidate metadata so the investigator
// has situational awareness.
func buildCandidateContext(c model.ScoredCandidate) string {
	var parts []string

	if c.ChannelName != "" {
		parts = append(parts, fmt.Sprintf("Channel: #%s", c.ChannelName))
	}
	if c.AuthorName != "" {
		parts = append(parts, fmt.Sprintf("Asked by: %s", c.AuthorName))
	}
	if c.ReplyCount > 0 {
		parts = append(parts, fmt.Sprintf("Thread has %d replies.", c.ReplyCount))
	}
	if c.Signals.StrategyBase >= 100 {
		parts = append(parts, "The owner was directly mentioned in this message.")
	}
	if !c.Timestamp.IsZero() {
		parts = append(parts, fmt.Sprintf("Asked %s.", c.RelativeTime(time.Now().UTC())))
	}
	if c.Permalink != "" {
		parts = append(parts, fmt.Sprintf("Permalink: %s", c.Permalink))
	}

	return strings.Join(parts, "\n")
}
