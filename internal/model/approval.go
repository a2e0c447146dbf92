package model

import "time"

// Action is the closed set of human review decisions.
type Action string

const (
	ActionApprove Action = "approve"
	ActionEdit    Action = "edit"
	ActionReject  Action = "reject"
)

// ParseAction maps a raw callback action id onto the closed enumeration.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionApprove, ActionEdit, ActionReject:
		return Action(raw), true
	}
	return "", false
}

// PendingApproval is a draft parked in the approval ledger until a human
// decides. Owned by the approval store; removed on resolution or eviction.
type PendingApproval struct {
	ApprovalID   string          `json:"approval_id"`
	MessageID    string          `json:"message_id"`
	Candidate    ScoredCandidate `json:"candidate"`
	Draft        string          `json:"draft"`
	QualityScore int             `json:"quality_score"`
	CreatedAt    time.Time       `json:"created_at"`
}
