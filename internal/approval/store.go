// Package approval holds draft answers awaiting a human decision. The
// store is bounded and purely in-memory; a restart drops pending
// approvals by design, since stale drafts should not outlive the
// process that produced them.
package approval

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"threadwatch.app/scout/common/id"
	"threadwatch.app/scout/internal/model"
)

// ErrApprovalNotFound covers unknown, evicted, and already-resolved
// approval IDs alike; the store cannot tell those apart once an entry
// is gone.
var ErrApprovalNotFound = errors.New("approval not found")

type Store interface {
	// Submit registers a draft and returns its approval ID. A pending
	// approval for the same message is replaced.
	Submit(candidate model.ScoredCandidate, draft string, qualityScore int) model.PendingApproval

	// Get returns the pending approval by approval ID.
	Get(approvalID string) (model.PendingApproval, error)

	// GetByMessage returns the pending approval for a message, if any.
	GetByMessage(messageID string) (model.PendingApproval, error)

	// Resolve removes the approval and returns it. Resolution is
	// terminal for every action; a second resolve fails.
	Resolve(approvalID string, action model.Action) (model.PendingApproval, error)

	// Len reports the number of pending approvals.
	Len() int
}

type store struct {
	mu         sync.Mutex
	maxPending int
	byID       map[string]model.PendingApproval
	byMessage  map[string]string // message ID -> approval ID
	order      []string          // approval IDs, insertion order, for eviction
}

func NewStore(maxPending int) Store {
	return &store{
		maxPending: maxPending,
		byID:       make(map[string]model.PendingApproval),
		byMessage:  make(map[string]string),
	}
}

func (s *store) Submit(candidate model.ScoredCandidate, draft string, qualityScore int) model.PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	messageID := candidate.MessageID()
	if prevID, ok := s.byMessage[messageID]; ok {
		s.remove(prevID)
	}

	for len(s.byID) >= s.maxPending {
		s.evictOldest()
	}

	pending := model.PendingApproval{
		ApprovalID:   id.NewString(),
		MessageID:    messageID,
		Candidate:    candidate,
		Draft:        draft,
		QualityScore: qualityScore,
		CreatedAt:    time.Now().UTC(),
	}

	s.byID[pending.ApprovalID] = pending
	s.byMessage[messageID] = pending.ApprovalID
	s.order = append(s.order, pending.ApprovalID)

	if len(s.order) > 2*s.maxPending {
		s.compact()
	}

	return pending
}

func (s *store) Get(approvalID string) (model.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.byID[approvalID]
	if !ok {
		return model.PendingApproval{}, fmt.Errorf("%w: %s", ErrApprovalNotFound, approvalID)
	}
	return pending, nil
}

func (s *store) GetByMessage(messageID string) (model.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approvalID, ok := s.byMessage[messageID]
	if !ok {
		return model.PendingApproval{}, fmt.Errorf("%w: message %s", ErrApprovalNotFound, messageID)
	}
	return s.byID[approvalID], nil
}

func (s *store) Resolve(approvalID string, _ model.Action) (model.PendingApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.byID[approvalID]
	if !ok {
		return model.PendingApproval{}, fmt.Errorf("%w: %s", ErrApprovalNotFound, approvalID)
	}
	s.remove(approvalID)
	return pending, nil
}

func (s *store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// remove deletes one approval from both indexes. Caller holds the lock.
func (s *store) remove(approvalID string) {
	pending, ok := s.byID[approvalID]
	if !ok {
		return
	}
	delete(s.byID, approvalID)
	if s.byMessage[pending.MessageID] == approvalID {
		delete(s.byMessage, pending.MessageID)
	}
}

// compact drops order entries whose approvals were already resolved, so
// the slice stays proportional to the live set. Caller holds the lock.
func (s *store) compact() {
	live := s.order[:0]
	for _, approvalID := range s.order {
		if _, ok := s.byID[approvalID]; ok {
			live = append(live, approvalID)
		}
	}
	s.order = live
}

// evictOldest drops the oldest still-pending approval. Resolved entries
// linger in the order slice until they surface here. Caller holds the
// lock.
func (s *store) evictOldest() {
	for len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		if _, ok := s.byID[oldest]; ok {
			s.remove(oldest)
			return
		}
	}
}
