// Package engine is the functional core of the tracker: a pure status
// resolver and progress mutator over an immutable quest graph. It holds
// no shared state; every mutation takes a snapshot and returns a new one,
// leaving publication to the caller.
package engine

import "time"

// Status is the per-user state of a quest. The string values are a wire
// and storage contract and must round-trip exactly.
type Status string

const (
	StatusLocked     Status = "locked"
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// QuestProgress is one explicit quest entry in a snapshot. Entries are
// created lazily on first touch and never deleted, only transitioned.
type QuestProgress struct {
	Status      Status
	CompletedAt *time.Time
}

// ObjectiveProgress tracks one objective. Current and Target are only
// meaningful for counted objectives; binary objectives carry just the
// Completed flag.
type ObjectiveProgress struct {
	Completed bool
	Current   int
	Target    int
}

// Snapshot is the complete per-user progress state at a point in time.
// The authoritative store owns it; clients hold possibly-stale copies.
type Snapshot struct {
	Quests     map[string]QuestProgress
	Objectives map[string]ObjectiveProgress
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{
		Quests:     make(map[string]QuestProgress),
		Objectives: make(map[string]ObjectiveProgress),
	}
}

// Clone returns a deep copy. Mutators clone before writing so a failed
// call can never leave the caller's snapshot partially mutated.
func (s Snapshot) Clone() Snapshot {
	next := Snapshot{
		Quests:     make(map[string]QuestProgress, len(s.Quests)),
		Objectives: make(map[string]ObjectiveProgress, len(s.Objectives)),
	}
	for id, qp := range s.Quests {
		if qp.CompletedAt != nil {
			at := *qp.CompletedAt
			qp.CompletedAt = &at
		}
		next.Quests[id] = qp
	}
	for id, op := range s.Objectives {
		next.Objectives[id] = op
	}
	return next
}

// QuestStatus returns the explicit status for a quest, if an entry exists.
func (s Snapshot) QuestStatus(questID string) (Status, bool) {
	qp, ok := s.Quests[questID]
	if !ok {
		return "", false
	}
	return qp.Status, true
}
