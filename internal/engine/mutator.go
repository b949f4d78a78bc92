package engine

import (
	"sort"
	"time"

	"questlog/api/internal/content"
)

// MutationResult is the outcome of one status mutation: the new snapshot
// plus the quests whose resolved status changed as a consequence, split
// into newly unlocked and newly locked.
type MutationResult struct {
	Snapshot Snapshot
	Unlocked []string
	Locked   []string
}

// SkipResult is the outcome of SkipToQuest: the new snapshot and the
// prerequisites completed as one batch, in dependency order.
type SkipResult struct {
	Snapshot  Snapshot
	Completed []string
}

// manualTransitions lists the status values a user may move a quest to,
// keyed by its current resolved status. locked is never a direct target;
// it is only ever derived. locked -> completed is allowed so skipping
// ahead can complete quests the user did outside the tracker.
var manualTransitions = map[Status][]Status{
	StatusLocked:     {StatusCompleted},
	StatusAvailable:  {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted, StatusAvailable},
	StatusCompleted:  {StatusAvailable},
}

// SetQuestStatus applies one user-initiated status transition and
// recomputes resolved status for the full downstream transitive closure.
// The returned unlocked/locked sets contain every quest whose resolved
// status actually changed value, not just one hop.
func SetQuestStatus(g *content.Graph, snap Snapshot, questID string, newStatus Status, now time.Time) (MutationResult, error) {
	if _, ok := g.Quest(questID); !ok {
		return MutationResult{}, notFound("quest", questID)
	}
	if !newStatus.Valid() {
		return MutationResult{}, validationError("unknown status %q", newStatus)
	}
	if newStatus == StatusLocked {
		return MutationResult{}, validationError("locked is a derived status and cannot be set directly")
	}

	current := Resolve(g, snap, questID)
	if current == newStatus {
		return MutationResult{Snapshot: snap}, nil
	}
	if !transitionAllowed(current, newStatus) {
		return MutationResult{}, validationError("invalid status transition from %s to %s", current, newStatus)
	}

	next := snap.Clone()
	entry := QuestProgress{Status: newStatus}
	if newStatus == StatusCompleted {
		at := now
		entry.CompletedAt = &at
	}
	next.Quests[questID] = entry

	unlocked, locked := cascade(g, snap, next, questID)
	return MutationResult{Snapshot: next, Unlocked: unlocked, Locked: locked}, nil
}

func transitionAllowed(from, to Status) bool {
	for _, allowed := range manualTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// cascade diffs resolved status before and after the change and records
// the delta into next: newly available quests get an explicit available
// entry, and an existing available entry is demoted to locked when its
// chain broke. Explicit in_progress/completed progress is never demoted,
// because resolution returns those verbatim.
func cascade(g *content.Graph, before, next Snapshot, changedID string) (unlocked, locked []string) {
	prev := ResolveAll(g, before)
	curr := ResolveAll(g, next)

	for id, was := range prev {
		if id == changedID {
			continue
		}
		is := curr[id]
		switch {
		case was == StatusLocked && is == StatusAvailable:
			next.Quests[id] = QuestProgress{Status: StatusAvailable}
			unlocked = append(unlocked, id)
		case was == StatusAvailable && is == StatusLocked:
			if _, exists := next.Quests[id]; exists {
				next.Quests[id] = QuestProgress{Status: StatusLocked}
			}
			locked = append(locked, id)
		}
	}
	sort.Strings(unlocked)
	sort.Strings(locked)
	return unlocked, locked
}

// TickObjective advances (or rewinds) one objective. Counted objectives
// clamp into [0, target] and complete exactly at target; binary
// objectives ignore delta and toggle. Objective progress is
// informational: it never changes the owning quest's status.
func TickObjective(g *content.Graph, snap Snapshot, objectiveID string, delta int) (Snapshot, error) {
	obj, ok := g.Objective(objectiveID)
	if !ok {
		return Snapshot{}, notFound("objective", objectiveID)
	}

	next := snap.Clone()
	progress := next.Objectives[objectiveID]

	if obj.Counted() {
		progress.Target = obj.Target
		current := progress.Current + delta
		if current < 0 {
			current = 0
		}
		if current > obj.Target {
			current = obj.Target
		}
		progress.Current = current
		progress.Completed = current == obj.Target
	} else {
		progress.Completed = !progress.Completed
	}

	next.Objectives[objectiveID] = progress
	return next, nil
}

// SkipToQuest completes every not-yet-completed transitive prerequisite
// of the target (over must-be-completed edges only) as a single batch in
// dependency order, then leaves the target available. A target with no
// incomplete prerequisites is a no-op, not an error.
func SkipToQuest(g *content.Graph, snap Snapshot, targetID string, now time.Time) (SkipResult, error) {
	if _, ok := g.Quest(targetID); !ok {
		return SkipResult{}, notFound("quest", targetID)
	}

	seen := make(map[string]bool)
	queued := make(map[string]bool)
	var toComplete []string
	var collect func(questID string)
	collect = func(questID string) {
		if seen[questID] {
			return
		}
		seen[questID] = true
		for _, edge := range g.Prerequisites(questID) {
			if edge.RequiredStatus != content.RequireComplete {
				continue
			}
			// Post-order: deeper prerequisites first, so the batch is
			// already in dependency order.
			collect(edge.RequiredID)
			if queued[edge.RequiredID] {
				continue
			}
			if status, ok := snap.QuestStatus(edge.RequiredID); !ok || status != StatusCompleted {
				queued[edge.RequiredID] = true
				toComplete = append(toComplete, edge.RequiredID)
			}
		}
	}
	collect(targetID)

	if len(toComplete) == 0 {
		return SkipResult{Snapshot: snap}, nil
	}

	next := snap.Clone()
	completed := make([]string, 0, len(toComplete))
	for _, id := range toComplete {
		if id == targetID {
			continue
		}
		at := now
		next.Quests[id] = QuestProgress{Status: StatusCompleted, CompletedAt: &at}
		completed = append(completed, id)
	}

	if status, ok := next.QuestStatus(targetID); !ok || (status != StatusCompleted && status != StatusInProgress) {
		next.Quests[targetID] = QuestProgress{Status: StatusAvailable}
	}

	return SkipResult{Snapshot: next, Completed: completed}, nil
}
