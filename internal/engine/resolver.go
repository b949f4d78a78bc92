package engine

import "questlog/api/internal/content"

// Resolve computes the status of one quest against a snapshot. Explicit
// completed/in_progress progress always wins; otherwise the status is
// derived from the prerequisite chain, transitively back to the roots.
// The graph is acyclic by construction (content.BuildGraph rejects
// cycles), so the recursion terminates.
func Resolve(g *content.Graph, snap Snapshot, questID string) Status {
	pass := resolvePass{g: g, snap: snap, memo: make(map[string]Status)}
	return pass.resolve(questID)
}

// ResolveAll resolves every quest in the graph in one memoized pass,
// O(quests + dependencies).
func ResolveAll(g *content.Graph, snap Snapshot) map[string]Status {
	pass := resolvePass{g: g, snap: snap, memo: make(map[string]Status, g.Len())}
	out := make(map[string]Status, g.Len())
	for _, id := range g.QuestIDs() {
		out[id] = pass.resolve(id)
	}
	return out
}

// resolvePass memoizes per resolution pass so deep or wide graphs do not
// recompute shared prerequisites.
type resolvePass struct {
	g    *content.Graph
	snap Snapshot
	memo map[string]Status
}

func (p resolvePass) resolve(questID string) Status {
	if status, ok := p.memo[questID]; ok {
		return status
	}

	status := p.derive(questID)
	p.memo[questID] = status
	return status
}

func (p resolvePass) derive(questID string) Status {
	if explicit, ok := p.snap.QuestStatus(questID); ok {
		if explicit == StatusCompleted || explicit == StatusInProgress {
			return explicit
		}
	}

	for _, edge := range p.g.Prerequisites(questID) {
		if !edgeSatisfied(edge.RequiredStatus, p.resolve(edge.RequiredID)) {
			return StatusLocked
		}
	}
	return StatusAvailable
}

// edgeSatisfied evaluates one dependency edge against the prerequisite's
// resolved status. An "active" requirement is satisfied by in_progress or
// completed: a finished quest was necessarily accepted at some point. A
// "failed" requirement is representable but never satisfiable here, since
// failure is not a tracked state.
func edgeSatisfied(required content.RequiredStatus, actual Status) bool {
	switch required {
	case content.RequireComplete:
		return actual == StatusCompleted
	case content.RequireActive:
		return actual == StatusInProgress || actual == StatusCompleted
	case content.RequireFailed:
		return false
	}
	return false
}

// DisplayStatus overlays the level gate on a resolved status. A quest
// whose level requirement exceeds the player's level shows as locked
// unless bypassed. Presentation only: the suppressed status is never
// persisted.
func DisplayStatus(resolved Status, quest content.Quest, playerLevel int, bypassLevel bool) Status {
	if resolved != StatusAvailable || bypassLevel {
		return resolved
	}
	if quest.LevelRequired > playerLevel {
		return StatusLocked
	}
	return resolved
}
