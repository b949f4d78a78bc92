// Package content holds the immutable quest catalog: traders, quests,
// objectives, and the dependency graph between quests. Catalog data is
// loaded once at startup and never mutated by user action.
package content

import "fmt"

// RequiredStatus describes what state a prerequisite quest must be in
// for a dependency edge to be satisfied.
type RequiredStatus string

const (
	RequireComplete RequiredStatus = "complete"
	RequireActive   RequiredStatus = "active"
	RequireFailed   RequiredStatus = "failed"
)

// ObjectiveKind distinguishes counted objectives ("kill 5 scavs") from
// binary ones ("find the stash"). The kind is explicit so a zero Target
// can never be misread as a counted objective.
type ObjectiveKind string

const (
	ObjectiveBinary  ObjectiveKind = "binary"
	ObjectiveCounted ObjectiveKind = "counted"
)

type Trader struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type Objective struct {
	ID          string        `yaml:"id"`
	QuestID     string        `yaml:"-"`
	Description string        `yaml:"description"`
	Map         string        `yaml:"map,omitempty"`
	Kind        ObjectiveKind `yaml:"kind"`
	// Target is only meaningful for counted objectives.
	Target int `yaml:"target,omitempty"`
}

// Counted reports whether the objective tracks a numeric count. This is
// the single place the kind tag is interpreted.
func (o Objective) Counted() bool {
	return o.Kind == ObjectiveCounted
}

type Quest struct {
	ID            string      `yaml:"id"`
	Title         string      `yaml:"title"`
	WikiLink      string      `yaml:"wiki_link,omitempty"`
	LevelRequired int         `yaml:"level_required"`
	KappaRequired bool        `yaml:"kappa_required"`
	TraderID      string      `yaml:"trader"`
	Objectives    []Objective `yaml:"objectives"`
}

// Dependency is a directed prerequisite edge: DependentID cannot proceed
// until RequiredID is in a state satisfying RequiredStatus.
type Dependency struct {
	DependentID    string         `yaml:"dependent"`
	RequiredID     string         `yaml:"required"`
	RequiredStatus RequiredStatus `yaml:"status"`
}

// MalformedGraphError reports a content authoring defect: an edge that
// references an unknown quest, or a cycle in the dependency graph. It is
// fatal at load time, never a per-request condition.
type MalformedGraphError struct {
	Reason string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed quest graph: %s", e.Reason)
}

func malformedGraph(format string, args ...any) *MalformedGraphError {
	return &MalformedGraphError{Reason: fmt.Sprintf(format, args...)}
}
