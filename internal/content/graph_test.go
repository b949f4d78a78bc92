package content

import (
	"errors"
	"strings"
	"testing"
)

func quest(id string) Quest {
	return Quest{ID: id, Title: strings.ToUpper(id)}
}

func TestBuildGraphAdjacency(t *testing.T) {
	g, err := BuildGraph(
		[]Quest{quest("a"), quest("b"), quest("c")},
		[]Dependency{
			{DependentID: "b", RequiredID: "a", RequiredStatus: RequireComplete},
			{DependentID: "c", RequiredID: "a", RequiredStatus: RequireActive},
		},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if got := g.Prerequisites("b"); len(got) != 1 || got[0].RequiredID != "a" {
		t.Fatalf("unexpected prerequisites for b: %+v", got)
	}
	if got := g.Dependents("a"); len(got) != 2 {
		t.Fatalf("expected 2 dependents of a, got %+v", got)
	}
	if got := g.Prerequisites("a"); len(got) != 0 {
		t.Fatalf("a has no prerequisites, got %+v", got)
	}
	if g.Len() != 3 {
		t.Fatalf("expected 3 quests, got %d", g.Len())
	}
}

func TestBuildGraphDefaultsEdgeStatus(t *testing.T) {
	g, err := BuildGraph(
		[]Quest{quest("a"), quest("b")},
		[]Dependency{{DependentID: "b", RequiredID: "a"}},
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := g.Prerequisites("b")[0].RequiredStatus; got != RequireComplete {
		t.Fatalf("empty status should default to complete, got %q", got)
	}
}

func TestBuildGraphRejectsDefects(t *testing.T) {
	tests := []struct {
		name   string
		quests []Quest
		deps   []Dependency
	}{
		{
			name:   "duplicate quest id",
			quests: []Quest{quest("a"), quest("a")},
		},
		{
			name: "duplicate objective id",
			quests: []Quest{
				{ID: "a", Objectives: []Objective{{ID: "o-1"}}},
				{ID: "b", Objectives: []Objective{{ID: "o-1"}}},
			},
		},
		{
			name:   "unknown dependent",
			quests: []Quest{quest("a")},
			deps:   []Dependency{{DependentID: "ghost", RequiredID: "a"}},
		},
		{
			name:   "unknown required",
			quests: []Quest{quest("a")},
			deps:   []Dependency{{DependentID: "a", RequiredID: "ghost"}},
		},
		{
			name:   "unknown edge status",
			quests: []Quest{quest("a"), quest("b")},
			deps:   []Dependency{{DependentID: "b", RequiredID: "a", RequiredStatus: "done"}},
		},
		{
			name:   "two quest cycle",
			quests: []Quest{quest("a"), quest("b")},
			deps: []Dependency{
				{DependentID: "b", RequiredID: "a"},
				{DependentID: "a", RequiredID: "b"},
			},
		},
		{
			name:   "self edge",
			quests: []Quest{quest("a")},
			deps:   []Dependency{{DependentID: "a", RequiredID: "a"}},
		},
		{
			name:   "long cycle",
			quests: []Quest{quest("a"), quest("b"), quest("c"), quest("d")},
			deps: []Dependency{
				{DependentID: "b", RequiredID: "a"},
				{DependentID: "c", RequiredID: "b"},
				{DependentID: "d", RequiredID: "c"},
				{DependentID: "b", RequiredID: "d"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGraph(tt.quests, tt.deps)
			var malformed *MalformedGraphError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedGraphError, got %v", err)
			}
		})
	}
}

func TestGraphObjectiveCarriesQuestID(t *testing.T) {
	g, err := BuildGraph(
		[]Quest{{ID: "a", Objectives: []Objective{{ID: "o-1", Description: "find the stash"}}}},
		nil,
	)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	obj, ok := g.Objective("o-1")
	if !ok || obj.QuestID != "a" {
		t.Fatalf("objective lookup: %+v ok=%v", obj, ok)
	}
}
