package content

// Graph is the static prerequisite structure over a quest catalog.
// Adjacency is built once; Prerequisites and Dependents are O(1) map
// lookups afterwards.
type Graph struct {
	quests        map[string]Quest
	objectives    map[string]Objective
	prerequisites map[string][]Dependency // dependent quest id -> incoming edges
	dependents    map[string][]Dependency // required quest id -> outgoing edges
}

// BuildGraph validates the edge list against the quest set and builds
// both adjacency directions. It fails with MalformedGraphError if an edge
// references an unknown quest id or if the edges contain a cycle.
func BuildGraph(quests []Quest, deps []Dependency) (*Graph, error) {
	g := &Graph{
		quests:        make(map[string]Quest, len(quests)),
		objectives:    make(map[string]Objective),
		prerequisites: make(map[string][]Dependency),
		dependents:    make(map[string][]Dependency),
	}
	for _, q := range quests {
		if _, dup := g.quests[q.ID]; dup {
			return nil, malformedGraph("duplicate quest id %q", q.ID)
		}
		g.quests[q.ID] = q
		for _, o := range q.Objectives {
			if _, dup := g.objectives[o.ID]; dup {
				return nil, malformedGraph("duplicate objective id %q", o.ID)
			}
			o.QuestID = q.ID
			g.objectives[o.ID] = o
		}
	}

	for _, d := range deps {
		if _, ok := g.quests[d.DependentID]; !ok {
			return nil, malformedGraph("edge references unknown dependent quest %q", d.DependentID)
		}
		if _, ok := g.quests[d.RequiredID]; !ok {
			return nil, malformedGraph("edge references unknown required quest %q", d.RequiredID)
		}
		switch d.RequiredStatus {
		case RequireComplete, RequireActive, RequireFailed:
		case "":
			d.RequiredStatus = RequireComplete
		default:
			return nil, malformedGraph("edge %s -> %s has unknown required status %q", d.RequiredID, d.DependentID, d.RequiredStatus)
		}
		g.prerequisites[d.DependentID] = append(g.prerequisites[d.DependentID], d)
		g.dependents[d.RequiredID] = append(g.dependents[d.RequiredID], d)
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkAcyclic runs a Kahn pass over the edge set. The resolver assumes
// acyclicity, so a cyclic catalog must be rejected before it is ever
// resolved against.
func (g *Graph) checkAcyclic() error {
	indegree := make(map[string]int, len(g.quests))
	for id := range g.quests {
		indegree[id] = len(g.prerequisites[id])
	}

	var frontier []string
	for id, n := range indegree {
		if n == 0 {
			frontier = append(frontier, id)
		}
	}

	visited := 0
	for len(frontier) > 0 {
		id := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		visited++
		for _, edge := range g.dependents[id] {
			indegree[edge.DependentID]--
			if indegree[edge.DependentID] == 0 {
				frontier = append(frontier, edge.DependentID)
			}
		}
	}

	if visited != len(g.quests) {
		return malformedGraph("dependency cycle detected (%d of %d quests reachable)", visited, len(g.quests))
	}
	return nil
}

// Quest returns the quest with the given id.
func (g *Graph) Quest(id string) (Quest, bool) {
	q, ok := g.quests[id]
	return q, ok
}

// Objective returns the objective with the given id.
func (g *Graph) Objective(id string) (Objective, bool) {
	o, ok := g.objectives[id]
	return o, ok
}

// Prerequisites returns the incoming edges of the quest: the
// dependencies that must be satisfied before it unlocks.
func (g *Graph) Prerequisites(questID string) []Dependency {
	return g.prerequisites[questID]
}

// Dependents returns the outgoing edges: quests gated on this one.
func (g *Graph) Dependents(questID string) []Dependency {
	return g.dependents[questID]
}

// QuestIDs returns every quest id in the graph, in no particular order.
func (g *Graph) QuestIDs() []string {
	ids := make([]string, 0, len(g.quests))
	for id := range g.quests {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of quests in the graph.
func (g *Graph) Len() int {
	return len(g.quests)
}
