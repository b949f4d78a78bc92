package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the full content drop: traders, quests, and the dependency
// edge list, plus the graph built from them.
type Catalog struct {
	Traders []Trader
	Quests  []Quest
	Deps    []Dependency
	Graph   *Graph

	traders map[string]Trader
}

type catalogFile struct {
	Traders      []Trader     `yaml:"traders"`
	Quests       []Quest      `yaml:"quests"`
	Dependencies []Dependency `yaml:"dependencies"`
}

// LoadCatalog reads a YAML catalog file, validates it, and builds the
// dependency graph. Any defect in the file is a startup failure.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(file.Traders, file.Quests, file.Dependencies)
}

// NewCatalog validates in-memory content and builds the graph.
func NewCatalog(traders []Trader, quests []Quest, deps []Dependency) (*Catalog, error) {
	traderIndex := make(map[string]Trader, len(traders))
	for _, t := range traders {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog: trader with empty id")
		}
		if _, dup := traderIndex[t.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate trader id %q", t.ID)
		}
		traderIndex[t.ID] = t
	}

	for i, q := range quests {
		if q.ID == "" {
			return nil, fmt.Errorf("catalog: quest with empty id")
		}
		if q.TraderID != "" {
			if _, ok := traderIndex[q.TraderID]; !ok {
				return nil, fmt.Errorf("catalog: quest %q references unknown trader %q", q.ID, q.TraderID)
			}
		}
		for j, o := range q.Objectives {
			if o.ID == "" {
				return nil, fmt.Errorf("catalog: quest %q has an objective with empty id", q.ID)
			}
			switch o.Kind {
			case ObjectiveCounted:
				if o.Target <= 0 {
					return nil, fmt.Errorf("catalog: counted objective %q needs a positive target", o.ID)
				}
			case ObjectiveBinary:
				if o.Target != 0 {
					return nil, fmt.Errorf("catalog: binary objective %q must not carry a target", o.ID)
				}
			case "":
				// Objectives default to binary when the kind is omitted.
				quests[i].Objectives[j].Kind = ObjectiveBinary
				if o.Target != 0 {
					return nil, fmt.Errorf("catalog: binary objective %q must not carry a target", o.ID)
				}
			default:
				return nil, fmt.Errorf("catalog: objective %q has unknown kind %q", o.ID, o.Kind)
			}
		}
	}

	graph, err := BuildGraph(quests, deps)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Traders: traders,
		Quests:  quests,
		Deps:    deps,
		Graph:   graph,
		traders: traderIndex,
	}, nil
}

// Trader returns the trader with the given id.
func (c *Catalog) Trader(id string) (Trader, bool) {
	t, ok := c.traders[id]
	return t, ok
}
