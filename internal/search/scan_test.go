package search

import "testing"

func scanRecords() []QuestRecord {
	return []QuestRecord{
		{
			ID:         "q-debut",
			Title:      "Debut",
			TraderID:   "t-prapor",
			TraderName: "Prapor",
			Maps:       []string{"Customs"},
			Objectives: []string{"Eliminate 5 scavs", "Hand over 2 shotguns"},
		},
		{
			ID:            "q-shaking",
			Title:         "Shaking Up the Teller",
			TraderID:      "t-skier",
			TraderName:    "Skier",
			Maps:          []string{"Customs", "Interchange"},
			Objectives:    []string{"Hand over the golden pocket watch"},
			KappaRequired: true,
		},
		{
			ID:         "q-cargo",
			Title:      "Cargo X - Part 1",
			TraderID:   "t-peacekeeper",
			TraderName: "Peacekeeper",
			Maps:       []string{"Shoreline"},
			Objectives: []string{"Locate the cargo position"},
		},
	}
}

func TestScanMatchesTitle(t *testing.T) {
	s := NewScan(scanRecords())

	results, total, err := s.Search(Query{Text: "debut"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("expected 1 result, got total=%d len=%d", total, len(results))
	}
	if results[0].ID != "q-debut" {
		t.Fatalf("expected q-debut, got %s", results[0].ID)
	}
}

func TestScanObjectiveSnippet(t *testing.T) {
	s := NewScan(scanRecords())

	results, _, err := s.Search(Query{Text: "shotguns"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Snippet != "Hand over 2 shotguns" {
		t.Fatalf("expected matching objective as snippet, got %q", results[0].Snippet)
	}
}

func TestScanAllTermsMustMatch(t *testing.T) {
	s := NewScan(scanRecords())

	_, total, err := s.Search(Query{Text: "cargo watch"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no results when one term misses, got %d", total)
	}
}

func TestScanTitleRanksAboveObjective(t *testing.T) {
	s := NewScan(scanRecords())

	// "cargo" appears in one title and one other quest's objective text.
	results, _, err := s.Search(Query{Text: "cargo"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 || results[0].ID != "q-cargo" {
		t.Fatalf("expected title match ranked first, got %+v", results)
	}
}

func TestScanFilters(t *testing.T) {
	s := NewScan(scanRecords())

	results, _, err := s.Search(Query{Text: "hand over", FilterTrader: "t-skier"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "q-shaking" {
		t.Fatalf("expected trader filter to keep only q-shaking, got %+v", results)
	}

	results, _, err = s.Search(Query{Text: "hand over", KappaOnly: true})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "q-shaking" {
		t.Fatalf("expected kappa filter to keep only q-shaking, got %+v", results)
	}

	results, _, err = s.Search(Query{Text: "hand over", FilterMap: "interchange"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "q-shaking" {
		t.Fatalf("expected map filter to keep only q-shaking, got %+v", results)
	}
}

func TestScanEmptyQueryListsAll(t *testing.T) {
	s := NewScan(scanRecords())

	_, total, err := s.Search(Query{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected all records with no terms, got %d", total)
	}
}

func TestScanPagination(t *testing.T) {
	s := NewScan(scanRecords())

	results, total, err := s.Search(Query{Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 || len(results) != 2 {
		t.Fatalf("expected total=3 page=2, got total=%d len=%d", total, len(results))
	}

	results, _, err = s.Search(Query{Offset: 5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(results))
	}
}
