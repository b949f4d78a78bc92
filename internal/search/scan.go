package search

import (
	"sort"
	"strings"
)

// Scan is the fallback Searcher used when Meilisearch is not available.
// The quest catalog is small and immutable, so a linear scan over the
// in-memory records is good enough.
type Scan struct {
	records []QuestRecord
}

// NewScan builds a scan searcher over the given quest records.
func NewScan(records []QuestRecord) *Scan {
	return &Scan{records: records}
}

// Healthy always reports true; the scan has no external dependency.
func (s *Scan) Healthy() bool {
	return true
}

// Search matches query terms case-insensitively against quest titles,
// trader names, maps and objective descriptions. Every term must match
// at least one field. Title matches rank before objective-only matches.
func (s *Scan) Search(q Query) ([]Result, int, error) {
	terms := strings.Fields(strings.ToLower(q.Text))

	type scored struct {
		record QuestRecord
		score  int
	}
	var matched []scored

	for _, rec := range s.records {
		if q.FilterTrader != "" && rec.TraderID != q.FilterTrader {
			continue
		}
		if q.FilterMap != "" && !containsFold(rec.Maps, q.FilterMap) {
			continue
		}
		if q.KappaOnly && !rec.KappaRequired {
			continue
		}

		score, ok := scoreRecord(rec, terms)
		if !ok {
			continue
		}
		matched = append(matched, scored{record: rec, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	total := len(matched)
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	if q.Offset >= len(matched) {
		return []Result{}, total, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]Result, 0, len(matched))
	for _, m := range matched {
		results = append(results, recordToResult(m.record, terms))
	}
	return results, total, nil
}

// scoreRecord reports whether every term matches some field, and a score
// weighting title hits above the rest.
func scoreRecord(rec QuestRecord, terms []string) (int, bool) {
	title := strings.ToLower(rec.Title)
	trader := strings.ToLower(rec.TraderName)

	score := 0
	for _, term := range terms {
		switch {
		case strings.Contains(title, term):
			score += 3
		case strings.Contains(trader, term):
			score += 2
		case anyContains(rec.Maps, term) || anyContains(rec.Objectives, term):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}

func recordToResult(rec QuestRecord, terms []string) Result {
	r := Result{
		ID:            rec.ID,
		Title:         rec.Title,
		TraderID:      rec.TraderID,
		TraderName:    rec.TraderName,
		LevelRequired: rec.LevelRequired,
		KappaRequired: rec.KappaRequired,
		WikiLink:      rec.WikiLink,
	}
	if len(rec.Maps) > 0 {
		r.Map = rec.Maps[0]
	}
	for _, obj := range rec.Objectives {
		lower := strings.ToLower(obj)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				r.Snippet = obj
				return r
			}
		}
	}
	if len(rec.Objectives) > 0 {
		r.Snippet = rec.Objectives[0]
	}
	return r
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
