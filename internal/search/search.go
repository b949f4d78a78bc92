package search

// Result is a single quest hit returned to the caller.
type Result struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	TraderID      string `json:"traderId"`
	TraderName    string `json:"traderName"`
	Map           string `json:"map,omitempty"`
	LevelRequired int    `json:"levelRequired"`
	KappaRequired bool   `json:"kappaRequired"`
	WikiLink      string `json:"wikiLink,omitempty"`
}

// Query describes a quest search request.
type Query struct {
	Text          string
	FilterTrader  string // trader ID, empty = all traders
	FilterMap     string
	KappaOnly     bool
	Limit         int
	Offset        int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a quest search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// QuestRecord is the data we index for a quest.
type QuestRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	TraderID      string   `json:"traderId"`
	TraderName    string   `json:"traderName"`
	Maps          []string `json:"maps"`
	Objectives    []string `json:"objectives"`
	LevelRequired int      `json:"levelRequired"`
	KappaRequired bool     `json:"kappaRequired"`
	WikiLink      string   `json:"wikiLink"`
}
