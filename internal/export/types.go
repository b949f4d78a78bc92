// Package export renders a user's quest progress as a shareable report.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Request contains parameters for an export operation
type Request struct {
	Format    Format
	KappaOnly bool
}

// Report is the assembled progress report handed to the renderer.
type Report struct {
	DisplayName     string          `json:"displayName"`
	PlayerLevel     int             `json:"playerLevel"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	TotalQuests     int             `json:"totalQuests"`
	CompletedQuests int             `json:"completedQuests"`
	KappaTotal      int             `json:"kappaTotal"`
	KappaCompleted  int             `json:"kappaCompleted"`
	Traders         []TraderSection `json:"traders"`
}

// TraderSection groups a trader's quests within the report.
type TraderSection struct {
	TraderID   string      `json:"traderId"`
	TraderName string      `json:"traderName"`
	Completed  int         `json:"completed"`
	Total      int         `json:"total"`
	Quests     []QuestLine `json:"quests"`
}

// QuestLine is one quest row in the report.
type QuestLine struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	LevelRequired int             `json:"levelRequired,omitempty"`
	KappaRequired bool            `json:"kappaRequired"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Objectives    []ObjectiveLine `json:"objectives,omitempty"`
}

// ObjectiveLine is one objective row under a quest.
type ObjectiveLine struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Current     int    `json:"current,omitempty"`
	Target      int    `json:"target,omitempty"`
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
