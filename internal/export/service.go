package export

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Service renders progress reports.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// Render generates an export in the requested format. The caller assembles
// the report; rendering has no store access of its own.
func (s *Service) Render(report Report, req Request) (*Result, error) {
	if req.KappaOnly {
		report = filterKappa(report)
	}

	switch req.Format {
	case FormatJSON:
		return renderJSON(report)
	case FormatPDF:
		html, err := RenderReportHTML(report)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return exportPDF(html, reportFilename(report))
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}

func renderJSON(report Report) (*Result, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return &Result{
		Data:     data,
		Filename: reportFilename(report) + ".json",
		MimeType: "application/json",
	}, nil
}

// filterKappa drops quests that do not count toward the kappa container,
// then drops traders left with no quests.
func filterKappa(report Report) Report {
	traders := make([]TraderSection, 0, len(report.Traders))
	for _, section := range report.Traders {
		quests := make([]QuestLine, 0, len(section.Quests))
		completed := 0
		for _, q := range section.Quests {
			if !q.KappaRequired {
				continue
			}
			if q.Status == "completed" {
				completed++
			}
			quests = append(quests, q)
		}
		if len(quests) == 0 {
			continue
		}
		section.Quests = quests
		section.Completed = completed
		section.Total = len(quests)
		traders = append(traders, section)
	}
	report.Traders = traders
	report.TotalQuests = report.KappaTotal
	report.CompletedQuests = report.KappaCompleted
	return report
}

func reportFilename(report Report) string {
	name := strings.TrimSpace(report.DisplayName)
	if name == "" {
		name = "progress"
	}
	return sanitizeFilename(name + "-quest-report")
}
