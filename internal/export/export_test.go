package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleReport() Report {
	completedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return Report{
		DisplayName:     "rig-check",
		PlayerLevel:     18,
		GeneratedAt:     time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		TotalQuests:     3,
		CompletedQuests: 1,
		KappaTotal:      2,
		KappaCompleted:  1,
		Traders: []TraderSection{
			{
				TraderID:   "t-prapor",
				TraderName: "Prapor",
				Completed:  1,
				Total:      2,
				Quests: []QuestLine{
					{
						ID:            "q-debut",
						Title:         "Debut",
						Status:        "completed",
						KappaRequired: true,
						CompletedAt:   &completedAt,
						Objectives: []ObjectiveLine{
							{Description: "Eliminate 5 scavs", Completed: true, Current: 5, Target: 5},
						},
					},
					{
						ID:     "q-checking",
						Title:  "Checking",
						Status: "in_progress",
					},
				},
			},
			{
				TraderID:   "t-skier",
				TraderName: "Skier",
				Total:      1,
				Quests: []QuestLine{
					{ID: "q-shaking", Title: "Shaking Up the Teller", Status: "locked", KappaRequired: true},
				},
			},
		},
	}
}

func TestRenderReportHTML(t *testing.T) {
	html, err := RenderReportHTML(sampleReport())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"rig-check",
		"Level 18",
		"1 of 3 quests completed (33%)",
		"Kappa progress: 1 of 2 (50%)",
		"Prapor",
		"Debut",
		"Mar 14, 2026",
		"Eliminate 5 scavs",
		"(5/5)",
		"Shaking Up the Teller",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderReportHTMLEscapesContent(t *testing.T) {
	report := sampleReport()
	report.DisplayName = "<script>alert(1)</script>"

	html, err := RenderReportHTML(report)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("display name was not escaped")
	}
}

func TestRenderJSON(t *testing.T) {
	svc := NewService()
	result, err := svc.Render(sampleReport(), Request{Format: FormatJSON})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.MimeType != "application/json" {
		t.Fatalf("unexpected mime type %s", result.MimeType)
	}
	if result.Filename != "rig-check-quest-report.json" {
		t.Fatalf("unexpected filename %s", result.Filename)
	}

	var decoded Report
	if err := json.Unmarshal(result.Data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.CompletedQuests != 1 || len(decoded.Traders) != 2 {
		t.Fatalf("round-trip mismatch: %+v", decoded)
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	svc := NewService()
	if _, err := svc.Render(sampleReport(), Request{Format: "docx"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFilterKappa(t *testing.T) {
	filtered := filterKappa(sampleReport())

	if filtered.TotalQuests != 2 || filtered.CompletedQuests != 1 {
		t.Fatalf("expected kappa totals, got %d/%d", filtered.CompletedQuests, filtered.TotalQuests)
	}
	for _, section := range filtered.Traders {
		for _, q := range section.Quests {
			if !q.KappaRequired {
				t.Errorf("non-kappa quest %s survived filter", q.ID)
			}
		}
	}
	// Prapor keeps only Debut; its counters must follow.
	if filtered.Traders[0].Total != 1 || filtered.Traders[0].Completed != 1 {
		t.Fatalf("trader counters not recomputed: %+v", filtered.Traders[0])
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rig check", "rig-check"},
		{"", "progress"},
		{"héllo/../etc", "hlloetc"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b+c")
	if got != "a%20b%2Bc" {
		t.Fatalf("unexpected encoding %q", got)
	}
}
