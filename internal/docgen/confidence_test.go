package docgen

import (
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/store"
)

// completePack builds a document set that passes every structural check with
// zero placeholders.
func completePack() []store.GeneratedDocument {
	body := strings.Repeat("Detailed content line.\n", 100)
	return []store.GeneratedDocument{
		{Filename: "START_HERE.md", Content: "# Start Here\n\n## Step-by-Step Setup\n" + body},
		{Filename: "SPEC.md", Content: "# Spec\n\n## Features\n" + body},
		{Filename: "CLAUDE.md", Content: "# Project\n\n## Commands\n" + body},
		{Filename: "PROMPTS.md", Content: "# Prompts\n\n## Phase 1\n\n### Verification Checklist\n" + body},
		{Filename: "README.md", Content: "# Readme\n" + body},
		{Filename: "MODEL_HANDOFF.md", Content: "# Handoff\n" + body},
	}
}

func TestAnalyzeConfidence_CompletePack(t *testing.T) {
	readiness := QualityReport{Score: 100}
	report := AnalyzeConfidence(completePack(), &readiness)

	if len(report.BlockingGaps) != 0 {
		t.Fatalf("blocking gaps = %v, want none", report.BlockingGaps)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if len(report.Factors) != 4 {
		t.Fatalf("factors = %d, want 4", len(report.Factors))
	}
	if !strings.Contains(report.Summary, "High confidence") {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestAnalyzeConfidence_MissingRequiredDocCapsScore(t *testing.T) {
	docs := completePack()[:5] // drop MODEL_HANDOFF.md
	readiness := QualityReport{Score: 100}
	report := AnalyzeConfidence(docs, &readiness)

	if len(report.BlockingGaps) != 1 {
		t.Fatalf("blocking gaps = %v, want one missing-doc gap", report.BlockingGaps)
	}
	if !strings.Contains(report.BlockingGaps[0], "MODEL_HANDOFF.md") {
		t.Errorf("gap = %q", report.BlockingGaps[0])
	}
	if report.Score >= 90 {
		t.Errorf("score = %d, want below 90 with a blocking gap", report.Score)
	}
	if !strings.Contains(report.Summary, "blocking gap") {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestAnalyzeConfidence_BlockingGapCap(t *testing.T) {
	// A pack missing one marker but otherwise perfect would round above the
	// cap; the cap must hold it at 89.
	docs := completePack()
	for i := range docs {
		if docs[i].Filename == "CLAUDE.md" {
			docs[i].Content = "# Project\n\nNo commands section here.\n" + strings.Repeat("x\n", 200)
		}
	}
	readiness := QualityReport{Score: 100}
	report := AnalyzeConfidence(docs, &readiness)

	if len(report.BlockingGaps) == 0 {
		t.Fatal("expected a structure blocking gap")
	}
	if report.Score > 89 {
		t.Errorf("score = %d, want capped at 89", report.Score)
	}
}

func TestAnalyzeConfidence_PlaceholderDensityTiers(t *testing.T) {
	tests := []struct {
		name       string
		density    float64
		wantPoints int
	}{
		{"pristine", 0.0, 20},
		{"light", 0.0009, 15},
		{"moderate", 0.0015, 10},
		{"heavy", 0.003, 5},
		{"saturated", 0.01, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placeholderPoints(tt.density); got != tt.wantPoints {
				t.Errorf("placeholderPoints(%v) = %d, want %d", tt.density, got, tt.wantPoints)
			}
		})
	}
}

func TestAnalyzeConfidence_PlaceholdersCounted(t *testing.T) {
	docs := completePack()
	for i := range docs {
		if docs[i].Filename == "SPEC.md" {
			docs[i].Content = "# Spec\n\n## Features\n" + strings.Repeat("[TBD: fill this in] ", 20)
		}
	}
	report := AnalyzeConfidence(docs, nil)

	var tbd *ConfidenceFactor
	for i := range report.Factors {
		if strings.Contains(report.Factors[i].Name, "TBD") {
			tbd = &report.Factors[i]
		}
	}
	if tbd == nil {
		t.Fatal("TBD factor missing")
	}
	if !strings.Contains(tbd.Detail, "20 TBD markers") {
		t.Errorf("detail = %q, want 20 markers counted", tbd.Detail)
	}
	if tbd.Points == 20 {
		t.Error("dense placeholders should not score full points")
	}
}

func TestAnalyzeConfidence_ReadinessCarryOver(t *testing.T) {
	docs := completePack()

	withReadiness := AnalyzeConfidence(docs, &QualityReport{Score: 60})
	carry := withReadiness.Factors[3]
	if carry.Points != 15 {
		t.Errorf("carry-over points = %d, want round(60/100*25) = 15", carry.Points)
	}

	withoutReadiness := AnalyzeConfidence(docs, nil)
	if withoutReadiness.Factors[3].Points != 10 {
		t.Errorf("default carry-over = %d, want 10", withoutReadiness.Factors[3].Points)
	}
}

func TestAnalyzeConfidence_EmptyDocSet(t *testing.T) {
	report := AnalyzeConfidence(nil, nil)
	if len(report.BlockingGaps) != len(requiredDocs) {
		t.Errorf("blocking gaps = %d, want %d", len(report.BlockingGaps), len(requiredDocs))
	}
	if report.Score > 89 {
		t.Errorf("score = %d for empty pack", report.Score)
	}
}
