package docgen

import (
	"fmt"
	"math"
	"strings"

	"github.com/planforge/planforge/internal/store"
)

// requiredDocs is the filename set a complete execution pack must contain.
var requiredDocs = []string{
	"START_HERE.md",
	"SPEC.md",
	"CLAUDE.md",
	"PROMPTS.md",
	"README.md",
	"MODEL_HANDOFF.md",
}

// structureChecks maps key documents to the section markers they must carry.
var structureChecks = []struct {
	filename string
	markers  []string
}{
	{"SPEC.md", []string{"# ", "## "}},
	{"PROMPTS.md", []string{"## Phase", "### Verification Checklist"}},
	{"CLAUDE.md", []string{"# ", "## Commands"}},
	{"START_HERE.md", []string{"# ", "## Step-by-Step Setup"}},
}

// coreDocs are the documents whose unresolved-placeholder density is graded.
var coreDocs = []string{"SPEC.md", "PROMPTS.md", "README.md"}

const placeholderMarker = "[TBD"

// blockingGapCap keeps a pack with any hard gap from reading as "excellent"
// no matter how the other factors score.
const blockingGapCap = 89

type ConfidenceFactor struct {
	Name      string `json:"name"`
	MaxPoints int    `json:"max_points"`
	Points    int    `json:"points"`
	Detail    string `json:"detail"`
}

type ConfidenceReport struct {
	Score        int                `json:"score"`
	Factors      []ConfidenceFactor `json:"factors"`
	BlockingGaps []string           `json:"blocking_gaps"`
	Summary      string             `json:"summary"`
}

// AnalyzeConfidence grades a generated document set, optionally fusing in the
// pre-generation readiness report. Pure function of its inputs.
func AnalyzeConfidence(docs []store.GeneratedDocument, readiness *QualityReport) ConfidenceReport {
	byName := make(map[string]store.GeneratedDocument, len(docs))
	for _, doc := range docs {
		byName[doc.Filename] = doc
	}

	report := ConfidenceReport{BlockingGaps: []string{}}
	totalPoints, maxPoints := 0, 0
	add := func(f ConfidenceFactor) {
		totalPoints += f.Points
		maxPoints += f.MaxPoints
		report.Factors = append(report.Factors, f)
	}

	// Factor 1: required document coverage.
	present := 0
	for _, name := range requiredDocs {
		if _, ok := byName[name]; ok {
			present++
		} else {
			report.BlockingGaps = append(report.BlockingGaps, "Missing required document: "+name)
		}
	}
	add(linearFactor("Required document coverage", 30, present, len(requiredDocs),
		fmt.Sprintf("%d of %d required docs generated", present, len(requiredDocs))))

	// Factor 2: structural sanity in key files.
	passed, totalChecks := 0, 0
	for _, check := range structureChecks {
		doc, ok := byName[check.filename]
		if !ok {
			continue
		}
		for _, marker := range check.markers {
			totalChecks++
			if strings.Contains(doc.Content, marker) {
				passed++
			} else {
				report.BlockingGaps = append(report.BlockingGaps,
					fmt.Sprintf("%s missing expected section marker %q", check.filename, marker))
			}
		}
	}
	add(linearFactor("Document structure sanity", 25, passed, max(totalChecks, 1),
		fmt.Sprintf("%d of %d heading/marker checks passed", passed, totalChecks)))

	// Factor 3: unresolved placeholder density across core docs.
	placeholders, totalChars := 0, 0
	for _, name := range coreDocs {
		if doc, ok := byName[name]; ok {
			placeholders += strings.Count(doc.Content, placeholderMarker)
			totalChars += len(doc.Content)
		}
	}
	density := 1.0
	if totalChars > 0 {
		density = float64(placeholders) / float64(totalChars)
	}
	add(ConfidenceFactor{
		Name:      "Unresolved TBD density",
		MaxPoints: 20,
		Points:    placeholderPoints(density),
		Detail:    fmt.Sprintf("%d TBD markers across core docs", placeholders),
	})

	// Factor 4: readiness carry-over.
	readinessFactor := ConfidenceFactor{
		Name:      "Planning readiness carry-over",
		MaxPoints: 25,
		Points:    10,
		Detail:    "Readiness unavailable; partial default applied",
	}
	if readiness != nil {
		readinessFactor.Points = int(math.Round(float64(readiness.Score) / 100.0 * 25.0))
		readinessFactor.Detail = fmt.Sprintf("Readiness score %d carried into confidence", readiness.Score)
	}
	add(readinessFactor)

	score := 0
	if maxPoints > 0 {
		score = int(math.Round(float64(totalPoints) / float64(maxPoints) * 100.0))
	}
	if len(report.BlockingGaps) > 0 && score > blockingGapCap {
		score = blockingGapCap
	}
	report.Score = score
	report.Summary = confidenceSummary(report)
	return report
}

func linearFactor(name string, maxPoints, passed, total int, detail string) ConfidenceFactor {
	points := 0
	if total > 0 {
		points = int(math.Round(float64(passed) / float64(total) * float64(maxPoints)))
	}
	return ConfidenceFactor{Name: name, MaxPoints: maxPoints, Points: points, Detail: detail}
}

func placeholderPoints(density float64) int {
	switch {
	case density <= 0.0005:
		return 20
	case density <= 0.001:
		return 15
	case density <= 0.002:
		return 10
	case density <= 0.004:
		return 5
	default:
		return 0
	}
}

func confidenceSummary(r ConfidenceReport) string {
	if len(r.BlockingGaps) > 0 {
		return fmt.Sprintf("Confidence limited by %d blocking gap(s) in required output.", len(r.BlockingGaps))
	}
	switch {
	case r.Score >= 85:
		return "High confidence: execution pack looks complete and internally consistent."
	case r.Score >= 70:
		return "Medium confidence: pack is usable, but some structure/detail gaps remain."
	default:
		return "Low confidence: pack likely needs more clarification before implementation."
	}
}
