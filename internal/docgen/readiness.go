package docgen

import (
	"fmt"
	"strings"

	"github.com/planforge/planforge/internal/store"
)

// Topic coverage is keyword matching, deliberately. The contract is
// deterministic, reproducible scoring: a topic discussed with vocabulary
// outside these sets counts as missing, and that's acceptable.

type topic struct {
	name     string
	keywords []string
}

var mustHaveTopics = []topic{
	{"Problem statement / why this exists",
		[]string{"problem", "goal", "why", "build", "need", "pain point"}},
	{"Core user flow (step-by-step)",
		[]string{"flow", "workflow", "step", "screen", "journey", "user does"}},
	{"Tech stack with rationale",
		[]string{"stack", "react", "rust", "database", "framework", "tauri", "why this"}},
	{"Data model / persistence strategy",
		[]string{"data", "schema", "entity", "table", "persist", "storage"}},
	{"Scope boundaries (what is out for v1)",
		[]string{"scope", "mvp", "v1", "out of scope", "not included", "later"}},
}

var shouldHaveTopics = []topic{
	{"Error handling approach",
		[]string{"error", "failure", "retry", "fallback", "recover"}},
	{"Design trade-offs / decisions",
		[]string{"trade-off", "tradeoff", "decision", "chose", "alternative"}},
	{"Testing strategy",
		[]string{"test", "verification", "qa", "integration test", "unit test"}},
	{"Security considerations",
		[]string{"security", "auth", "permissions", "privacy", "threat"}},
	{"Performance requirements",
		[]string{"performance", "latency", "throughput", "memory", "optimize"}},
}

const (
	mustHavePenalty   = 14
	shouldHavePenalty = 6
)

type CoverageStatus string

const (
	CoverageMissing CoverageStatus = "missing"
	CoveragePartial CoverageStatus = "partial"
	CoverageCovered CoverageStatus = "covered"
)

// TopicCoverage records how a topic scored and which keywords were the
// evidence.
type TopicCoverage struct {
	Topic    string         `json:"topic"`
	MustHave bool           `json:"must_have"`
	Status   CoverageStatus `json:"status"`
	Evidence []string       `json:"evidence,omitempty"`
}

// QualityReport is the pre-generation readiness estimate over a transcript.
type QualityReport struct {
	Score              int             `json:"score"`
	MissingMustHaves   []string        `json:"missing_must_haves"`
	MissingShouldHaves []string        `json:"missing_should_haves"`
	Coverage           []TopicCoverage `json:"coverage"`
	Summary            string          `json:"summary"`
}

// AnalyzeReadiness grades how well the conversation covers the planning
// topics. A topic is covered only when at least two distinct keywords match
// across at least two distinct messages; a single keyword-stuffed message can
// at best reach partial. Score = 100 − 14·|missing must| − 6·|missing should|,
// clamped to [0, 100].
func AnalyzeReadiness(messages []store.Message) QualityReport {
	var corpus []string
	for _, m := range messages {
		if m.Role == "system" {
			continue
		}
		corpus = append(corpus, strings.ToLower(m.Content))
	}

	report := QualityReport{
		MissingMustHaves:   []string{},
		MissingShouldHaves: []string{},
	}

	for _, t := range mustHaveTopics {
		cov := coverTopic(t, true, corpus)
		report.Coverage = append(report.Coverage, cov)
		if cov.Status == CoverageMissing {
			report.MissingMustHaves = append(report.MissingMustHaves, t.name)
		}
	}
	for _, t := range shouldHaveTopics {
		cov := coverTopic(t, false, corpus)
		report.Coverage = append(report.Coverage, cov)
		if cov.Status == CoverageMissing {
			report.MissingShouldHaves = append(report.MissingShouldHaves, t.name)
		}
	}

	score := 100 - len(report.MissingMustHaves)*mustHavePenalty - len(report.MissingShouldHaves)*shouldHavePenalty
	if score < 0 {
		score = 0
	}
	report.Score = score
	report.Summary = readinessSummary(report)
	return report
}

func coverTopic(t topic, mustHave bool, corpus []string) TopicCoverage {
	matched := []string{}
	messagesWithHit := 0
	for _, msg := range corpus {
		hit := false
		for _, kw := range t.keywords {
			if strings.Contains(msg, kw) {
				hit = true
				if !containsString(matched, kw) {
					matched = append(matched, kw)
				}
			}
		}
		if hit {
			messagesWithHit++
		}
	}

	cov := TopicCoverage{Topic: t.name, MustHave: mustHave, Evidence: matched}
	switch {
	case len(matched) == 0:
		cov.Status = CoverageMissing
	case len(matched) >= 2 && messagesWithHit >= 2:
		cov.Status = CoverageCovered
	default:
		cov.Status = CoveragePartial
	}
	return cov
}

func readinessSummary(r QualityReport) string {
	switch {
	case len(r.MissingMustHaves) == 0 && len(r.MissingShouldHaves) == 0:
		return "Planning coverage looks strong. You can generate with high confidence."
	case len(r.MissingMustHaves) == 0:
		return fmt.Sprintf("Core planning coverage is good. %d optional topic(s) are still thin.",
			len(r.MissingShouldHaves))
	default:
		return fmt.Sprintf("%d must-have topic(s) are missing. You can still generate, but expect [TBD] sections.",
			len(r.MissingMustHaves))
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
