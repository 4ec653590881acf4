package docgen

import (
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/store"
)

func userMsg(content string) store.Message {
	return store.Message{Role: "user", Content: content}
}

func assistantMsg(content string) store.Message {
	return store.Message{Role: "assistant", Content: content}
}

func TestAnalyzeReadiness_EmptyTranscript(t *testing.T) {
	report := AnalyzeReadiness(nil)

	if report.Score != 0 {
		t.Errorf("score = %d, want 0 (100 - 5*14 - 5*6 clamps below zero)", report.Score)
	}
	if len(report.MissingMustHaves) != 5 {
		t.Errorf("missing must-haves = %d, want 5", len(report.MissingMustHaves))
	}
	if len(report.MissingShouldHaves) != 5 {
		t.Errorf("missing should-haves = %d, want 5", len(report.MissingShouldHaves))
	}
	if len(report.Coverage) != 10 {
		t.Errorf("coverage entries = %d, want 10", len(report.Coverage))
	}
}

func TestAnalyzeReadiness_SystemMessagesExcluded(t *testing.T) {
	messages := []store.Message{
		{Role: "system", Content: "problem goal flow workflow data schema stack react scope mvp"},
		{Role: "system", Content: "error retry test security performance decision chose"},
	}
	report := AnalyzeReadiness(messages)
	if report.Score != 0 {
		t.Errorf("score = %d, want 0; system messages must not contribute evidence", report.Score)
	}
}

func TestAnalyzeReadiness_FullCoverage(t *testing.T) {
	messages := []store.Message{
		userMsg("The problem is tracking invoices; my goal is a simple tool."),
		assistantMsg("What is the core user flow, step by step?"),
		userMsg("The flow: user uploads a PDF, reviews each step, exports."),
		userMsg("Stack: react frontend, rust backend, sqlite database."),
		assistantMsg("Good stack. What data do you persist and what schema?"),
		userMsg("Data model: invoice table, line items entity, local storage."),
		userMsg("Scope for v1 is upload and export; mvp excludes sharing, that's later."),
		assistantMsg("Out of scope for v1 then. How do you handle an error or failure?"),
		userMsg("On failure we retry once, then show a recover dialog. Error states are logged."),
		userMsg("Trade-off wise, we chose sqlite over postgres; the alternative added ops cost."),
		assistantMsg("What's your testing strategy? A decision on integration test coverage helps."),
		userMsg("Unit test for parsing plus one integration test per flow."),
		userMsg("Security: local-only auth, no cloud, privacy by default. Permissions stay simple."),
		assistantMsg("Any threat model beyond local? And performance needs?"),
		userMsg("Performance: parsing latency under a second, low memory use."),
	}

	report := AnalyzeReadiness(messages)
	if len(report.MissingMustHaves) != 0 {
		t.Fatalf("missing must-haves = %v, want none", report.MissingMustHaves)
	}
	if len(report.MissingShouldHaves) != 0 {
		t.Fatalf("missing should-haves = %v, want none", report.MissingShouldHaves)
	}
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if !strings.Contains(report.Summary, "high confidence") {
		t.Errorf("summary = %q", report.Summary)
	}
}

func TestAnalyzeReadiness_SingleMessageIsAtBestPartial(t *testing.T) {
	// Every keyword for one topic stuffed into one message: two distinct
	// keywords but only one message with a hit, so partial, not covered.
	messages := []store.Message{
		userMsg("problem goal why build need pain point"),
	}
	report := AnalyzeReadiness(messages)

	var problemTopic *TopicCoverage
	for i := range report.Coverage {
		if strings.HasPrefix(report.Coverage[i].Topic, "Problem statement") {
			problemTopic = &report.Coverage[i]
		}
	}
	if problemTopic == nil {
		t.Fatal("problem statement topic not in coverage")
	}
	if problemTopic.Status != CoveragePartial {
		t.Errorf("status = %s, want partial", problemTopic.Status)
	}
	// Partial does not deduct.
	for _, m := range report.MissingMustHaves {
		if strings.HasPrefix(m, "Problem statement") {
			t.Error("partial topic listed as missing")
		}
	}
}

func TestAnalyzeReadiness_ScoreArithmetic(t *testing.T) {
	// Cover everything except one must-have and two should-haves, spread over
	// multiple messages so coverage is "covered" where intended.
	messages := []store.Message{
		userMsg("The problem is X; the flow has three steps. We persist data in a table."),
		userMsg("My goal drives the workflow. The schema covers every entity. Scope is a small mvp."),
		userMsg("Out of scope: sync, that comes later. On error we retry; failure paths recover."),
		userMsg("We wrote a unit test and an integration test; verification is automated."),
		userMsg("Trade-off: we chose the simple alternative. That decision is recorded."),
	}
	report := AnalyzeReadiness(messages)

	// Tech stack must-have missing; security + performance should-haves missing.
	if len(report.MissingMustHaves) != 1 {
		t.Fatalf("missing must-haves = %v, want exactly 1", report.MissingMustHaves)
	}
	if len(report.MissingShouldHaves) != 2 {
		t.Fatalf("missing should-haves = %v, want exactly 2", report.MissingShouldHaves)
	}
	want := 100 - 1*14 - 2*6
	if report.Score != want {
		t.Errorf("score = %d, want %d", report.Score, want)
	}
	if !strings.Contains(report.Summary, "must-have") {
		t.Errorf("summary = %q, want must-have warning", report.Summary)
	}
}

func TestAnalyzeReadiness_EvidenceRecorded(t *testing.T) {
	messages := []store.Message{
		userMsg("the problem is real"),
		userMsg("my goal is clear"),
	}
	report := AnalyzeReadiness(messages)
	cov := report.Coverage[0]
	if cov.Status != CoverageCovered {
		t.Fatalf("status = %s, want covered", cov.Status)
	}
	if len(cov.Evidence) != 2 {
		t.Errorf("evidence = %v, want the two matched keywords", cov.Evidence)
	}
}
