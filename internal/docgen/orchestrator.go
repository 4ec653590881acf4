// Package docgen turns a planning conversation into a cross-referenced set of
// execution documents, and grades both the conversation (readiness) and the
// produced documents (confidence).
package docgen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/planforge/planforge/internal/apperr"
	"github.com/planforge/planforge/internal/chat"
	"github.com/planforge/planforge/internal/provider"
	"github.com/planforge/planforge/internal/store"
)

// Temperatures for structured output: low on the first attempt, lower on the
// heading retry.
const (
	generateTemperature = 0.4
	retryTemperature    = 0.3
)

// ConversationStore is the slice of persistence the orchestrator consumes.
type ConversationStore interface {
	GetSession(ctx context.Context, id string) (store.Session, error)
	GetMessages(ctx context.Context, sessionID string) ([]store.Message, error)
	ReplaceDocuments(ctx context.Context, sessionID string, drafts []store.Draft) ([]store.GeneratedDocument, error)
}

// Progress is emitted before each document generation so a caller can render
// an N-of-M indicator.
type Progress struct {
	SessionID string `json:"session_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Filename  string `json:"filename"`
}

// Complete is emitted once after the batch is persisted.
type Complete struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"count"`
}

// EventSink receives orchestrator progress events. Implementations must not
// block; the orchestrator calls them inline between generation steps.
type EventSink interface {
	GenerateProgress(p Progress)
	GenerateComplete(c Complete)
}

// Target selects the coding agent the handoff document is written for.
type Target string

const (
	TargetClaude  Target = "claude"
	TargetCodex   Target = "codex"
	TargetCursor  Target = "cursor"
	TargetGemini  Target = "gemini"
	TargetGeneric Target = "generic"
)

type Options struct {
	// IncludeConversation adds the data-derived CONVERSATION.md transcript.
	IncludeConversation bool
	// StrictValidation fails the run when a document still lacks a heading
	// after the retry, instead of accepting it as-is.
	StrictValidation bool
	Target           Target
	// Now is injected for deterministic dates in tests; nil means time.Now.
	Now func() time.Time
}

type Orchestrator struct {
	store  ConversationStore
	llm    provider.Client
	sink   EventSink
	logger *slog.Logger
	opts   Options
}

func NewOrchestrator(cs ConversationStore, llm provider.Client, sink EventSink, logger *slog.Logger, opts Options) *Orchestrator {
	if opts.Target == "" {
		opts.Target = TargetGeneric
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{store: cs, llm: llm, sink: sink, logger: logger, opts: opts}
}

// docPlan fixes the generation order. Later documents see earlier ones in
// their prompt context, so the order is a dependency order: SPEC first,
// orientation docs last.
var docPlan = []struct {
	filename string
	template string
}{
	{"SPEC.md", specPrompt},
	{"CLAUDE.md", claudePrompt},
	{"PROMPTS.md", promptsPrompt},
	{"README.md", readmePrompt},
	{"START_HERE.md", startHerePrompt},
}

// Run generates the full document set for a session and persists it
// atomically. A provider failure on any document aborts the run with zero
// documents persisted; the provider error is returned unchanged so
// remediation hints survive.
func (o *Orchestrator) Run(ctx context.Context, sessionID string) ([]store.GeneratedDocument, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := o.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hasUserMessage := false
	for _, m := range messages {
		if m.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, apperr.New(apperr.EmptyConversation,
			"cannot generate documents from an empty conversation")
	}

	conversation := formatConversation(messages)
	today := o.opts.Now().Format("2006-01-02")
	system := strings.ReplaceAll(systemPrompt, "{current_date}", today)

	total := len(docPlan) + 1 // + MODEL_HANDOFF.md
	if o.opts.IncludeConversation {
		total++
	}

	var drafts []store.Draft
	for i, doc := range docPlan {
		o.emitProgress(Progress{SessionID: sessionID, Current: i + 1, Total: total, Filename: doc.filename})

		prompt := strings.NewReplacer(
			"{conversation_history}", conversation,
			"{current_date}", today,
			"{previously_generated_docs}", formatPriorDocs(drafts),
		).Replace(doc.template)

		content, err := o.generateValidated(ctx, sessionID, doc.filename, system, prompt)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, store.Draft{Filename: doc.filename, Content: content})
	}

	// CONVERSATION.md is derived from data, not the provider, and is exempt
	// from validation and retry.
	if o.opts.IncludeConversation {
		o.emitProgress(Progress{SessionID: sessionID, Current: total - 1, Total: total, Filename: "CONVERSATION.md"})
		drafts = append(drafts, store.Draft{
			Filename: "CONVERSATION.md",
			Content:  buildConversationDoc(session, messages),
		})
	}

	o.emitProgress(Progress{SessionID: sessionID, Current: total, Total: total, Filename: "MODEL_HANDOFF.md"})
	readiness := AnalyzeReadiness(messages)
	drafts = append(drafts, store.Draft{
		Filename: "MODEL_HANDOFF.md",
		Content:  buildHandoffDoc(session, o.opts.Target, readiness),
	})

	documents, err := o.store.ReplaceDocuments(ctx, sessionID, drafts)
	if err != nil {
		return nil, err
	}

	if o.sink != nil {
		o.sink.GenerateComplete(Complete{SessionID: sessionID, Count: len(documents)})
	}
	o.logger.Info("document generation complete",
		"session_id", sessionID,
		"documents", len(documents),
		"readiness_score", readiness.Score,
	)
	return documents, nil
}

// generateValidated invokes the provider and checks that the output begins
// with a Markdown heading, retrying once with an amended instruction. A still
// invalid document after the retry is accepted unless StrictValidation is on.
func (o *Orchestrator) generateValidated(ctx context.Context, sessionID, filename, system, prompt string) (string, error) {
	messages := []chat.Message{chat.System(system), chat.User(prompt)}

	content, err := o.llm.Generate(ctx, messages, generateTemperature)
	if err != nil {
		return "", err
	}
	if startsWithHeading(content) {
		return content, nil
	}

	o.logger.Warn("document missing heading, retrying",
		"session_id", sessionID, "filename", filename)

	retryMessages := []chat.Message{
		chat.System(system),
		chat.User(prompt + "\n\nIMPORTANT: Start with a # heading. Output only valid Markdown."),
	}
	content, err = o.llm.Generate(ctx, retryMessages, retryTemperature)
	if err != nil {
		return "", err
	}
	if !startsWithHeading(content) {
		if o.opts.StrictValidation {
			return "", apperr.Newf(apperr.ValidationFailed,
				"%s does not start with a heading after retry", filename)
		}
		o.logger.Warn("accepting document without heading after retry",
			"session_id", sessionID, "filename", filename)
	}
	return content, nil
}

func (o *Orchestrator) emitProgress(p Progress) {
	if o.sink != nil {
		o.sink.GenerateProgress(p)
	}
}

func startsWithHeading(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "#")
}

func formatConversation(messages []store.Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case "system":
			continue
		case "user":
			b.WriteString("User: ")
		case "assistant":
			b.WriteString("PlanForge: ")
		default:
			b.WriteString("Unknown: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func formatPriorDocs(drafts []store.Draft) string {
	if len(drafts) == 0 {
		return "No documents generated yet."
	}
	parts := make([]string, 0, len(drafts))
	for _, d := range drafts {
		parts = append(parts, "## "+d.Filename+"\n\n"+d.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
