package docgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planforge/planforge/internal/store"
)

// buildConversationDoc renders the transcript as Markdown. Derived purely
// from data; the provider is never involved.
func buildConversationDoc(session store.Session, messages []store.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Planning Conversation\n\n", session.Name)
	b.WriteString("This is the complete planning conversation that generated these documents.\n")
	b.WriteString("Kept for reference so you can revisit why decisions were made.\n\n---\n\n")
	fmt.Fprintf(&b, "**Session started**: %s\n\n---\n\n", session.CreatedAt.Format("2006-01-02 15:04:05"))

	for _, m := range messages {
		switch m.Role {
		case "system":
			continue
		case "user":
			b.WriteString("**User**: ")
		case "assistant":
			b.WriteString("**PlanForge**: ")
		default:
			b.WriteString("**Unknown**: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n\n")

		if m.Metadata != "" {
			var meta struct {
				SearchQuery string `json:"search_query"`
			}
			if json.Unmarshal([]byte(m.Metadata), &meta) == nil && meta.SearchQuery != "" {
				fmt.Fprintf(&b, "*[Searched: %s]*\n\n", meta.SearchQuery)
			}
		}
	}

	fmt.Fprintf(&b, "---\n\n**Session ended**: %s\n", session.UpdatedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

var targetNames = map[Target]string{
	TargetClaude:  "Claude Code",
	TargetCodex:   "OpenAI Codex",
	TargetCursor:  "Cursor Agent",
	TargetGemini:  "Gemini CLI/Agent",
	TargetGeneric: "Any Coding Model",
}

var targetHeaders = map[Target]string{
	TargetClaude:  "Use `PROMPTS.md` phases directly in Claude Code, keeping checks after each phase.\n",
	TargetCodex:   "Ask Codex to execute one phase at a time from `PROMPTS.md`, always running verification commands before moving to the next phase.\n",
	TargetCursor:  "Use Cursor Agent with one phase at a time, then apply and verify before continuing.\n",
	TargetGemini:  "Use Gemini with explicit phase boundaries and require command output summaries after each phase.\n",
	TargetGeneric: "Use any coding model by enforcing phase-by-phase execution from `PROMPTS.md` with validation gates between phases.\n",
}

// buildHandoffDoc renders MODEL_HANDOFF.md with the readiness report folded
// in, so gaps travel with the pack.
func buildHandoffDoc(session store.Session, target Target, readiness QualityReport) string {
	name, ok := targetNames[target]
	if !ok {
		name = targetNames[TargetGeneric]
		target = TargetGeneric
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Model Handoff (%s)\n\n", target)
	fmt.Fprintf(&b, "This execution pack was generated for **%s** and can be adapted for other coding agents.\n\n", name)
	b.WriteString("## Session\n\n")
	fmt.Fprintf(&b, "- Project: **%s**\n", session.Name)
	fmt.Fprintf(&b, "- Created: %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Planning score: **%d/100**\n\n", readiness.Score)
	b.WriteString("## Use This Order\n\n")
	b.WriteString("1. Read `START_HERE.md`\n2. Read `SPEC.md`\n3. Read `PROMPTS.md`\n")
	b.WriteString("4. Read `CLAUDE.md` for repo conventions (applies broadly even for non-Claude targets)\n\n")

	if len(readiness.MissingMustHaves) > 0 {
		b.WriteString("## Missing Must-Haves\n\n")
		for _, item := range readiness.MissingMustHaves {
			b.WriteString("- " + item + "\n")
		}
		b.WriteString("\n")
	}
	if len(readiness.MissingShouldHaves) > 0 {
		b.WriteString("## Missing Should-Haves\n\n")
		for _, item := range readiness.MissingShouldHaves {
			b.WriteString("- " + item + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Target-Specific Prompt Header\n\n")
	b.WriteString(targetHeaders[target])
	b.WriteString("\n## Reliability Rules\n\n")
	b.WriteString("- Do not skip tests/checks listed in this plan.\n")
	b.WriteString("- Do not rewrite architecture unless required by a failing constraint.\n")
	b.WriteString("- Keep commits small and scoped to one logical fix/change.\n")
	return b.String()
}
