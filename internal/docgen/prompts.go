package docgen

// Prompt templates for the generated execution pack. Placeholders:
// {conversation_history}, {current_date}, {previously_generated_docs}.

const systemPrompt = `You are the document generator for PlanForge. You transform planning conversations into specific, actionable documentation for AI coding tools.

## Rules

1. Use ONLY information explicitly discussed or decided in the conversation.
2. Use exact names, versions, and details from the conversation.
3. Mark anything undiscussed as "[TBD — not discussed during planning]".
4. Use today's date: {current_date}.
5. Write data models in the project's actual programming language, never pseudocode JSON.
6. Cross-reference previously generated documents when provided.

Never invent features, performance numbers, file layouts, example data, or
verification commands that don't match the agreed tech stack. When unsure
about a term, mark it [TBD] instead of silently interpreting it.

Categorize extracted information as Decided (explicit choice — include with
confidence), Implied (reasonable inference — include but note the assumption),
or Unknown (not discussed — mark [TBD] with a recommendation to discuss).`

const specPrompt = `Generate SPEC.md based on the planning conversation.

## Structure

### 1. Overview
Project name, one-line description, who it's for, why it exists.

### 2. Goals
Only goals explicitly stated or clearly implied. Be specific.

### 3. Non-Goals (Explicitly Out of Scope)
Things ruled out or deferred during conversation. If scope boundaries weren't
discussed: "[TBD — scope boundaries not discussed. Recommend defining before implementation.]"

### 4. User Stories
"As a [user type], I want to [specific action] so that [concrete benefit]" —
only for features actually discussed.

### 5. Technical Architecture
Tech stack table (layer, technology, version, rationale) — only technologies
explicitly chosen. Interface contract between components (endpoints, commands,
or public API, written as real signatures where the conversation covered
enough detail). Data models in the project's actual language.

### 6. Features
For each discussed feature: description, acceptance criteria, edge cases
(only if discussed).

### 7. Error Handling / 8. Security / 9. Open Questions
Only strategies actually discussed; otherwise [TBD] with a recommendation.
Consolidate unresolved items under Open Questions.

<previously_generated_documents>
{previously_generated_docs}
</previously_generated_documents>

<conversation>
{conversation_history}
</conversation>

Generate SPEC.md now:`

const claudePrompt = `Generate CLAUDE.md — the file a coding agent reads every interaction to understand the project.

## Structure

### Project Name
One-line description.

### Tech Stack
Exact technologies with versions, one per line.

### Commands
Under a "## Commands" heading: the real build, test, lint, and run commands
for the agreed stack. No commands for tools the project doesn't use.

### Architecture
Directory layout and component responsibilities, only as discussed.

### Conventions
Code style, naming, error handling, and testing conventions from the
conversation; [TBD] where they weren't covered.

### Things To Never Do
Constraints and anti-patterns the user called out.

<previously_generated_documents>
{previously_generated_docs}
</previously_generated_documents>

<conversation>
{conversation_history}
</conversation>

Generate CLAUDE.md now:`

const promptsPrompt = `Generate PROMPTS.md — the step-by-step implementation guide for a coding agent.

## Structure

Break the build into ordered phases. For each phase use a "## Phase N: <name>"
heading containing:
- The prompt to paste into the coding agent, referencing SPEC.md sections.
- What the phase delivers.
- A "### Verification Checklist" with commands/checks that prove the phase
  works on the agreed stack.

Phases must be small enough that each one is verifiable before the next
begins. Derive the phase ordering from the dependencies discussed in the
conversation (data layer before features that need it, and so on).

<previously_generated_documents>
{previously_generated_docs}
</previously_generated_documents>

<conversation>
{conversation_history}
</conversation>

Generate PROMPTS.md now:`

const readmePrompt = `Generate README.md — a planning-stage orientation document.

Open with the project name and one-line description, then:
"Generated by PlanForge on {current_date}"

Sections: what this project is, current status (planning complete, not yet
implemented), the document map (what each generated file is for), and how to
start implementation. Keep it short; this is orientation, not marketing.

<previously_generated_documents>
{previously_generated_docs}
</previously_generated_documents>

<conversation>
{conversation_history}
</conversation>

Generate README.md now:`

const startHerePrompt = `Generate START_HERE.md — the bridge document for users who are new to AI coding tools or non-technical.

## Structure

### What You Have
Plain-language summary of the planned project and the generated documents.

### Step-by-Step Setup
Under a "## Step-by-Step Setup" heading: numbered, concrete steps to go from
these documents to a running implementation with a coding agent — which file
to open first, what to paste where, what to check after each step. Assume no
prior experience with AI coding tools.

### If Something Goes Wrong
Plain-language recovery guidance tied to the agreed stack.

<previously_generated_documents>
{previously_generated_docs}
</previously_generated_documents>

<conversation>
{conversation_history}
</conversation>

Generate START_HERE.md now:`
