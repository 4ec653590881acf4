package search

import "strings"

var techKeywords = []string{
	"react", "vue", "angular", "svelte", "next.js", "nextjs", "nuxt",
	"typescript", "javascript", "python", "rust", "go", "golang", "java",
	"kotlin", "swift", "node", "deno", "bun",
	"postgres", "postgresql", "mysql", "mongodb", "redis", "sqlite",
	"docker", "kubernetes", "k8s", "aws", "gcp", "azure", "terraform",
	"graphql", "rest api", "grpc", "webpack", "vite", "tailwind",
	"prisma", "drizzle", "supabase", "firebase", "tauri",
}

var triggerPatterns = []string{
	" vs ", " versus ", "should i use", "best practice", "best way to",
	"how to implement", "latest version", "what is the difference",
	"compare ", "comparison", "recommend", "alternative to",
	"pros and cons", "trade-off", "tradeoff", "which is better",
}

// ShouldSearch decides whether a user message warrants a web search and, if
// so, returns the query to run. A message must contain both a trigger phrase
// and a tech keyword; casual planning chatter stays offline.
func ShouldSearch(message string) (string, bool) {
	lower := strings.ToLower(message)

	hasTrigger := false
	for _, p := range triggerPatterns {
		if strings.Contains(lower, p) {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		return "", false
	}

	hasTech := false
	for _, k := range techKeywords {
		if strings.Contains(lower, k) {
			hasTech = true
			break
		}
	}
	if !hasTech {
		return "", false
	}

	return buildQuery(message), true
}

func buildQuery(message string) string {
	if q, ok := comparisonQuery(strings.ToLower(message)); ok {
		return q
	}

	cleaned := strings.TrimFunc(message, func(r rune) bool {
		return !isAlphanumeric(r) && r != '?'
	})

	// Cap at ~80 chars, breaking at a word boundary.
	runes := []rune(cleaned)
	if len(runes) > 80 {
		truncated := string(runes[:80])
		if i := strings.LastIndex(truncated, " "); i > 0 {
			truncated = truncated[:i]
		}
		return truncated
	}
	return cleaned
}

// comparisonQuery turns "react vs vue" into "react vs vue comparison".
func comparisonQuery(lower string) (string, bool) {
	sep := ""
	switch {
	case strings.Contains(lower, " vs "):
		sep = " vs "
	case strings.Contains(lower, " versus "):
		sep = " versus "
	default:
		return "", false
	}

	parts := strings.SplitN(lower, sep, 2)
	left := strings.Fields(parts[0])
	right := strings.Fields(parts[1])
	if len(left) == 0 || len(right) == 0 {
		return "", false
	}

	a := strings.Trim(left[len(left)-1], "?.,!")
	b := strings.Trim(right[0], "?.,!")
	if a == "" || b == "" {
		return "", false
	}
	return a + " vs " + b + " comparison", true
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
