package advisor

import (
	"strings"
)

const systemPrompt = "You are a proof assistant librarian. Given a goal and a list " +
	"of known lemma names, reply with the lemmas most likely to close or advance " +
	"the goal, one per line, formatted as 'name: rationale'. Only use names from " +
	"the list. Reply with 'none' if nothing applies."

// buildPrompt renders the user message for a suggestion request.
func buildPrompt(goalText string, lemmas []string) string {
	var b strings.Builder
	b.WriteString("Goal:\n")
	b.WriteString(goalText)
	b.WriteString("\n\nKnown lemmas:\n")
	for _, l := range lemmas {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("\nWhich lemmas apply?")
	return b.String()
}

// parseSuggestions extracts 'name: rationale' lines from a reply,
// dropping anything that is not in the candidate pool.
func parseSuggestions(reply string, pool []string) []Suggestion {
	known := make(map[string]bool, len(pool))
	for _, n := range pool {
		known[n] = true
	}

	var out []Suggestion
	seen := make(map[string]bool)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" {
			continue
		}
		name, rationale, _ := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		// Models sometimes wrap names in backticks or quotes.
		name = strings.Trim(name, "`'\"")
		if !known[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Suggestion{
			Name:      name,
			Rationale: strings.TrimSpace(rationale),
		})
	}
	return out
}
