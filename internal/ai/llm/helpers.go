package llm

import (
	"strings"
)

// ExtractJSON pulls the JSON payload out of a model response. Models
// sometimes wrap JSON in markdown fences or surround it with prose even
// when asked not to; this trims fences and falls back to the outermost
// brace or bracket pair.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if i := strings.LastIndex(content, "```"); i >= 0 {
			content = content[:i]
		}
		content = strings.TrimSpace(content)
	}

	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return content
	}

	best := ""
	bestStart := len(content)
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start && start < bestStart {
			best = content[start : end+1]
			bestStart = start
		}
	}
	if best != "" {
		return best
	}
	return content
}
