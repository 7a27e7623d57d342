package analysis

import "strings"

// StripCodeFence removes a markdown code fence wrapped around a model reply.
// When the trimmed reply starts with ``` the first and last lines are dropped.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}
