package analysis

import (
	_ "embed"
	"fmt"
	"strings"
)

// Generation parameters for every analysis call.
const (
	MaxOutputTokens = 4096
	Temperature     = float32(0.1)
)

// RiskCategories are requested from the model in this order.
var RiskCategories = []string{
	"Auto-Renewal Risk",
	"Liability Risk",
	"Exit Risk",
	"Payment Risk",
	"IP Risk",
}

//go:embed prompts/system.txt
var systemPrompt string

//go:embed prompts/analysis.txt
var analysisTemplate string

// SystemPrompt returns the fixed system instruction.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

// BuildPrompt embeds contractText verbatim into the analysis template.
func BuildPrompt(contractText string) string {
	flags := make([]string, 0, len(RiskCategories))
	for _, category := range RiskCategories {
		flags = append(flags, fmt.Sprintf(`    {
      "category": %q,
      "risk_level": "Low/Medium/High",
      "reason": "",
      "clause_reference": ""
    }`, category))
	}
	// The contract is substituted last so placeholders inside it stay literal.
	tmpl := strings.Replace(analysisTemplate, "{{RISK_FLAGS}}", strings.Join(flags, ",\n"), 1)
	before, after, _ := strings.Cut(strings.TrimRight(tmpl, "\n"), "{{CONTRACT_TEXT}}")
	return before + contractText + after
}
