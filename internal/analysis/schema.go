package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Auto-renewal values.
const (
	AutoRenewalYes      = "Yes"
	AutoRenewalNo       = "No"
	AutoRenewalNotFound = "Not Found"
)

// Risk levels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// AnalysisResult is the structured analysis returned to callers.
type AnalysisResult struct {
	PlainEnglishSummary       string                `json:"plain_english_summary"`
	KeyParties                KeyParties            `json:"key_parties"`
	ContractDuration          ContractDuration      `json:"contract_duration"`
	PaymentTerms              PaymentTerms          `json:"payment_terms"`
	TerminationClauses        TerminationClauses    `json:"termination_clauses"`
	ConfidentialityTerms      string                `json:"confidentiality_terms"`
	IntellectualPropertyTerms string                `json:"intellectual_property_terms"`
	LiabilityAndIndemnity     LiabilityAndIndemnity `json:"liability_and_indemnity"`
	RiskFlags                 []RiskFlag            `json:"risk_flags"`
	UnusualOrRiskyClauses     []UnusualClause       `json:"unusual_or_risky_clauses"`
}

type KeyParties struct {
	Party1       string   `json:"party_1"`
	Party2       string   `json:"party_2"`
	OtherParties []string `json:"other_parties"`
}

type ContractDuration struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	RenewalTerms string `json:"renewal_terms"`
	AutoRenewal  string `json:"auto_renewal"`
}

type PaymentTerms struct {
	Amounts         string `json:"amounts"`
	PaymentSchedule string `json:"payment_schedule"`
	LateFees        string `json:"late_fees"`
	RefundPolicy    string `json:"refund_policy"`
}

type TerminationClauses struct {
	TerminationForConvenience string `json:"termination_for_convenience"`
	TerminationForCause       string `json:"termination_for_cause"`
	NoticePeriod              string `json:"notice_period"`
	ExitConditions            string `json:"exit_conditions"`
}

type LiabilityAndIndemnity struct {
	LiabilityCap          string `json:"liability_cap"`
	IndemnificationClause string `json:"indemnification_clause"`
}

type RiskFlag struct {
	Category        string `json:"category"`
	RiskLevel       string `json:"risk_level"`
	Reason          string `json:"reason"`
	ClauseReference string `json:"clause_reference"`
}

type UnusualClause struct {
	Clause       string `json:"clause"`
	WhyItIsRisky string `json:"why_it_is_risky"`
}

// DefaultResult is the value every absent field falls back to.
func DefaultResult() AnalysisResult {
	return AnalysisResult{
		KeyParties:            KeyParties{OtherParties: []string{}},
		ContractDuration:      ContractDuration{AutoRenewal: AutoRenewalNotFound},
		RiskFlags:             []RiskFlag{},
		UnusualOrRiskyClauses: []UnusualClause{},
	}
}

// normalize replaces nil slices and folds enum values onto their canonical case.
func (r *AnalysisResult) normalize() {
	if r.KeyParties.OtherParties == nil {
		r.KeyParties.OtherParties = []string{}
	}
	if r.RiskFlags == nil {
		r.RiskFlags = []RiskFlag{}
	}
	if r.UnusualOrRiskyClauses == nil {
		r.UnusualOrRiskyClauses = []UnusualClause{}
	}
	r.ContractDuration.AutoRenewal = canonical(r.ContractDuration.AutoRenewal, AutoRenewalYes, AutoRenewalNo, AutoRenewalNotFound)
	for i := range r.RiskFlags {
		r.RiskFlags[i].RiskLevel = canonical(r.RiskFlags[i].RiskLevel, RiskLow, RiskMedium, RiskHigh)
	}
}

func canonical(value string, allowed ...string) string {
	trimmed := strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(trimmed, a) {
			return a
		}
	}
	return value
}

func stringProp() map[string]any { return map[string]any{"type": "string"} }

func objectOf(fields ...string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = stringProp()
	}
	return map[string]any{"type": "object", "properties": props}
}

// resultSchema declares a type for every field and requires none of them.
func resultSchema() map[string]any {
	keyParties := objectOf("party_1", "party_2")
	keyParties["properties"].(map[string]any)["other_parties"] = map[string]any{
		"type":  "array",
		"items": stringProp(),
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"plain_english_summary":       stringProp(),
			"key_parties":                 keyParties,
			"contract_duration":           objectOf("start_date", "end_date", "renewal_terms", "auto_renewal"),
			"payment_terms":               objectOf("amounts", "payment_schedule", "late_fees", "refund_policy"),
			"termination_clauses":         objectOf("termination_for_convenience", "termination_for_cause", "notice_period", "exit_conditions"),
			"confidentiality_terms":       stringProp(),
			"intellectual_property_terms": stringProp(),
			"liability_and_indemnity":     objectOf("liability_cap", "indemnification_clause"),
			"risk_flags": map[string]any{
				"type":  "array",
				"items": objectOf("category", "risk_level", "reason", "clause_reference"),
			},
			"unusual_or_risky_clauses": map[string]any{
				"type":  "array",
				"items": objectOf("clause", "why_it_is_risky"),
			},
		},
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(resultSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("analysis.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})
