package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseResult decodes a model reply into an AnalysisResult.
// Undecodable text fails with KindMalformedModelOutput, a decodable value
// with a wrongly typed field fails with KindSchemaMismatch. Absent fields
// keep the values from DefaultResult.
func ParseResult(raw string) (*AnalysisResult, error) {
	text := StripCodeFence(raw)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		excerpt := Excerpt(text)
		return nil, &Error{
			Kind:    KindMalformedModelOutput,
			Message: fmt.Sprintf("The model returned an invalid JSON response. Parse error: %v\nRaw response: %s", err, excerpt),
			Excerpt: excerpt,
			Err:     err,
		}
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, newError(KindInternal, msgInternal, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, newError(KindSchemaMismatch, schemaMessage(err), err)
	}

	result := DefaultResult()
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, newError(KindSchemaMismatch, "The model response does not match the expected analysis format: "+err.Error(), err)
	}
	result.normalize()
	return &result, nil
}

// Excerpt returns at most the first 500 characters of text.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= excerptLimit {
		return text
	}
	return string([]rune(text)[:excerptLimit])
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "The model response does not match the expected analysis format."
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("The model response does not match the expected analysis format at %s: %s", location, leaf.Message)
}
