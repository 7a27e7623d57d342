package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// MinContractChars is the smallest trimmed contract accepted for analysis.
	MinContractChars = 50
	// TruncationNotice is appended to contracts cut down to the configured maximum.
	TruncationNotice = "\n\n[NOTE: Contract was truncated to fit token limits.]"

	pageSeparator = "\n\n"
)

var (
	ErrInputTooShort = errors.New("contract text is too short")
	ErrUnreadablePDF = errors.New("no readable text found in the PDF")
)

// Source identifies where a contract came from.
type Source string

const (
	SourceText Source = "text"
	SourcePDF  Source = "pdf"
)

// Contract is the normalized plain-text contract handed to the model.
type Contract struct {
	Text          string
	Source        Source
	Pages         int
	OriginalChars int
	Truncated     bool
}

// PageExtractor returns the plain text of each page of a PDF, in order.
type PageExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// Normalizer turns raw text or PDF bytes into a Contract.
type Normalizer struct {
	Pages PageExtractor
}

// NewNormalizer returns a Normalizer backed by the ledongthuc/pdf extractor.
func NewNormalizer() *Normalizer {
	return &Normalizer{Pages: PDFPages{}}
}

// FromText accepts pasted contract text as-is and applies the length rules.
func (n *Normalizer) FromText(text string, maxChars int) (Contract, error) {
	if chars := trimmedLen(text); chars < MinContractChars {
		return Contract{}, fmt.Errorf("%w: got %d characters, need at least %d", ErrInputTooShort, chars, MinContractChars)
	}
	return finish(text, SourceText, 0, maxChars), nil
}

// FromPDF extracts page text, skipping empty pages and joining the rest with a
// blank line. Any extractor failure, or a document with no text at all, is
// reported as ErrUnreadablePDF since scanned documents are the usual cause.
func (n *Normalizer) FromPDF(ctx context.Context, data []byte, maxChars int) (Contract, error) {
	if err := ctx.Err(); err != nil {
		return Contract{}, err
	}
	extractor := n.Pages
	if extractor == nil {
		extractor = PDFPages{}
	}

	pages, err := extractor.ExtractPages(ctx, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Contract{}, ctxErr
		}
		return Contract{}, fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if trimmed := strings.TrimSpace(page); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return Contract{}, fmt.Errorf("%w: %d pages without extractable text", ErrUnreadablePDF, len(pages))
	}

	text := strings.Join(parts, pageSeparator)
	if chars := trimmedLen(text); chars < MinContractChars {
		return Contract{}, fmt.Errorf("%w: extracted %d characters, need at least %d", ErrInputTooShort, chars, MinContractChars)
	}
	return finish(text, SourcePDF, len(pages), maxChars), nil
}

// Truncate cuts text to maxChars characters and appends TruncationNotice.
// It reports whether anything was cut. A non-positive maxChars disables it.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:maxChars]) + TruncationNotice, true
}

// IsPDFName reports whether an uploaded file name looks like a PDF.
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ".pdf")
}

func finish(text string, source Source, pages int, maxChars int) Contract {
	original := utf8.RuneCountInString(text)
	out, truncated := Truncate(text, maxChars)
	return Contract{
		Text:          out,
		Source:        source,
		Pages:         pages,
		OriginalChars: original,
		Truncated:     truncated,
	}
}

func trimmedLen(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}
