package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"contractbot-backend/internal/extract"
	"contractbot-backend/internal/llm"
)

// Kind classifies an analysis failure.
type Kind string

const (
	KindBadRequest           Kind = "BadRequest"
	KindInputTooShort        Kind = "InputTooShort"
	KindUnsupportedFile      Kind = "UnsupportedFile"
	KindPDFTooLarge          Kind = "PdfTooLarge"
	KindUnreadablePDF        Kind = "UnreadablePdf"
	KindMissingCredentials   Kind = "MissingCredentials"
	KindUpstreamError        Kind = "UpstreamError"
	KindMalformedModelOutput Kind = "MalformedModelOutput"
	KindSchemaMismatch       Kind = "SchemaMismatch"
	KindInternal             Kind = "Internal"
)

// Caller-facing messages.
const (
	msgInputTooShort   = "Contract text is too short or empty. Please provide the full contract text."
	msgUnsupportedFile = "Only PDF files are supported. Please upload a .pdf file."
	msgUnreadablePDF   = "No readable text found in the PDF. The file may be scanned or image-based."
	msgPDFTooShort     = "Could not extract meaningful text from the PDF. It may be scanned or image-based."
	msgInternal        = "Analysis failed: unexpected server error"
)

// excerptLimit bounds the raw model output kept on MalformedModelOutput.
const excerptLimit = 500

// Error is the single failure type surfaced by the pipeline.
type Error struct {
	Kind    Kind
	Message string
	// Excerpt holds the start of the raw model output for MalformedModelOutput.
	Excerpt string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// UnsupportedFile reports an upload that is not a PDF.
func UnsupportedFile() *Error {
	return newError(KindUnsupportedFile, msgUnsupportedFile, nil)
}

// PDFTooLarge reports an upload over maxBytes.
func PDFTooLarge(maxBytes int64) *Error {
	return newError(KindPDFTooLarge, fmt.Sprintf("PDF file is too large. Maximum allowed size is %s.", humanSize(maxBytes)), nil)
}

// KindOf returns the kind of err, or KindInternal when it carries none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps a failure kind onto a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindBadRequest, KindInputTooShort, KindUnsupportedFile:
		return http.StatusBadRequest
	case KindPDFTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnreadablePDF, KindMalformedModelOutput, KindSchemaMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// classify turns an error from the normalizer or the model client into *Error.
func classify(err error, source extract.Source) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, extract.ErrInputTooShort) && source == extract.SourcePDF:
		return newError(KindInputTooShort, msgPDFTooShort, err)
	case errors.Is(err, extract.ErrInputTooShort):
		return newError(KindInputTooShort, msgInputTooShort, err)
	case errors.Is(err, extract.ErrUnreadablePDF):
		return newError(KindUnreadablePDF, msgUnreadablePDF, err)
	case errors.Is(err, llm.ErrMissingCredentials):
		return newError(KindMissingCredentials, err.Error(), err)
	case errors.Is(err, llm.ErrUpstream),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return newError(KindUpstreamError, "Analysis failed: "+err.Error(), err)
	default:
		return newError(KindInternal, msgInternal, err)
	}
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
