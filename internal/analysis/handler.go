package analysis

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/extract"
	"contractbot-backend/internal/shared/server/middleware"
	"contractbot-backend/internal/shared/server/respond"
	"contractbot-backend/internal/shared/telemetry"
)

// multipartOverhead is the room left for multipart framing above the PDF limit.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the analysis pipeline.
type Handler struct {
	Pipeline *Pipeline
}

// NewHandler constructs a Handler.
func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/analyze/text", h.analyzeText)
	rg.POST("/analyze/pdf", h.analyzePDF)
}

type analyzeTextRequest struct {
	ContractText string `json:"contract_text"`
}

func (h *Handler) analyzeText(c *gin.Context) {
	c.Set(middleware.AnalysisSourceKey, string(extract.SourceText))

	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, newError(KindBadRequest, "Request body must be JSON with a contract_text field.", err))
		return
	}

	result, outcome, err := h.Pipeline.AnalyzeText(c.Request.Context(), req.ContractText)
	h.finish(c, result, outcome, err)
}

// analyzePDF streams the multipart body. The "file" part is read at most one
// byte past the limit, and a declared body size over the limit is rejected
// before anything is read.
func (h *Handler) analyzePDF(c *gin.Context) {
	c.Set(middleware.AnalysisSourceKey, string(extract.SourcePDF))
	maxBytes := h.Pipeline.MaxPDFBytes()
	if c.Request.ContentLength > maxBytes+multipartOverhead {
		h.fail(c, PDFTooLarge(maxBytes))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		h.fail(c, missingUpload(err))
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		h.fail(c, uploadError(err, maxBytes))
		return
	}
	defer part.Close()

	if !extract.IsPDFName(part.FileName()) {
		h.fail(c, UnsupportedFile())
		return
	}

	data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
	if err != nil {
		h.fail(c, uploadError(err, maxBytes))
		return
	}
	if int64(len(data)) > maxBytes {
		h.fail(c, PDFTooLarge(maxBytes))
		return
	}

	result, outcome, err := h.Pipeline.AnalyzePDF(c.Request.Context(), data, int64(len(data)))
	h.finish(c, result, outcome, err)
}

// nextFilePart skips form fields until the "file" part.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		_ = part.Close()
	}
}

func missingUpload(err error) *Error {
	return newError(KindUnsupportedFile, "A PDF upload in the \"file\" form field is required.", err)
}

func uploadError(err error, maxBytes int64) *Error {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		return PDFTooLarge(maxBytes)
	case errors.Is(err, io.EOF):
		return missingUpload(err)
	default:
		return newError(KindBadRequest, "PDF upload could not be read.", err)
	}
}

func (h *Handler) finish(c *gin.Context, result *AnalysisResult, outcome Outcome, err error) {
	c.Set(middleware.TruncatedKey, outcome.Contract.Truncated)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, NewEnvelope(result, nil))
}

func (h *Handler) fail(c *gin.Context, err error) {
	kind := KindOf(err)
	status := HTTPStatus(kind)
	c.Set(middleware.ErrorKindKey, string(kind))
	if status >= http.StatusInternalServerError {
		telemetry.Error("analysis.request_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"kind":       string(kind),
			"err":        err.Error(),
		})
	}
	c.Header(respond.ErrorKindHeader, string(kind))
	c.AbortWithStatusJSON(status, NewEnvelope(nil, err))
}
