package analysis

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/config"
	"contractbot-backend/internal/shared/server/respond"
)

func setupAnalysisRouter(t *testing.T, rec *recorder, pages *fakePages, s config.StaticProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(newTestPipeline(rec, pages, s)).RegisterRoutes(router)
	return router
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, resp.Body.String())
	}
	for _, key := range []string{"success", "analysis", "error"} {
		if _, ok := env[key]; !ok {
			t.Fatalf("expected %q in envelope, got %s", key, resp.Body.String())
		}
	}
	return env
}

func pdfUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestAnalyzeTextRoute(t *testing.T) {
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, &fakePages{}, config.StaticProvider{})

	body, _ := json.Marshal(map[string]string{"contract_text": acmeContract})
	req := httptest.NewRequest(http.MethodPost, "/analyze/text", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	env := decodeEnvelope(t, resp)
	if string(env["success"]) != "true" || string(env["error"]) != "null" {
		t.Fatalf("unexpected envelope: %s", resp.Body.String())
	}
	var analysis AnalysisResult
	if err := json.Unmarshal(env["analysis"], &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.ContractDuration.AutoRenewal != "Yes" {
		t.Fatalf("expected auto_renewal Yes, got %q", analysis.ContractDuration.AutoRenewal)
	}
	if len(analysis.RiskFlags) != 1 || analysis.RiskFlags[0].RiskLevel != "High" {
		t.Fatalf("unexpected risk flags: %+v", analysis.RiskFlags)
	}
}

func TestAnalyzeTextRouteStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		rec      *recorder
		settings config.StaticProvider
		text     string
		status   int
		kind     Kind
	}{
		{"too short", &recorder{reply: acmeReply}, config.StaticProvider{APIKey: "k"}, "tiny", http.StatusBadRequest, KindInputTooShort},
		{"malformed", &recorder{reply: "not json"}, config.StaticProvider{APIKey: "k"}, acmeContract, http.StatusUnprocessableEntity, KindMalformedModelOutput},
		{"mismatch", &recorder{reply: `{"risk_flags":[{"risk_level":1}]}`}, config.StaticProvider{APIKey: "k"}, acmeContract, http.StatusUnprocessableEntity, KindSchemaMismatch},
		{"no key", &recorder{reply: acmeReply}, config.StaticProvider{}, acmeContract, http.StatusInternalServerError, KindMissingCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			NewHandler(NewPipeline(tc.settings, nil, tc.rec.factory)).RegisterRoutes(router)

			body, _ := json.Marshal(map[string]string{"contract_text": tc.text})
			req := httptest.NewRequest(http.MethodPost, "/analyze/text", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if got := resp.Header().Get(respond.ErrorKindHeader); got != string(tc.kind) {
				t.Fatalf("expected kind %s, got %q", tc.kind, got)
			}
			env := decodeEnvelope(t, resp)
			if string(env["success"]) != "false" || string(env["analysis"]) != "null" {
				t.Fatalf("unexpected envelope: %s", resp.Body.String())
			}
		})
	}
}

func TestAnalyzeTextRouteRejectsInvalidJSON(t *testing.T) {
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, &fakePages{}, config.StaticProvider{})

	req := httptest.NewRequest(http.MethodPost, "/analyze/text", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAnalyzePDFRoute(t *testing.T) {
	rec := &recorder{reply: acmeReply}
	router := setupAnalysisRouter(t, rec, &fakePages{pages: []string{acmeContract}}, config.StaticProvider{})

	body, contentType := pdfUpload(t, "Agreement.PDF", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(rec.requests) != 1 || !strings.Contains(rec.requests[0].Prompt, acmeContract) {
		t.Fatalf("expected extracted text in prompt")
	}
}

func TestAnalyzePDFRouteRejectsNonPDF(t *testing.T) {
	pages := &fakePages{pages: []string{acmeContract}}
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, pages, config.StaticProvider{})

	body, contentType := pdfUpload(t, "contract.docx", []byte("PK"))
	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if !strings.Contains(string(env["error"]), "Only PDF files are supported") {
		t.Fatalf("unexpected error: %s", env["error"])
	}
	if pages.calls.Load() != 0 {
		t.Fatalf("extractor must not run for rejected uploads")
	}
}

func TestAnalyzePDFRouteRejectsOversizeBeforeExtraction(t *testing.T) {
	rec := &recorder{reply: acmeReply}
	pages := &fakePages{pages: []string{acmeContract}}
	router := setupAnalysisRouter(t, rec, pages, config.StaticProvider{MaxPDFBytes: 100})

	body, contentType := pdfUpload(t, "big.pdf", bytes.Repeat([]byte("x"), 200))
	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", resp.Code, resp.Body.String())
	}
	if pages.calls.Load() != 0 || len(rec.requests) != 0 {
		t.Fatalf("oversize upload reached extraction or the model")
	}
}

func TestAnalyzePDFRouteMissingFile(t *testing.T) {
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, &fakePages{}, config.StaticProvider{})

	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", strings.NewReader(""))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAnalyzePDFRouteRejectsDeclaredOversizeBody(t *testing.T) {
	pages := &fakePages{pages: []string{acmeContract}}
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, pages, config.StaticProvider{MaxPDFBytes: 100})

	body, contentType := pdfUpload(t, "big.pdf", bytes.Repeat([]byte("x"), multipartOverhead+200))
	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get(respond.ErrorKindHeader); got != string(KindPDFTooLarge) {
		t.Fatalf("expected kind %s, got %q", KindPDFTooLarge, got)
	}
	if pages.calls.Load() != 0 {
		t.Fatalf("extractor must not run for oversize uploads")
	}
}

func TestAnalyzePDFRouteBodyOverLimitWithUnknownLength(t *testing.T) {
	pages := &fakePages{pages: []string{acmeContract}}
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, pages, config.StaticProvider{MaxPDFBytes: 100})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("note", strings.Repeat("n", multipartOverhead+200)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := w.CreateFormFile("file", "contract.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF"))
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.ContentLength = -1
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", resp.Code, resp.Body.String())
	}
	if pages.calls.Load() != 0 {
		t.Fatalf("extractor must not run for oversize uploads")
	}
}

func TestAnalyzePDFRouteFormWithoutFilePart(t *testing.T) {
	router := setupAnalysisRouter(t, &recorder{reply: acmeReply}, &fakePages{}, config.StaticProvider{})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("contract_text", acmeContract)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze/pdf", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}
