package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/shared/config"
)

type stubFeature struct{}

func (stubFeature) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/analyze/text", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "analysis": nil, "error": nil})
	})
}

func testConfig() config.Config {
	return config.Config{CORSAllowOrigin: []string{"*"}, RateLimitPerMin: 60, RateLimitBurst: 1}
}

func TestRouterHealthAndBanner(t *testing.T) {
	r := NewRouter(testConfig(), stubFeature{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
			t.Fatalf("%s: unexpected body %s", path, resp.Body.String())
		}
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(resp.Body.String(), "ContractBot API is running") {
		t.Fatalf("unexpected banner: %s", resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterRateLimitsAnalyzeRoutesOnly(t *testing.T) {
	r := NewRouter(testConfig(), stubFeature{})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/analyze/text", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/analyze/text", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}

	for i := 0; i < 3; i++ {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("health %d: expected 200, got %d", i, resp.Code)
		}
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	r := NewRouter(testConfig())

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "analysis_started_total") {
		t.Fatalf("unexpected metrics response %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8000", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
