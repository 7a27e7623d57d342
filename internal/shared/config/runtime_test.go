package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_BASE_URL", "LLM_TIMEOUT_SECONDS",
		"GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "MAX_PDF_BYTES", "MAX_CONTRACT_CHARS",
		"LLM_NO_TEMP_MODELS",
	} {
		t.Setenv(key, "")
	}
}

func TestRuntimeProviderDefaults(t *testing.T) {
	clearLLMEnv(t)

	s := NewRuntimeProvider("").Settings()

	assert.Equal(t, ProviderGemini, s.Provider)
	assert.Equal(t, "gemini-1.5-flash", s.Model)
	assert.Empty(t, s.APIKey)
	assert.Equal(t, DefaultMaxPDFBytes, s.MaxPDFBytes)
	assert.Equal(t, DefaultMaxContractChars, s.MaxContractChars)
	assert.Equal(t, 120*time.Second, s.Timeout)
	assert.Equal(t, "GEMINI_API_KEY", s.CredentialKey())
}

func TestRuntimeProviderPicksUpEnvFileEdits(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	p := NewRuntimeProvider(path)

	first := p.Settings()
	require.Empty(t, first.APIKey, "missing file must not fail")

	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=key-one\nGEMINI_MODEL=gemini-1.5-pro\n"), 0o600))
	second := p.Settings()
	assert.Equal(t, "key-one", second.APIKey)
	assert.Equal(t, "gemini-1.5-pro", second.Model)

	require.NoError(t, os.WriteFile(path, []byte("LLM_PROVIDER=openai\nOPENAI_API_KEY=key-two\n"), 0o600))
	third := p.Settings()
	assert.Equal(t, ProviderOpenAI, third.Provider)
	assert.Equal(t, "key-two", third.APIKey)
	assert.Equal(t, "gpt-4o-mini", third.Model)
}

func TestRuntimeProviderForgetsDeletedEnvFile(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\nGEMINI_MODEL=gemini-1.5-pro\n"), 0o600))
	p := NewRuntimeProvider(path)

	before := p.Settings()
	require.Equal(t, "from-file", before.APIKey)

	require.NoError(t, os.Remove(path))
	after := p.Settings()

	assert.Empty(t, after.APIKey)
	assert.Equal(t, "gemini-1.5-flash", after.Model)
}

func TestRuntimeProviderNoTemperatureModelsFromFile(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LLM_NO_TEMP_MODELS=my-reasoner, other-model\n"), 0o600))

	s := NewRuntimeProvider(path).Settings()

	assert.Equal(t, []string{"my-reasoner", "other-model"}, s.NoTemperatureModels)
}

func TestRuntimeProviderEnvironmentWinsOverFile(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANTHROPIC_API_KEY=from-file\nLLM_PROVIDER=anthropic\n"), 0o600))
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("LLM_MODEL", "claude-custom")

	s := NewRuntimeProvider(path).Settings()

	assert.Equal(t, ProviderAnthropic, s.Provider)
	assert.Equal(t, "from-env", s.APIKey)
	assert.Equal(t, "claude-custom", s.Model)
}

func TestRuntimeProviderGenericCredentialAndLimits(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_API_KEY", "generic")
	t.Setenv("MAX_PDF_BYTES", "1024")
	t.Setenv("MAX_CONTRACT_CHARS", "500")

	s := NewRuntimeProvider("").Settings()

	assert.Equal(t, "generic", s.APIKey)
	assert.Equal(t, int64(1024), s.MaxPDFBytes)
	assert.Equal(t, 500, s.MaxContractChars)
}

func TestStaticProviderFillsDefaults(t *testing.T) {
	s := StaticProvider{Provider: "claude", APIKey: " k "}.Settings()

	assert.Equal(t, ProviderAnthropic, s.Provider)
	assert.Equal(t, "k", s.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", s.Model)
	assert.Equal(t, DefaultMaxPDFBytes, s.MaxPDFBytes)
}

func TestLoadReadsEnvFileWithoutExporting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9999\nCORS_ALLOW_ORIGINS=http://a.test, http://b.test\nCONTRACTBOT_PROBE=x\n"), 0o600))
	t.Setenv("CONTRACTBOT_ENV_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowOrigin)
	assert.Equal(t, path, cfg.EnvFile)
	assert.Equal(t, 300, cfg.WriteTimeoutSec)
	assert.Empty(t, os.Getenv("CONTRACTBOT_PROBE"))
}

func TestLoadWriteTimeoutFromEnvironment(t *testing.T) {
	t.Setenv("CONTRACTBOT_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "600")

	cfg := Load()

	assert.Equal(t, 600, cfg.WriteTimeoutSec)
}
