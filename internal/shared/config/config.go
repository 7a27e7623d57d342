package config

import (
	"os"
	"strings"
)

// Config holds process-level configuration read once at startup.
// LLM credentials, model and size limits are not here: they are resolved
// per analysis through a Provider.
type Config struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	EnvFile           string
	RateLimitPerMin   float64
	RateLimitBurst    int
	ShutdownTimeoutMs int
	// WriteTimeoutSec bounds a whole response, model call included. It is read
	// once at startup; raising LLM_TIMEOUT_SECONDS past it needs a restart.
	WriteTimeoutSec int
}

// Load reads configuration from environment variables and local .env files
// with sensible defaults.
func Load() Config {
	envFile := os.Getenv("CONTRACTBOT_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	src := readEnvFiles(envFile, "backend/.env")

	return Config{
		Port:              src.get("PORT", "8000"),
		Env:               normalizeEnv(src.get("ENV", "dev")),
		CORSAllowOrigin:   splitAndTrim(src.get("CORS_ALLOW_ORIGINS", "*")),
		EnvFile:           envFile,
		RateLimitPerMin:   src.getFloat("RATE_LIMIT_ANALYZE_PER_MIN", 10),
		RateLimitBurst:    src.getInt("RATE_LIMIT_ANALYZE_BURST", 5),
		ShutdownTimeoutMs: src.getInt("SHUTDOWN_TIMEOUT_MS", 10000),
		WriteTimeoutSec:   src.getInt("HTTP_WRITE_TIMEOUT_SECONDS", 300),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
