package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envSource resolves keys from the process environment first and then from
// values parsed out of local .env files. The files are parsed, not exported
// into the process environment, so later edits to them stay visible to the
// runtime Provider.
type envSource map[string]string

// readEnvFiles parses KEY=VALUE pairs from the given files if they exist.
// Earlier files win; errors are ignored.
func readEnvFiles(paths ...string) envSource {
	out := envSource{}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vals, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		for k, v := range vals {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}

func (s envSource) get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val := s[key]; val != "" {
		return val
	}
	return def
}

func (s envSource) getInt(key string, def int) int {
	if raw := strings.TrimSpace(s.get(key, "")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return def
}

func (s envSource) getFloat(key string, def float64) float64 {
	if raw := strings.TrimSpace(s.get(key, "")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			return parsed
		}
	}
	return def
}
