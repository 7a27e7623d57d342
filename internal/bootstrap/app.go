package bootstrap

import (
	"strings"

	"github.com/gin-gonic/gin"

	"contractbot-backend/internal/analysis"
	"contractbot-backend/internal/extract"
	"contractbot-backend/internal/llm/registry"
	"contractbot-backend/internal/shared/config"
	"contractbot-backend/internal/shared/server"
	"contractbot-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Settings config.Provider
	Pipeline *analysis.Pipeline
	Handler  *analysis.Handler
	Router   *gin.Engine
}

// Build wires the analysis pipeline and the HTTP router.
func Build(cfg config.Config) *App {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	settings := config.NewRuntimeProvider(cfg.EnvFile)
	pipeline := BuildPipeline(settings)
	handler := analysis.NewHandler(pipeline)

	s := settings.Settings()
	if s.APIKey == "" {
		telemetry.Warn("config.llm_credentials.missing", map[string]any{
			"provider": s.Provider,
			"key":      s.CredentialKey(),
		})
	}
	telemetry.Info("app.build", map[string]any{
		"env":      cfg.Env,
		"provider": s.Provider,
		"model":    s.Model,
		"env_file": cfg.EnvFile,
	})

	return &App{
		Config:   cfg,
		Settings: settings,
		Pipeline: pipeline,
		Handler:  handler,
		Router:   server.NewRouter(cfg, handler),
	}
}

// BuildPipeline returns a pipeline resolving settings through settings.
func BuildPipeline(settings config.Provider) *analysis.Pipeline {
	return analysis.NewPipeline(settings, extract.NewNormalizer(), registry.New)
}
