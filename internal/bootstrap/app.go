package bootstrap

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"study-planner/internal/extract"
	"study-planner/internal/llm"
	"study-planner/internal/llm/gemini"
	"study-planner/internal/planner"
	"study-planner/internal/services/health"
	"study-planner/internal/shared/config"
	"study-planner/internal/shared/server"
	"study-planner/internal/shared/server/middleware"
	"study-planner/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	LLM        llm.Client
	Planner    *planner.Planner
	Sessions   *planner.SessionStore
	WebHandler *web.Handler
}

// Build constructs every dependency and the router. A missing API key is not
// an error: generation calls fail with a not-configured error instead.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	client, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	if err := web.RegisterBindings(); err != nil {
		return nil, fmt.Errorf("register bindings: %w", err)
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	p := planner.New(extract.New(), client, planner.Profiles{
		StudyPlan:        cfg.StudyPlanModel,
		MaterialAnalysis: cfg.MaterialAnalysisModel,
	}, planner.Options{PreviewChars: cfg.PreviewChars})

	sessions := planner.NewSessionStore(cfg.SessionTTL)
	configured := strings.TrimSpace(cfg.GeminiAPIKey) != ""
	handler := web.NewHandler(p, web.Options{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		APIKeyConfigured: configured,
		Warnings:         cfg.Warnings(),
	})

	app := &App{
		Config:     cfg,
		LLM:        client,
		Planner:    p,
		Sessions:   sessions,
		WebHandler: handler,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Sessions:  sessions,
		Web:       handler,
		Templates: tmpl,
		Limiter:   middleware.NewRateLimiter(nil),
		Health:    health.NewService(sessions, configured),
	})
	return app, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return llm.UnconfiguredClient{}, nil
	}
	client, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GenerationTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client, nil
}
