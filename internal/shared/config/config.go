package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Plan generation and material analysis use separate model profiles.
const (
	defaultStudyPlanModel        = "gemini-2.0-flash"
	defaultMaterialAnalysisModel = "gemini-2.0-flash-lite"
)

// Config holds application configuration.
type Config struct {
	Port                  string
	Env                   string
	CORSAllowOrigin       []string
	GeminiAPIKey          string
	GeminiBaseURL         string
	StudyPlanModel        string
	MaterialAnalysisModel string
	GenerationTimeout     time.Duration
	MaxUploadBytes        int64
	PreviewChars          int
	SessionTTL            time.Duration
	GenerationRatePerMin  float64
	GenerationBurst       int
	LogLevel              string
	LogFile               string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:8080")),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:         getEnv("GEMINI_BASE_URL", ""),
		StudyPlanModel:        getEnv("GEMINI_STUDY_PLAN_MODEL", defaultStudyPlanModel),
		MaterialAnalysisModel: getEnv("GEMINI_MATERIAL_ANALYSIS_MODEL", defaultMaterialAnalysisModel),
		GenerationTimeout:     time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 120)) * time.Second,
		MaxUploadBytes:        int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),
		PreviewChars:          getInt("PREVIEW_CHARS", 500),
		SessionTTL:            time.Duration(getInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		GenerationRatePerMin:  float64(getInt("RATE_LIMIT_GENERATION_PER_MINUTE", 10)),
		GenerationBurst:       getInt("RATE_LIMIT_GENERATION_BURST", 5),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFile:               getEnv("LOG_FILE", ""),
	}
}

// Warnings lists non-fatal configuration problems worth surfacing at startup.
func (c Config) Warnings() []string {
	var out []string
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		out = append(out, "API Key is missing. Please ensure that the GEMINI_API_KEY is set in the .env file.")
	}
	return out
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
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
	case "local":
		return "local"
	default:
		return "dev"
	}
}
