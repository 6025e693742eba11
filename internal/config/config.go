package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// StagePolicy names what the orchestrator does when a pipeline stage fails.
type StagePolicy string

const (
	// PolicyLenient absorbs the failure and continues; the record can still
	// finish as "completed" with the optional field missing.
	PolicyLenient StagePolicy = "lenient"
	// PolicyPartial absorbs the failure but finalizes the record as
	// "partial" so callers can tell a degraded run from a full success.
	PolicyPartial StagePolicy = "partial"
	// PolicyStrict fails the whole run and marks the record "failed".
	PolicyStrict StagePolicy = "strict"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// YouTube Data API (optional; scraper fallback is used when empty)
	YouTubeAPIKey string

	// ElevenLabs TTS
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsModelID string
	DefaultVoiceID    string

	// Pipeline
	WordsPerMinute   int
	StageTimeout     time.Duration
	StageAttempts    int
	ExtractionPolicy StagePolicy
	GenerationPolicy StagePolicy
	SynthesisPolicy  StagePolicy

	// Storage
	StoragePath string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		YouTubeAPIKey: getEnvOrDefault("YOUTUBE_API_KEY", ""),

		ElevenLabsAPIKey:  getEnvOrDefault("ELEVENLABS_API_KEY", ""),
		ElevenLabsBaseURL: getEnvOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1/text-to-speech"),
		ElevenLabsModelID: getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_monolingual_v1"),
		DefaultVoiceID:    getEnvOrDefault("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),

		WordsPerMinute:   getEnvAsIntOrDefault("SCRIPT_WORDS_PER_MINUTE", 150),
		StageTimeout:     time.Duration(getEnvAsIntOrDefault("STAGE_TIMEOUT_SECONDS", 60)) * time.Second,
		StageAttempts:    getEnvAsIntOrDefault("STAGE_ATTEMPTS", 2),
		ExtractionPolicy: getEnvAsPolicy("EXTRACTION_POLICY", PolicyLenient),
		GenerationPolicy: getEnvAsPolicy("GENERATION_POLICY", PolicyStrict),
		SynthesisPolicy:  getEnvAsPolicy("SYNTHESIS_POLICY", PolicyLenient),

		StoragePath: getEnvOrDefault("STORAGE_PATH", "./uploads"),

		SMTPHost: getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort: getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser: getEnvOrDefault("SMTP_USER", ""),
		SMTPPass: getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "noreply@eduvid.app"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsPolicy(key string, defaultVal StagePolicy) StagePolicy {
	switch StagePolicy(os.Getenv(key)) {
	case PolicyLenient:
		return PolicyLenient
	case PolicyPartial:
		return PolicyPartial
	case PolicyStrict:
		return PolicyStrict
	default:
		return defaultVal
	}
}
