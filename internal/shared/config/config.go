package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	RootDomain         string
	PublicScheme       string
	PublicBaseURL      string
	CORSAllowOrigin    []string
	DatabaseURL        string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	SSEKMSKeyID        string
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	GeminiAPIKey       string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	JWTSecret          string
	GeoAPIURL          string
	SignedURLTTL       time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	port := getEnv("PORT", "8080")
	rootDomain := strings.ToLower(getEnv("ROOT_DOMAIN", defaultRootDomain(env)))
	scheme := "https"
	if env == "dev" || env == "local" {
		scheme = "http"
	}
	openAIKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")
	provider := normalizeProvider(getEnv("LLM_PROVIDER", inferProvider(openAIKey, geminiKey)))

	return Config{
		Port:               port,
		Env:                env,
		RootDomain:         rootDomain,
		PublicScheme:       getEnv("PUBLIC_SCHEME", scheme),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:        dbURL,
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		LLMProvider:        provider,
		LLMModel:           getEnv("LLM_MODEL", defaultModel(provider)),
		OpenAIAPIKey:       openAIKey,
		GeminiAPIKey:       geminiKey,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		GeoAPIURL:          getEnv("GEO_API_URL", "http://ip-api.com/json"),
		SignedURLTTL:       getDuration("SIGNED_URL_TTL", time.Hour),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, def)
		return def
	}
	return d
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
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func defaultRootDomain(env string) string {
	if env == "production" || env == "staging" {
		return "roledeck.io"
	}
	return "lvh.me:3000"
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google", "googleai":
		return "gemini"
	default:
		return "none"
	}
}

func inferProvider(openAIKey, geminiKey string) string {
	switch {
	case geminiKey != "":
		return "gemini"
	case openAIKey != "":
		return "openai"
	default:
		return "none"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		return "gpt-4o-mini"
	default:
		return ""
	}
}
