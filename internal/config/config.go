package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"

	DefaultAIBaseURL = "https://openrouter.ai/api/v1"
	DefaultAIModel   = "gpt-4o-mini"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string
	StorageBackend string // STORAGE_BACKEND: mongo (default) or postgres
	Port           string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	AllowedHost    string   // Hostname only for strict host check (production only)
	Environment    string   // ENV: production, development, etc.

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	ModerationTimeout time.Duration
	GenerationTimeout time.Duration
	StoreTimeout      time.Duration

	RateLimitMaxRequests int
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	host := getEnv("HOST", "http://localhost:8080")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = bareHost(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	// When HOST is an api subdomain (e.g. api.mindsoothe.app), also allow https://domain and https://www.domain
	hostForCORS := bareHost(host)
	if hostForCORS != "" && hostForCORS != "localhost" {
		parts := strings.Split(hostForCORS, ".")
		if len(parts) > 2 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(allowedOrigins, origin) {
					allowedOrigins = append(allowedOrigins, origin)
				}
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	backend := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", StorageMongo)))
	if backend != StoragePostgres {
		backend = StorageMongo
	}

	return &Config{
		MongoURI:             getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/mindsoothe")),
		PostgresURI:          getEnv("POSTGRES_URI", "postgres://localhost:5432/mindsoothe?sslmode=disable"),
		RedisURI:             getEnv("REDIS_URI", ""),
		StorageBackend:       backend,
		AllowedHost:          allowedHost,
		Environment:          env,
		Port:                 getEnv("PORT", "8080"),
		AllowedOrigins:       allowedOrigins,
		OpenAIAPIKey:         strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIBaseURL:        strings.TrimRight(getEnv("OPENAI_BASE_URL", DefaultAIBaseURL), "/"),
		OpenAIModel:          getEnv("OPENAI_MODEL", DefaultAIModel),
		ModerationTimeout:    getDuration("MODERATION_TIMEOUT", 10*time.Second),
		GenerationTimeout:    getDuration("GENERATION_TIMEOUT", 30*time.Second),
		StoreTimeout:         getDuration("STORE_TIMEOUT", 5*time.Second),
		RateLimitMaxRequests: getInt("RATE_LIMIT_MAX", 25),
	}
}

// AIConfigured reports whether an API key for the moderation and
// completion services is present.
func (c *Config) AIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// bareHost strips scheme, path and port from a HOST value.
func bareHost(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
