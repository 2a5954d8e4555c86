package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kindling-app/kindling/internal/policy"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}

	// Enrich configures the external persona-enrichment API. An empty
	// APIKey means the capability is unavailable and every consumer
	// falls back to its deterministic path.
	Enrich struct {
		APIKey  string
		BaseURL string
		Timeout time.Duration
	}

	// Policy is the production rule set with any numeric overrides from
	// the environment applied.
	Policy *policy.Policy
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "api_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "kindling")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret-change-me")
	cfg.Auth.TokenTTL = getEnvHours("JWT_TTL_HOURS", 72*time.Hour)

	// Enrichment API
	cfg.Enrich.APIKey = strings.TrimSpace(os.Getenv("ENRICH_API_KEY"))
	cfg.Enrich.BaseURL = getEnvDefault("ENRICH_BASE_URL", "https://enrich.kindling.app")
	cfg.Enrich.Timeout = getEnvSeconds("ENRICH_TIMEOUT_SECONDS", 8*time.Second)

	// Policy overrides
	cfg.Policy = policyFromEnv()

	return cfg
}

// policyFromEnv starts from the default policy and applies any overrides
// present in the environment. Unparseable or non-positive values are
// ignored, the same way the other env helpers treat them.
func policyFromEnv() *policy.Policy {
	p := policy.Default()

	male := p.Quotas["male"]
	male.OnGridLikes = getEnvInt("QUOTA_MALE_ON_GRID", male.OnGridLikes)
	male.OffGridLikes = getEnvInt("QUOTA_MALE_OFF_GRID", male.OffGridLikes)
	male.Messages = getEnvInt("QUOTA_MALE_MESSAGES", male.Messages)
	p.Quotas["male"] = male

	female := p.Quotas["female"]
	female.OnGridLikes = getEnvInt("QUOTA_FEMALE_ON_GRID", female.OnGridLikes)
	female.OffGridLikes = getEnvInt("QUOTA_FEMALE_OFF_GRID", female.OffGridLikes)
	female.Messages = getEnvInt("QUOTA_FEMALE_MESSAGES", female.Messages)
	p.Quotas["female"] = female

	p.ResetWindow = getEnvHours("RESET_WINDOW_HOURS", p.ResetWindow)
	p.CooldownDuration = getEnvHours("COOLDOWN_HOURS", p.CooldownDuration)
	p.SuperlikeCost = getEnvInt64("SUPERLIKE_COST", p.SuperlikeCost)
	p.ComplimentCost = getEnvInt64("COMPLIMENT_COST", p.ComplimentCost)
	p.BoostCost = getEnvInt64("BOOST_COST", p.BoostCost)
	p.AISearchCost = getEnvInt64("AI_SEARCH_COST", p.AISearchCost)
	p.SignupCredits = getEnvInt64("SIGNUP_CREDITS", p.SignupCredits)
	p.BoostDuration = getEnvMinutes("BOOST_DURATION_MINUTES", p.BoostDuration)
	p.MaxDistanceKm = getEnvFloat("MAX_DISTANCE_KM", p.MaxDistanceKm)

	return p
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvHours(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Hour
		}
	}
	return def
}

func getEnvSeconds(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func getEnvMinutes(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvInt64(k string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
