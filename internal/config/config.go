// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DemoJWTSecret signs tokens when JWT_SECRET is unset. The server only
// accepts it while demo data is seeded.
const DemoJWTSecret = "voicecampaign-demo-secret"

type Config struct {
	Port string

	// DatabaseURL selects the postgres store. Empty means the in-memory store.
	DatabaseURL string
	AMQPURL     string
	RedisURL    string
	CacheTTL    time.Duration

	GeminiAPIKey string
	GeminiModel  string

	JWTSecret string
	JWTTTL    time.Duration

	SeedDemoData bool

	// AllowedOrigins lists the browser origins allowed to open a test call.
	// Empty means same-origin only; "*" allows any origin.
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	HarnessSilenceDelay time.Duration
	HarnessModelTimeout time.Duration
}

// Load reads the environment. Malformed values are an error rather than
// silently replaced by defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    databaseURL(),
		AMQPURL:        os.Getenv("AMQP_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		JWTSecret:      getEnv("JWT_SECRET", DemoJWTSecret),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		AllowedOrigins: getList("ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HarnessSilenceDelay, err = getDuration("HARNESS_SILENCE_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HarnessModelTimeout, err = getDuration("HARNESS_MODEL_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SeedDemoData, err = getBool("SEED_DEMO_DATA", true); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("LOG_FORMAT: want json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// UsesDemoJWTSecret reports whether tokens are signed with DemoJWTSecret.
func (c *Config) UsesDemoJWTSecret() bool {
	return c.JWTSecret == DemoJWTSecret
}

// CheckServing rejects settings that are only safe for a demo deployment.
func (c *Config) CheckServing() error {
	if c.UsesDemoJWTSecret() && !c.SeedDemoData {
		return errors.New("JWT_SECRET must be set when SEED_DEMO_DATA is false")
	}
	return nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from DB_*.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + getEnv("DB_PORT", "5432"),
		Path:     getEnv("DB_NAME", "voicecampaign"),
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// getList splits a comma separated value, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
