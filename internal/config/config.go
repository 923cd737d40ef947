package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env             string        // dev, prod
	HTTPPort        string        // default 3001
	WebhookURL      string        // downstream consumer endpoint
	PollInterval    time.Duration // how often the poller scans the store
	NotifyWindow    time.Duration // look-ahead window before the scheduled instant
	DispatchTimeout time.Duration // per-notification HTTP timeout
	ShutdownTimeout time.Duration // graceful shutdown timeout
	RateLimitRPS    float64       // submissions per second per client IP
	RateLimitBurst  int
	LogLevel        string // zerolog level name
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "3001"),
		WebhookURL:      getEnv("WEBHOOK_URL", "http://localhost:3000/receive-notification"),
		PollInterval:    getDuration("POLL_INTERVAL", 5*time.Second),
		NotifyWindow:    getDuration("NOTIFY_WINDOW", 24*time.Hour),
		DispatchTimeout: getDuration("DISPATCH_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 10),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid WEBHOOK_URL %q", cfg.WebhookURL)
	}

	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.NotifyWindow <= 0 {
		return Config{}, fmt.Errorf("NOTIFY_WINDOW must be positive, got %s", cfg.NotifyWindow)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid int for %s=%q, using default %d\n", key, v, def)
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		fmt.Fprintf(os.Stderr, "invalid float for %s=%q, using default %g\n", key, v, def)
	}
	return def
}
