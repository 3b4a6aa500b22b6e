package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port           string
	GinMode        string
	DatabaseURL    string
	AllowedOrigins string

	// Crawl politeness and bounds.
	MaxPages     int
	PaceMin      time.Duration
	PaceMax      time.Duration
	IdleInterval time.Duration
	CoolDown     time.Duration

	// Enabled source adapters; empty means all registered.
	Sources []string
}

// Load reads environment variables into a Config with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AllowedOrigins: strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.MaxPages, err = parseIntEnv("CRAWL_MAX_PAGES", 10); err != nil {
		return Config{}, err
	}
	paceMinMs, err := parseIntEnv("CRAWL_PACE_MIN_MS", 1000)
	if err != nil {
		return Config{}, err
	}
	paceMaxMs, err := parseIntEnv("CRAWL_PACE_MAX_MS", 3000)
	if err != nil {
		return Config{}, err
	}
	idleMin, err := parseIntEnv("CRAWL_IDLE_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	coolDownSec, err := parseIntEnv("CRAWL_COOLDOWN_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.PaceMin = time.Duration(paceMinMs) * time.Millisecond
	cfg.PaceMax = time.Duration(paceMaxMs) * time.Millisecond
	cfg.IdleInterval = time.Duration(idleMin) * time.Minute
	cfg.CoolDown = time.Duration(coolDownSec) * time.Second

	if raw := strings.TrimSpace(os.Getenv("CRAWL_SOURCES")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if t := strings.TrimSpace(s); t != "" {
				cfg.Sources = append(cfg.Sources, t)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures required fields are present and bounds are sane.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.MaxPages <= 0 {
		return errors.New("CRAWL_MAX_PAGES must be positive")
	}
	if c.PaceMin <= 0 || c.PaceMax < c.PaceMin {
		return errors.New("crawl pace window is invalid (need 0 < CRAWL_PACE_MIN_MS <= CRAWL_PACE_MAX_MS)")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
