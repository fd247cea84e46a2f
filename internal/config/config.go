package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultTimezone = "America/Argentina/Buenos_Aires"

type UazapiConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Config struct {
	Addr            string
	DatabaseURL     string
	AllowedOrigins  string
	JWTSecret       string
	CacheRefresh    time.Duration
	DBMaxConns      int
	SlowQuery       time.Duration
	Location        *time.Location
	// LocationErr is set when TZ_TALLER could not be loaded and Location fell back to UTC.
	LocationErr     error
	TallerNombre    string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MigrateOnStart  bool
	Uazapi          UazapiConfig
}

// Load reads the process environment. Callers load .env beforehand.
func Load() Config {
	port := getenv("SERVER_PORT", "8080")
	loc, locErr := loadLocation(getenv("TZ_TALLER", defaultTimezone))

	return Config{
		Addr:            ":" + port,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AllowedOrigins:  os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		CacheRefresh:    time.Duration(getenvInt("ORDER_CACHE_REFRESH_SECONDS", 30, 1, 3600)) * time.Second,
		DBMaxConns:      getenvInt("DB_MAX_CONNS", 10, 1, 100),
		SlowQuery:       time.Duration(getenvInt("DB_SLOW_QUERY_MS", 250, 0, 60000)) * time.Millisecond,
		Location:        loc,
		LocationErr:     locErr,
		TallerNombre:    getenv("TALLER_NOMBRE", "Taller"),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getenv("LOG_FORMAT", "json")),
		ShutdownTimeout: time.Duration(getenvInt("SHUTDOWN_TIMEOUT_SECONDS", 10, 1, 120)) * time.Second,
		MigrateOnStart:  getenvBool("MIGRATE_ON_START", false),
		Uazapi: UazapiConfig{
			BaseURL: strings.TrimRight(getenvFirst([]string{"UAZAPI_URL", "WHATSAPP_API_URL"}, ""), "/"),
			Token:   getenvFirst([]string{"UAZAPI_TOKEN", "WHATSAPP_API_TOKEN"}, ""),
			Timeout: time.Duration(getenvInt("UAZAPI_TIMEOUT_SECONDS", 15, 1, 120)) * time.Second,
		},
	}
}

// WhatsAppEnabled reports whether outbound delivery through UAZAPI is configured.
func (c Config) WhatsAppEnabled() bool {
	return c.Uazapi.BaseURL != ""
}

// loadLocation returns UTC together with the error when name cannot be loaded.
func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("TZ_TALLER %q: %w", name, err)
	}
	return loc, nil
}

func getenv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getenvFirst(keys []string, fallback string) string {
	for _, key := range keys {
		val := strings.TrimSpace(os.Getenv(key))
		if val != "" {
			return val
		}
	}
	return fallback
}

func getenvInt(key string, fallback int, min int, max int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if min > 0 && v < min {
		return fallback
	}
	if max > 0 && v > max {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
