package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	LogLevel string
	// LogFile enables rotating file output when set.
	LogFile string
	// AllowedOrigins are websocket origin patterns; empty means
	// same-origin only.
	AllowedOrigins []string
}

// Load reads .env if present, then the environment, applying defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     getenv("ADDR", ":8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
