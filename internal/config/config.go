package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"MiniBakery/internal/bakery"
)

type Config struct {
	Port        string
	BakeryName  string
	LogLevel    string
	JWTSecret   string
	TokenTTL    time.Duration
	BakerEmail  string
	BakerPass   string
	MetricsOn   bool
	MetricsAuth string
}

// Load reads the process environment, after applying any .env files
// given (or ./.env when none are). Missing files are not an error;
// variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "15m"))
	if err != nil {
		return Config{}, err
	}
	metricsOn, err := strconv.ParseBool(getenv("METRICS_ENABLED", "false"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:        getenv("PORT", "8080"),
		BakeryName:  getenv("BAKERY_NAME", bakery.DefaultName),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		JWTSecret:   getenv("JWT_SECRET", "dev-secret"),
		TokenTTL:    ttl,
		BakerEmail:  os.Getenv("BAKER_EMAIL"),
		BakerPass:   os.Getenv("BAKER_PASSWORD"),
		MetricsOn:   metricsOn,
		MetricsAuth: os.Getenv("METRICS_TOKEN"),
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
