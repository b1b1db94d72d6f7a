// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Add-on identity. Key doubles as the storage namespace so several
	// add-ons can share one backend without colliding.
	AddonKey  string
	AddonName string
	BaseURL   string // public base URL the host product calls back on
	AddonPath string // optional YAML definition file (overrides key/name/vendor)

	// JWT verification
	SkipQSHVerification bool // reduced-security mode, logged when enabled
	JWTClockSkew        time.Duration

	// Redis & Postgres (tenant store backends; memory fallback when unset)
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                 env("ADDON_ENV", "dev"),
		HTTPAddr:            env("ADDON_HTTP_ADDR", ":8080"),
		AddonKey:            env("ADDON_KEY", "example-addon"),
		AddonName:           env("ADDON_NAME", "Example Add-on"),
		BaseURL:             env("ADDON_BASE_URL", "http://localhost:8080"),
		AddonPath:           env("ADDON_DESCRIPTOR_FILE", ""),
		SkipQSHVerification: envBool("ADDON_SKIP_QSH", false),
		JWTClockSkew:        envDur("ADDON_JWT_CLOCK_SKEW_SEC", 60) * time.Second,
		RedisURL:            env("REDIS_URL", ""),
		DatabaseURL:         env("DATABASE_URL", ""),
	}
	if cfg.RedisURL == "" && cfg.DatabaseURL == "" {
		log.Println("[WARN] neither REDIS_URL nor DATABASE_URL set — using in-memory tenant store for dev")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
