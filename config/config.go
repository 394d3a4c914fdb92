// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the process configuration. Durations are configured as whole
// seconds to match the protocol's integer timestamps.
type Config struct {
	ListenAddr string
	DataDir    string
	KeysDir    string

	RotationInterval time.Duration
	GracePeriod      time.Duration
	ReuseWindow      time.Duration

	// RedisURL enables the shared replay guard and the Redis stream
	// publisher when set; empty means in-process backends.
	RedisURL string

	// AdminPassword guards operator endpoints (registration). JWTSecret
	// signs the operator bearer tokens.
	AdminPassword string
	JWTSecret     string

	LogEnv   string
	LogLevel string
}

// Load builds the configuration from environment variables, applying the
// protocol defaults.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":5000"),
		DataDir:       envOr("DATA_DIR", "data"),
		KeysDir:       envOr("KEYS_DIR", "keys"),
		RedisURL:      os.Getenv("REDIS_URL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogEnv:        envOr("LOG_ENV", "dev"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RotationInterval, err = envSeconds("ROTATION_INTERVAL", 10); err != nil {
		return Config{}, err
	}
	if cfg.GracePeriod, err = envSeconds("GRACE_PERIOD", 30); err != nil {
		return Config{}, err
	}
	if cfg.ReuseWindow, err = envSeconds("REUSE_WINDOW", 300); err != nil {
		return Config{}, err
	}

	if cfg.GracePeriod < cfg.RotationInterval {
		return Config{}, fmt.Errorf("GRACE_PERIOD (%s) must not be shorter than ROTATION_INTERVAL (%s)",
			cfg.GracePeriod, cfg.RotationInterval)
	}

	// An empty secret would sign operator tokens with an empty HMAC key,
	// making them forgeable by anyone.
	if cfg.AdminPassword != "" && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set when ADMIN_PASSWORD is set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string, fallback int64) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Second, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive whole number of seconds, got %q", key, v)
	}
	return time.Duration(n) * time.Second, nil
}
