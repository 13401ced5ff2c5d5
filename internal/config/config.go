package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

type Config struct {
	ServerPort  string
	AppEnv      string
	AuthDevMode bool
	LogLevel    string

	// SweepInterval is how often the lifecycle sweep re-ensures active
	// occurrences for recurring templates.
	SweepInterval time.Duration

	// UpcomingDays is the default look-ahead window for the upcoming view.
	UpcomingDays int

	// CachePath is the on-disk SQLite cache location. Empty disables the
	// offline cache.
	CachePath string

	DB   DBConfig
	OIDC OIDCConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode {
		if c.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC_ISSUER is required when AUTH_DEV_MODE is disabled")
		}
		if c.OIDC.Audience == "" {
			return fmt.Errorf("OIDC_AUDIENCE is required when AUTH_DEV_MODE is disabled")
		}
	}
	if c.SweepInterval < time.Minute {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1m, got %s", c.SweepInterval)
	}
	if c.UpcomingDays < 1 || c.UpcomingDays > 365 {
		return fmt.Errorf("UPCOMING_DAYS must be between 1 and 365, got %d", c.UpcomingDays)
	}
	return nil
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type OIDCConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

// ResolvedJWKSURL returns the configured JWKS URL, falling back to the
// standard issuer-relative well-known path.
func (o OIDCConfig) ResolvedJWKSURL() string {
	if o.JWKSURL != "" {
		return o.JWKSURL
	}
	return strings.TrimSuffix(o.Issuer, "/") + "/.well-known/jwks.json"
}

func Load() Config {
	return Config{
		ServerPort:    envOrDefault("SERVER_PORT", "8080"),
		AppEnv:        envOrDefault("APP_ENV", "local"),
		AuthDevMode:   strings.EqualFold(envOrDefault("AUTH_DEV_MODE", "false"), "true"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		SweepInterval: durationOrDefault("SWEEP_INTERVAL", 15*time.Minute),
		UpcomingDays:  intOrDefault("UPCOMING_DAYS", 7),
		CachePath:     os.Getenv("CACHE_PATH"),
		DB: DBConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     envOrDefault("DB_PORT", "5432"),
			User:     envOrDefault("DB_USER", "dailyops"),
			Password: envOrDefault("DB_PASSWORD", "dailyops"),
			Name:     envOrDefault("DB_NAME", "dailyops"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
		OIDC: OIDCConfig{
			Issuer:   os.Getenv("OIDC_ISSUER"),
			Audience: os.Getenv("OIDC_AUDIENCE"),
			JWKSURL:  os.Getenv("OIDC_JWKS_URL"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func durationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func intOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
