// Package config loads service configuration from defaults, an optional
// config.yaml, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Remote store backends.
const (
	RemoteNone      = "none"
	RemotePostgres  = "postgres"
	RemoteFirestore = "firestore"
	RemoteRedis     = "redis"
	RemoteMemory    = "memory"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheMemory = "memory"
)

// Config holds the service configuration.
type Config struct {
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	AppEnv            string        `mapstructure:"APP_ENV"`
	RemoteBackend     string        `mapstructure:"REMOTE_BACKEND"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	FirestoreProject  string        `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirestoreCredFile string        `mapstructure:"FIRESTORE_CREDENTIALS_FILE"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	RedisPrefix       string        `mapstructure:"REDIS_PREFIX"`
	CacheBackend      string        `mapstructure:"CACHE_BACKEND"`
	CachePath         string        `mapstructure:"CACHE_PATH"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	MasterKey         string        `mapstructure:"MASTER_KEY"`
	AdminPasswordMode string        `mapstructure:"ADMIN_PASSWORD_MODE"`
	OIDC              OIDC          `mapstructure:",squash"`
}

// OIDC configures admin single sign-on. It is enabled when the issuer is set.
type OIDC struct {
	Issuer        string `mapstructure:"OIDC_ISSUER"`
	ClientID      string `mapstructure:"OIDC_CLIENT_ID"`
	ClientSecret  string `mapstructure:"OIDC_CLIENT_SECRET"`
	RedirectURL   string `mapstructure:"OIDC_REDIRECT_URL"`
	AllowedEmails string `mapstructure:"OIDC_ALLOWED_EMAILS"`
}

// Enabled reports whether SSO is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// Allowed returns the allow-list of e-mails or subjects.
func (o OIDC) Allowed() []string {
	var out []string
	for _, s := range strings.Split(o.AllowedEmails, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("REMOTE_BACKEND", RemoteMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("FIRESTORE_PROJECT_ID", "")
	v.SetDefault("FIRESTORE_CREDENTIALS_FILE", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_PREFIX", "luminapos")
	v.SetDefault("CACHE_BACKEND", CacheSQLite)
	v.SetDefault("CACHE_PATH", "luminapos-cache.db")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", 12*time.Hour)
	v.SetDefault("MASTER_KEY", "")
	v.SetDefault("ADMIN_PASSWORD_MODE", "plain")
	v.SetDefault("OIDC_ISSUER", "")
	v.SetDefault("OIDC_CLIENT_ID", "")
	v.SetDefault("OIDC_CLIENT_SECRET", "")
	v.SetDefault("OIDC_REDIRECT_URL", "")
	v.SetDefault("OIDC_ALLOWED_EMAILS", "")
}

// Load reads configuration. Environment variables override config.yaml, which
// is looked up in the given directories (the working directory by default) and
// may be absent.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.RemoteBackend {
	case RemoteNone, RemoteMemory, RemoteRedis:
	case RemotePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	case RemoteFirestore:
		if c.FirestoreProject == "" {
			return errors.New("config: FIRESTORE_PROJECT_ID is required for the firestore backend")
		}
	default:
		return fmt.Errorf("config: unknown REMOTE_BACKEND %q", c.RemoteBackend)
	}
	switch c.CacheBackend {
	case CacheSQLite, CacheMemory:
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
