// Package config loads process settings from defaults, an optional YAML
// file, an optional .env file and SHOP_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/middleware/chain"
)

// EnvPrefix is prepended to every environment variable
const EnvPrefix = "SHOP"

// Interceptor names accepted in the middleware list
const (
	InterceptorAccessLog = "accesslog"
	InterceptorMetrics   = "metrics"
	InterceptorTenant    = "tenant"
	InterceptorAuth      = "auth"
	InterceptorMessage   = "message"
)

// Tenant source kinds
const (
	SourceDB    = "db"
	SourceFile  = "file"
	SourceRedis = "redis"
)

type Config struct {
	HTTP       HTTPConfig     `mapstructure:"http"`
	Log        LogConfig      `mapstructure:"log"`
	Session    SessionConfig  `mapstructure:"session"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Database   DatabaseConfig `mapstructure:"database"`
	Tenants    TenantsConfig  `mapstructure:"tenants"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	Message    string         `mapstructure:"message"`
	Middleware []chain.Entry  `mapstructure:"middleware"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	// Key is the 32 byte encryption key, "k4.local.<b64>" or base64
	Key string `mapstructure:"key"`
	// AAD is the server secret every token is bound to
	AAD          string        `mapstructure:"aad"`
	Leeway       time.Duration `mapstructure:"leeway"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type AuthConfig struct {
	LoginURL  string   `mapstructure:"login_url"`
	AllowList []string `mapstructure:"allow_list"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TenantsConfig struct {
	Source string              `mapstructure:"source"`
	File   string              `mapstructure:"file"`
	Static []auth.TenantConfig `mapstructure:"static"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Key     string `mapstructure:"key"`
	Channel string `mapstructure:"channel"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("session.key", "")
	v.SetDefault("session.aad", "")
	v.SetDefault("session.leeway", time.Duration(0))
	v.SetDefault("session.cookie_secure", true)

	v.SetDefault("auth.login_url", "/login")
	v.SetDefault("auth.allow_list", []string{"/", "/register", "/static/*", "/metrics"})

	v.SetDefault("database.dsn", "file:shop.db?cache=shared")

	v.SetDefault("tenants.source", SourceDB)
	v.SetDefault("tenants.file", "")
	v.SetDefault("tenants.static", []map[string]any{
		{"domain": "localhost", "name": "Local", "product_type": "dev"},
	})

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.key", "shop:tenants")
	v.SetDefault("redis.channel", "shop:tenants:reload")

	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("message", "")

	v.SetDefault("middleware", []map[string]any{
		{"name": InterceptorAccessLog, "enabled": true},
		{"name": InterceptorMetrics, "enabled": true},
		{"name": InterceptorTenant, "enabled": true},
		{"name": InterceptorAuth, "enabled": true},
		{"name": InterceptorMessage, "enabled": false},
	})
}

// Load reads configuration. path may be empty, envFile may be empty or
// point to a missing file.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Log),
		validation.Field(&c.Session),
		validation.Field(&c.Auth),
		validation.Field(&c.Tenants),
		validation.Field(&c.Redis, validation.By(c.requireRedis)),
		validation.Field(&c.Middleware, validation.Required, validation.By(validInterceptors)),
	)
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In("console", "json")),
	)
}

func (c SessionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Key, validation.Required, validation.By(parsesAsKey)),
		validation.Field(&c.AAD, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Leeway, validation.Min(time.Duration(0))),
	)
}

func (c AuthConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LoginURL, validation.Required),
	)
}

func (c TenantsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Source, validation.Required, validation.In(SourceDB, SourceFile, SourceRedis)),
		validation.Field(&c.File, validation.By(func(any) error {
			if c.Source == SourceFile && c.File == "" {
				return errors.New("required when source is file")
			}
			return nil
		})),
	)
}

func (c Config) requireRedis(any) error {
	if c.Tenants.Source == SourceRedis && c.Redis.Addr == "" {
		return errors.New("addr required when tenants source is redis")
	}
	return nil
}

// SessionKey parses the configured session key
func (c SessionConfig) SessionKey() (auth.SymmetricKey, error) {
	return auth.ParseSymmetricKey(c.Key)
}

func parsesAsKey(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := auth.ParseSymmetricKey(s); err != nil {
		return errors.New("must be a 32 byte key")
	}
	return nil
}

func validInterceptors(value any) error {
	entries, _ := value.([]chain.Entry)
	known := map[string]bool{
		InterceptorAccessLog: true,
		InterceptorMetrics:   true,
		InterceptorTenant:    true,
		InterceptorAuth:      true,
		InterceptorMessage:   true,
	}
	transport := map[string]bool{
		InterceptorAccessLog: true,
		InterceptorMetrics:   true,
	}
	route := ""
	for _, e := range entries {
		if !known[e.Name] {
			return fmt.Errorf("unknown interceptor %q", e.Name)
		}
		if !e.Enabled {
			continue
		}
		if !transport[e.Name] {
			route = e.Name
		} else if route != "" {
			return fmt.Errorf("interceptor %q must come before %q", e.Name, route)
		}
	}
	return nil
}
