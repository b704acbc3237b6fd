package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // sqlite / postgres
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// IVRConfig holds everything the call flow engine reads.
type IVRConfig struct {
	RootMenuID              string `mapstructure:"root_menu_id"`
	DefaultTimeout          int    `mapstructure:"default_timeout"`
	MaxRetries              int    `mapstructure:"max_retries"`
	SessionTTL              int    `mapstructure:"session_ttl"` // seconds
	SalesTransferNumber     string `mapstructure:"sales_transfer_number"`
	SupportTransferNumber   string `mapstructure:"support_transfer_number"`
	WebhookBaseURL          string `mapstructure:"webhook_base_url"`
	RejectDuplicateSessions bool   `mapstructure:"reject_duplicate_sessions"`
	DefaultTransferTimeout  int    `mapstructure:"default_transfer_timeout"`
}

type PlivoConfig struct {
	AuthID          string `mapstructure:"auth_id"`
	AuthToken       string `mapstructure:"auth_token"`
	VerifySignature bool   `mapstructure:"verify_signature"`
}

type AdminConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	IVR      IVRConfig      `mapstructure:"ivr"`
	Plivo    PlivoConfig    `mapstructure:"plivo"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
}

const inputPath = "/api/handle-input"

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data/ivr.db"},
		Redis:    RedisConfig{Addr: "localhost:6379", KeyPrefix: "ivr:session:"},
		IVR: IVRConfig{
			RootMenuID:             "main_menu",
			DefaultTimeout:         5,
			MaxRetries:             3,
			SessionTTL:             1800,
			DefaultTransferTimeout: 30,
		},
		Admin: AdminConfig{JWTIssuer: "ivr-flow", TokenTTLHours: 24},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads configuration from the given YAML file, then applies
// environment overrides (IVR_REDIS_ADDR, IVR_IVR_SESSION_TTL, ...).
// An empty path looks for an optional config.yaml in the working directory.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("IVR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_mode", d.Database.LogMode)

	v.SetDefault("redis.url", d.Redis.URL)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)

	v.SetDefault("ivr.root_menu_id", d.IVR.RootMenuID)
	v.SetDefault("ivr.default_timeout", d.IVR.DefaultTimeout)
	v.SetDefault("ivr.max_retries", d.IVR.MaxRetries)
	v.SetDefault("ivr.session_ttl", d.IVR.SessionTTL)
	v.SetDefault("ivr.sales_transfer_number", d.IVR.SalesTransferNumber)
	v.SetDefault("ivr.support_transfer_number", d.IVR.SupportTransferNumber)
	v.SetDefault("ivr.webhook_base_url", d.IVR.WebhookBaseURL)
	v.SetDefault("ivr.reject_duplicate_sessions", d.IVR.RejectDuplicateSessions)
	v.SetDefault("ivr.default_transfer_timeout", d.IVR.DefaultTransferTimeout)

	v.SetDefault("plivo.auth_id", d.Plivo.AuthID)
	v.SetDefault("plivo.auth_token", d.Plivo.AuthToken)
	v.SetDefault("plivo.verify_signature", d.Plivo.VerifySignature)

	v.SetDefault("admin.jwt_secret", d.Admin.JWTSecret)
	v.SetDefault("admin.jwt_issuer", d.Admin.JWTIssuer)
	v.SetDefault("admin.token_ttl_hours", d.Admin.TokenTTLHours)

	v.SetDefault("log.level", d.Log.Level)
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.IVR.SessionTTL <= 0 {
		return fmt.Errorf("config: ivr.session_ttl must be positive, got %d", c.IVR.SessionTTL)
	}
	if c.IVR.MaxRetries < 0 {
		return fmt.Errorf("config: ivr.max_retries must not be negative, got %d", c.IVR.MaxRetries)
	}
	if c.IVR.RootMenuID == "" {
		return errors.New("config: ivr.root_menu_id is empty")
	}
	return nil
}

// SessionTTLDuration converts the configured TTL in seconds.
func (c IVRConfig) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// ActionURL is the digit-input callback handed to the provider. Without a
// base URL the relative path is used.
func (c IVRConfig) ActionURL() string {
	base := strings.TrimRight(c.WebhookBaseURL, "/")
	if base == "" {
		return inputPath
	}
	return base + inputPath
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
