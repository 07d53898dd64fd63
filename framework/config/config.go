package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/km-arc/go-webbeans/framework/container"
)

// Config is the central typed configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Log          LogConfig          `mapstructure:"log"`
	Container    ContainerConfig    `mapstructure:"container"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Session      SessionConfig      `mapstructure:"session"`
	Descriptor   DescriptorConfig   `mapstructure:"descriptor"`
	Inspect      InspectConfig      `mapstructure:"inspect"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // local | production | testing
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ContainerConfig struct {
	NoCheckedExceptions  bool `mapstructure:"no_checked_exceptions"`
	SupportsConversation bool `mapstructure:"supports_conversation"`
}

type ConversationConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	RetainLongRunning bool          `mapstructure:"retain_long_running"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	Store      string        `mapstructure:"store"` // memory | redis
	RedisAddr  string        `mapstructure:"redis_addr"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type DescriptorConfig struct {
	Path string `mapstructure:"path"`
}

// InspectConfig controls the /_webbeans inspection routes. They are
// always served in the local environment.
type InspectConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// FileName is the optional config file looked up in the working directory,
// without extension.
const FileName = "webbeans"

// Load reads .env (if present), then layers defaults, an optional
// webbeans.yaml and the environment. APP_PORT overrides app.port and so on.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "WebBeans")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.port", "8000")

	v.SetDefault("log.level", "info")

	v.SetDefault("container.no_checked_exceptions", true)
	v.SetDefault("container.supports_conversation", true)

	v.SetDefault("conversation.timeout", 30*time.Minute)
	v.SetDefault("conversation.sweep_interval", time.Minute)
	v.SetDefault("conversation.retain_long_running", false)

	v.SetDefault("session.cookie_name", "WEBBEANS_SESSION")
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.redis_addr", "127.0.0.1:6379")
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("descriptor.path", "beans.yaml")

	v.SetDefault("inspect.enabled", false)
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: session.store must be memory or redis, got %q", c.Session.Store)
	}
	if c.Conversation.Timeout <= 0 {
		return fmt.Errorf("config: conversation.timeout must be positive, got %s", c.Conversation.Timeout)
	}
	return nil
}

// IsLocal reports whether the app runs in the local environment.
func (c *Config) IsLocal() bool { return c.App.Env == "local" }

// InspectEnabled reports whether the inspection routes are mounted.
func (c *Config) InspectEnabled() bool { return c.Inspect.Enabled || c.IsLocal() }

// ContainerSettings returns the container settings derived from c.
func (c *Config) ContainerSettings() container.Config {
	cc := container.DefaultConfig()
	cc.NoCheckedExceptions = c.Container.NoCheckedExceptions
	cc.SupportsConversation = c.Container.SupportsConversation
	cc.ConversationTimeout = c.Conversation.Timeout
	cc.RetainLongRunning = c.Conversation.RetainLongRunning
	return cc
}
