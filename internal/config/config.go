package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/medihome/storefront/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigName is the configuration file name without extension.
	ConfigName = "storefront"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "STOREFRONT"

	// DefaultAddress is the default HTTP listen address.
	DefaultAddress = ":8080"

	// DefaultSQLitePath is the default subscriber database location.
	DefaultSQLitePath = "data/storefront.db"
)

// Archive backends.
const (
	ArchiveMemory = "memory"
	ArchiveS3     = "s3"
)

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Live    LiveConfig    `mapstructure:"live"`
	Toast   ToastConfig   `mapstructure:"toast"`
	Flash   FlashConfig   `mapstructure:"flash"`
	Session SessionConfig `mapstructure:"session"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`

	// configPath stores the file the config was loaded from, if any.
	configPath string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AllowedOrigins may open the live channel cross-origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LiveConfig configures live sessions.
type LiveConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxMessageSize    int64         `mapstructure:"max_message_size"`
	SendQueue         int           `mapstructure:"send_queue"`
}

// ToastConfig configures the toast slot.
type ToastConfig struct {
	Duration time.Duration `mapstructure:"duration"`

	// Policy is "replace" or "legacy".
	Policy string `mapstructure:"policy"`
}

// FlashConfig configures the flash cascade.
type FlashConfig struct {
	Stagger time.Duration `mapstructure:"stagger"`
	Visible time.Duration `mapstructure:"visible"`
	Fade    time.Duration `mapstructure:"fade"`
}

// SessionConfig configures browser sessions and the flash bag.
type SessionConfig struct {
	CookieName      string        `mapstructure:"cookie_name"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`

	// Archive is "memory" or "s3".
	Archive string   `mapstructure:"archive"`
	S3      S3Config `mapstructure:"s3"`
}

// S3Config locates the contact archive bucket.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         DefaultAddress,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{},
		},
		Live: LiveConfig{
			ReadTimeout:       60 * time.Second,
			HeartbeatInterval: 25 * time.Second,
			MaxMessageSize:    8 * 1024,
			SendQueue:         64,
		},
		Toast: ToastConfig{
			Duration: 3000 * time.Millisecond,
			Policy:   "replace",
		},
		Flash: FlashConfig{
			Stagger: 150 * time.Millisecond,
			Visible: 2000 * time.Millisecond,
			Fade:    500 * time.Millisecond,
		},
		Session: SessionConfig{
			CookieName:      "storefront_session",
			TTL:             24 * time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			SQLitePath: DefaultSQLitePath,
			Archive:    ArchiveMemory,
			S3: S3Config{
				Prefix: "contact/",
				Region: "us-east-1",
			},
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "storefront",
			Path:      "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Entry is one flattened configuration key and its value.
type Entry struct {
	Key   string
	Value any
}

// Entries returns every key of c in file order.
func (c *Config) Entries() []Entry {
	return []Entry{
		{"server.address", c.Server.Address},
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"server.allowed_origins", c.Server.AllowedOrigins},
		{"live.read_timeout", c.Live.ReadTimeout},
		{"live.heartbeat_interval", c.Live.HeartbeatInterval},
		{"live.max_message_size", c.Live.MaxMessageSize},
		{"live.send_queue", c.Live.SendQueue},
		{"toast.duration", c.Toast.Duration},
		{"toast.policy", c.Toast.Policy},
		{"flash.stagger", c.Flash.Stagger},
		{"flash.visible", c.Flash.Visible},
		{"flash.fade", c.Flash.Fade},
		{"session.cookie_name", c.Session.CookieName},
		{"session.ttl", c.Session.TTL},
		{"session.cleanup_interval", c.Session.CleanupInterval},
		{"store.sqlite_path", c.Store.SQLitePath},
		{"store.archive", c.Store.Archive},
		{"store.s3.bucket", c.Store.S3.Bucket},
		{"store.s3.prefix", c.Store.S3.Prefix},
		{"store.s3.region", c.Store.S3.Region},
		{"store.s3.endpoint", c.Store.S3.Endpoint},
		{"store.s3.path_style", c.Store.S3.PathStyle},
		{"metrics.enabled", c.Metrics.Enabled},
		{"metrics.namespace", c.Metrics.Namespace},
		{"metrics.path", c.Metrics.Path},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
	}
}

// Load reads the configuration. If path is empty, storefront.{yaml,json,toml}
// is looked up in the working directory and is optional; an explicit path
// must exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	for _, e := range Default().Entries() {
		v.SetDefault(e.Key, e.Value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path == "" && stderrors.As(err, &notFound):
			// No file; defaults and environment only.
		case os.IsNotExist(err):
			return nil, errors.New("E101").
				WithDetail("No config file at " + path).
				Wrap(err)
		default:
			return nil, errors.New("E101").
				WithDetailf("Failed to read %s", v.ConfigFileUsed()).
				Wrap(err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Config values have the wrong type").
			Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) normalize() {
	c.Toast.Policy = strings.ToLower(strings.TrimSpace(c.Toast.Policy))
	c.Store.Archive = strings.ToLower(strings.TrimSpace(c.Store.Archive))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return invalid("server.address must not be empty")
	}

	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"live.read_timeout", c.Live.ReadTimeout},
		{"live.heartbeat_interval", c.Live.HeartbeatInterval},
		{"toast.duration", c.Toast.Duration},
		{"flash.stagger", c.Flash.Stagger},
		{"flash.visible", c.Flash.Visible},
		{"flash.fade", c.Flash.Fade},
		{"session.ttl", c.Session.TTL},
	} {
		if d.val <= 0 {
			return invalid(fmt.Sprintf("%s must be positive, got %s", d.key, d.val))
		}
	}

	if c.Live.MaxMessageSize <= 0 {
		return invalid("live.max_message_size must be positive")
	}
	if c.Live.SendQueue <= 0 {
		return invalid("live.send_queue must be positive")
	}
	if c.Session.CleanupInterval < 0 {
		return invalid("session.cleanup_interval must not be negative")
	}

	if err := oneOf("toast.policy", c.Toast.Policy, "replace", "legacy"); err != nil {
		return err
	}
	if c.Session.CookieName == "" {
		return invalid("session.cookie_name must not be empty")
	}
	if c.Store.SQLitePath == "" {
		return invalid("store.sqlite_path must not be empty")
	}
	if err := oneOf("store.archive", c.Store.Archive, ArchiveMemory, ArchiveS3); err != nil {
		return err
	}
	if c.Store.Archive == ArchiveS3 && c.Store.S3.Bucket == "" {
		return errors.New("E103")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if err := oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	return oneOf("log.format", c.Log.Format, "text", "json")
}

func invalid(detail string) error {
	return errors.New("E102").WithDetail(detail)
}

func oneOf(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return invalid(fmt.Sprintf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), val))
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
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
