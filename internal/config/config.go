package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/shortlist-watcher/")
	v.AddConfigPath("$HOME/.shortlist-watcher")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("SHORTLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile loads configuration from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := NewEmptyViper()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("SHORTLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Watcher defaults
	v.SetDefault("watcher.poll_interval", "30s")
	v.SetDefault("watcher.max_backoff", "5m")
	v.SetDefault("watcher.backoff_multiplier", 4)
	v.SetDefault("watcher.trusted_senders", []string{})
	v.SetDefault("watcher.allowlist_gates_attachments", true)
	v.SetDefault("watcher.autostart", true)

	// Mail source defaults
	v.SetDefault("mail.provider", "gmail")
	v.SetDefault("gmail.user", "me")
	v.SetDefault("gmail.query", "in:inbox")
	v.SetDefault("imap.address", "imap.gmail.com:993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.tls", true)
	v.SetDefault("google.credentials_dir", "./credentials")

	// Storage defaults
	v.SetDefault("storage.state_file", "./data/processing_state.json")
	v.SetDefault("storage.profile_file", "./data/profile.json")
	v.SetDefault("storage.data_dir", "./data/matches")
	v.SetDefault("state.retention", 100)

	// Match defaults
	v.SetDefault("match.name_overlap_threshold", 0.8)
	v.SetDefault("match.email_signals", true)
	v.SetDefault("match.body_preview_size", 400)

	// Archive defaults
	v.SetDefault("archive.type", "file")
	v.SetDefault("archive.sqlite_path", "./data/matches.db")
	v.SetDefault("archive.mysql_dsn", "user:password@tcp(localhost:3306)/shortlist_watcher?parseTime=true")
	v.SetDefault("archive.retention", "0s")
	v.SetDefault("archive.cleanup_frequency", "1h")

	// Calendar defaults
	v.SetDefault("calendar.enabled", false)
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("calendar.timezone", "Asia/Kolkata")
	v.SetDefault("calendar.event_duration", "1h")
	v.SetDefault("calendar.require_keyword", false)
	v.SetDefault("calendar.keywords", []string{
		"shortlist", "selected", "qualified", "interview", "next round",
		"congratulations", "proceed", "further process", "round 2",
		"technical interview", "hr interview", "final round",
	})

	// LLM fallback defaults
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.rate_limit", 0.5)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 300)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 300)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Notification defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.smtp_address", "smtp.gmail.com:587")
	v.SetDefault("notify.username", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", []string{})
	v.SetDefault("notify.min_verdict", "CONFIRMED_MATCH")

	// Log stream and HTTP API defaults
	v.SetDefault("logstream.capacity", 1000)
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.listen_address", "127.0.0.1:8080")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMapString gets a string map value from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
