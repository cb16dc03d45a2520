package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// WatcherConfig controls the poll loop
type WatcherConfig struct {
	PollInterval              time.Duration
	MaxBackoff                time.Duration
	BackoffMultiplier         int
	TrustedSenders            []string
	AllowlistGatesAttachments bool
	Autostart                 bool
}

// MailConfig selects the mailbox transport
type MailConfig struct {
	Provider string
}

// GmailConfig represents the configuration for the Gmail API source
type GmailConfig struct {
	User           string
	Query          string
	CredentialsDir string
}

// IMAPConfig represents the configuration for an IMAP mailbox
type IMAPConfig struct {
	Address  string
	Username string
	Password string
	Mailbox  string
	TLS      bool
}

// StorageConfig holds file locations
type StorageConfig struct {
	StateFile   string
	ProfileFile string
	DataDir     string
	Retention   int
}

// MatchConfig tunes the classifier
type MatchConfig struct {
	NameOverlapThreshold float64
	EmailSignals         bool
	BodyPreviewSize      int
}

// ArchiveConfig selects the audit archive backend
type ArchiveConfig struct {
	Type             string
	DataDir          string
	SQLitePath       string
	MySQLDSN         string
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// CalendarConfig represents the calendar side effect
type CalendarConfig struct {
	Enabled        bool
	CalendarID     string
	Timezone       string
	EventDuration  time.Duration
	RequireKeyword bool
	Keywords       []string
	Halls          map[string]string
	Blocks         map[string]string
	CredentialsDir string
}

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider  string
	RateLimit float64
	Burst     int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// NotifyConfig represents the SMTP notifier
type NotifyConfig struct {
	Enabled     bool
	SMTPAddress string
	Username    string
	Password    string
	From        string
	To          []string
	MinVerdict  string
}

// ServerConfig represents the HTTP API
type ServerConfig struct {
	Enabled       bool
	ListenAddress string
}

// GetWatcher returns the poll loop configuration
func (c *Config) GetWatcher() (WatcherConfig, error) {
	interval, err := c.GetDuration("watcher.poll_interval")
	if err != nil {
		return WatcherConfig{}, err
	}
	maxBackoff, err := c.GetDuration("watcher.max_backoff")
	if err != nil {
		return WatcherConfig{}, err
	}
	return WatcherConfig{
		PollInterval:              interval,
		MaxBackoff:                maxBackoff,
		BackoffMultiplier:         c.GetInt("watcher.backoff_multiplier"),
		TrustedSenders:            c.GetStringSlice("watcher.trusted_senders"),
		AllowlistGatesAttachments: c.GetBool("watcher.allowlist_gates_attachments"),
		Autostart:                 c.GetBool("watcher.autostart"),
	}, nil
}

// GetMail returns the mail source selection
func (c *Config) GetMail() MailConfig {
	return MailConfig{Provider: c.GetString("mail.provider")}
}

// GetGmail returns the Gmail configuration
func (c *Config) GetGmail() GmailConfig {
	return GmailConfig{
		User:           c.GetString("gmail.user"),
		Query:          c.GetString("gmail.query"),
		CredentialsDir: c.GetString("google.credentials_dir"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Address:  c.GetString("imap.address"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		Mailbox:  c.GetString("imap.mailbox"),
		TLS:      c.GetBool("imap.tls"),
	}
}

// GetStorage returns file locations and record retention
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		StateFile:   filepath.Clean(c.GetString("storage.state_file")),
		ProfileFile: filepath.Clean(c.GetString("storage.profile_file")),
		DataDir:     filepath.Clean(c.GetString("storage.data_dir")),
		Retention:   c.GetInt("state.retention"),
	}
}

// GetMatch returns the classifier settings
func (c *Config) GetMatch() MatchConfig {
	return MatchConfig{
		NameOverlapThreshold: c.GetFloat64("match.name_overlap_threshold"),
		EmailSignals:         c.GetBool("match.email_signals"),
		BodyPreviewSize:      c.GetInt("match.body_preview_size"),
	}
}

// GetArchive returns the archive configuration
func (c *Config) GetArchive() (ArchiveConfig, error) {
	retention, err := c.GetDuration("archive.retention")
	if err != nil {
		return ArchiveConfig{}, err
	}
	freq, err := c.GetDuration("archive.cleanup_frequency")
	if err != nil {
		return ArchiveConfig{}, err
	}
	return ArchiveConfig{
		Type:             c.GetString("archive.type"),
		DataDir:          c.GetString("storage.data_dir"),
		SQLitePath:       c.GetString("archive.sqlite_path"),
		MySQLDSN:         c.GetString("archive.mysql_dsn"),
		Retention:        retention,
		CleanupFrequency: freq,
	}, nil
}

// GetCalendar returns the calendar configuration
func (c *Config) GetCalendar() (CalendarConfig, error) {
	duration, err := c.GetDuration("calendar.event_duration")
	if err != nil {
		return CalendarConfig{}, err
	}
	return CalendarConfig{
		Enabled:        c.GetBool("calendar.enabled"),
		CalendarID:     c.GetString("calendar.calendar_id"),
		Timezone:       c.GetString("calendar.timezone"),
		EventDuration:  duration,
		RequireKeyword: c.GetBool("calendar.require_keyword"),
		Keywords:       c.GetStringSlice("calendar.keywords"),
		Halls:          c.GetStringMapString("calendar.halls"),
		Blocks:         c.GetStringMapString("calendar.blocks"),
		CredentialsDir: c.GetString("google.credentials_dir"),
	}, nil
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:  c.GetString("llm.provider"),
		RateLimit: c.GetFloat64("llm.rate_limit"),
		Burst:     c.GetInt("llm.burst"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetNotify returns the notifier configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		Enabled:     c.GetBool("notify.enabled"),
		SMTPAddress: c.GetString("notify.smtp_address"),
		Username:    c.GetString("notify.username"),
		Password:    c.GetString("notify.password"),
		From:        c.GetString("notify.from"),
		To:          c.GetStringSlice("notify.to"),
		MinVerdict:  c.GetString("notify.min_verdict"),
	}
}

// GetServer returns the HTTP API configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Enabled:       c.GetBool("server.enabled"),
		ListenAddress: c.GetString("server.listen_address"),
	}
}

// GetLocation loads the calendar timezone
func (c *Config) GetLocation() (*time.Location, error) {
	name := c.GetString("calendar.timezone")
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", name, err)
	}
	return loc, nil
}
