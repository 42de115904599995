// ABOUTME: Configuration loading and parsing for wagate
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete wagate configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	WhatsApp   WhatsAppConfig   `yaml:"whatsapp"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WhatsAppConfig holds WhatsApp Cloud API credentials and webhook settings
type WhatsAppConfig struct {
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	VerifyToken   string `yaml:"verify_token"`
	// APIBase overrides the Graph API base URL, mainly for testing
	APIBase string `yaml:"api_base"`

	SendTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	SendTimeoutRaw string `yaml:"send_timeout"`
}

// CompletionConfig holds the completion provider configuration
type CompletionConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// SystemPrompt is the instruction prepended to every completion request.
	// SystemPromptFile, if set, takes precedence and is read at load time.
	SystemPrompt     string `yaml:"system_prompt"`
	SystemPromptFile string `yaml:"system_prompt_file"`
	// ContextLimit caps the assembled transcript in bytes; 0 disables clipping
	ContextLimit int `yaml:"context_limit"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied after parsing, before validation.
const (
	DefaultHTTPAddr = ":8080"
	DefaultBaseURL  = "https://api.groq.com/openai/v1"
	DefaultModel    = "llama-3.1-8b-instant"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.loadSystemPrompt(); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in optional fields. The WAGATE_DB_PATH environment
// variable overrides database.path so deployments can relocate the store
// without editing the config file.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if dbPath := os.Getenv("WAGATE_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = DefaultBaseURL
	}
	if c.Completion.Model == "" {
		c.Completion.Model = DefaultModel
	}
}

// loadSystemPrompt reads system_prompt_file into SystemPrompt when set.
func (c *Config) loadSystemPrompt() error {
	if c.Completion.SystemPromptFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.Completion.SystemPromptFile)
	if err != nil {
		return fmt.Errorf("reading system prompt file: %w", err)
	}
	c.Completion.SystemPrompt = strings.TrimSpace(string(data))
	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.WhatsApp.AccessToken == "" {
		return fmt.Errorf("whatsapp.access_token is required")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		return fmt.Errorf("whatsapp.phone_number_id is required")
	}
	if c.WhatsApp.VerifyToken == "" {
		return fmt.Errorf("whatsapp.verify_token is required")
	}

	if c.Completion.APIKey == "" {
		return fmt.Errorf("completion.api_key is required")
	}
	if c.Completion.ContextLimit < 0 {
		return fmt.Errorf("completion.context_limit must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.WhatsApp.SendTimeoutRaw != "" {
		cfg.WhatsApp.SendTimeout, err = time.ParseDuration(cfg.WhatsApp.SendTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing send_timeout %q: %w", cfg.WhatsApp.SendTimeoutRaw, err)
		}
	}

	if cfg.Completion.TimeoutRaw != "" {
		cfg.Completion.Timeout, err = time.ParseDuration(cfg.Completion.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Completion.TimeoutRaw, err)
		}
	}

	return nil
}
