package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all chatbox configuration.
type Config struct {
	// Backend REST API
	API APIConfig `yaml:"api"`

	// Local storage (auth-storage lives here)
	Storage StorageConfig `yaml:"storage"`

	// Chat session behavior
	Chat ChatConfig `yaml:"chat"`

	// Fallback auto-responder
	AutoReply AutoReplyConfig `yaml:"autoreply"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the tenant backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout string        `yaml:"timeout"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures fail-fast behavior after repeated transport failures.
type BreakerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MaxFailures int    `yaml:"max_failures"`
	OpenTimeout string `yaml:"open_timeout"`
}

// StorageConfig locates the local key/value store.
type StorageConfig struct {
	Path    string `yaml:"path"`
	AuthKey string `yaml:"auth_key"`
}

// ChatConfig configures session creation and message handling.
type ChatConfig struct {
	Category       string `yaml:"category"`
	Priority       string `yaml:"priority"`
	HistoryLimit   int    `yaml:"history_limit"`
	UploadDelay    string `yaml:"upload_delay"`
	WelcomeMessage string `yaml:"welcome_message"`

	// SurfaceFailures marks failed sends as "failed" instead of masking them
	// behind a synthetic support reply.
	SurfaceFailures bool `yaml:"surface_failures"`
}

// AutoReplyConfig configures the local fallback responder.
type AutoReplyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	AfterSend    bool   `yaml:"after_send"` // also reply after sends on an existing session
	TypingDelay  string `yaml:"typing_delay"`
	ReplyDelay   string `yaml:"reply_delay"`
	AgentName    string `yaml:"agent_name"`
	ResponseTime string `yaml:"response_time"`
}

// UIConfig configures the terminal widget.
type UIConfig struct {
	Theme          string `yaml:"theme"` // auto, light, dark
	RenderMarkdown bool   `yaml:"render_markdown"`
	Width          int    `yaml:"width"`
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "laundrychat")
	}
	return ".laundrychat"
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: "15s",
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				OpenTimeout: "30s",
			},
		},
		Storage: StorageConfig{
			Path:    filepath.Join(dataDir, "local_storage.db"),
			AuthKey: "auth-storage",
		},
		Chat: ChatConfig{
			Category:       "general",
			Priority:       "medium",
			HistoryLimit:   1,
			UploadDelay:    "1500ms",
			WelcomeMessage: "Welcome to support! How can we help you today?",
		},
		AutoReply: AutoReplyConfig{
			Enabled:      true,
			AfterSend:    true,
			TypingDelay:  "1s",
			ReplyDelay:   "3s",
			AgentName:    "Support Team",
			ResponseTime: "< 2 min",
		},
		UI: UIConfig{
			Theme:          "auto",
			RenderMarkdown: true,
			Width:          80,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Dir:    filepath.Join(dataDir, "logs"),
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults (with env overrides applied).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if u := os.Getenv("LAUNDRYCHAT_API_URL"); u != "" {
		c.API.BaseURL = u
	}
	if p := os.Getenv("LAUNDRYCHAT_STORAGE"); p != "" {
		c.Storage.Path = p
	}
	if theme := os.Getenv("LAUNDRYCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if os.Getenv("LAUNDRYCHAT_DEBUG") != "" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// GetRequestTimeout returns the per-request HTTP timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.API.Timeout, 15*time.Second)
}

// GetBreakerOpenTimeout returns how long the breaker stays open.
func (c *Config) GetBreakerOpenTimeout() time.Duration {
	return parseDuration(c.API.Breaker.OpenTimeout, 30*time.Second)
}

// GetUploadDelay returns the simulated upload delay.
func (c *Config) GetUploadDelay() time.Duration {
	return parseDuration(c.Chat.UploadDelay, 1500*time.Millisecond)
}

// GetTypingDelay returns when the typing indicator appears.
func (c *Config) GetTypingDelay() time.Duration {
	return parseDuration(c.AutoReply.TypingDelay, time.Second)
}

// GetReplyDelay returns when the fallback reply is appended.
func (c *Config) GetReplyDelay() time.Duration {
	return parseDuration(c.AutoReply.ReplyDelay, 3*time.Second)
}

// ValidPriorities lists the priorities accepted by the create-session endpoint.
var ValidPriorities = []string{"low", "medium", "high", "urgent"}

// ValidThemes lists the accepted UI themes.
var ValidThemes = []string{"", "auto", "light", "dark"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid api.base_url %q: must be an absolute http(s) URL", c.API.BaseURL)
	}

	if !contains(ValidPriorities, c.Chat.Priority) {
		return fmt.Errorf("invalid chat.priority: %s (valid: %v)", c.Chat.Priority, ValidPriorities)
	}
	if c.Chat.HistoryLimit < 1 {
		return fmt.Errorf("chat.history_limit must be >= 1, got %d", c.Chat.HistoryLimit)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.AuthKey == "" {
		return fmt.Errorf("storage.auth_key is required")
	}
	if !contains(ValidThemes, c.UI.Theme) {
		return fmt.Errorf("invalid ui.theme: %s (valid: auto, light, dark)", c.UI.Theme)
	}
	if c.API.Breaker.Enabled && c.API.Breaker.MaxFailures < 1 {
		return fmt.Errorf("api.breaker.max_failures must be >= 1 when the breaker is enabled")
	}

	for name, v := range map[string]string{
		"api.timeout":              c.API.Timeout,
		"api.breaker.open_timeout": c.API.Breaker.OpenTimeout,
		"chat.upload_delay":        c.Chat.UploadDelay,
		"autoreply.typing_delay":   c.AutoReply.TypingDelay,
		"autoreply.reply_delay":    c.AutoReply.ReplyDelay,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}

	if c.GetReplyDelay() < c.GetTypingDelay() {
		return fmt.Errorf("autoreply.reply_delay (%s) must not be shorter than typing_delay (%s)",
			c.GetReplyDelay(), c.GetTypingDelay())
	}

	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
