package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "postbuilder.yaml"

// Config represents the application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Site    SiteConfig    `yaml:"site"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Build   BuildConfig   `yaml:"build"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
}

// SourceConfig locates the Markdown posts.
type SourceConfig struct {
	Dir        string            `yaml:"dir"`
	Extensions []string          `yaml:"extensions,omitempty"`
	Repository *RepositoryConfig `yaml:"repository,omitempty"` // Optional; Dir is then relative to the clone
}

// RepositoryConfig describes a git repository holding the posts.
type RepositoryConfig struct {
	URL          string      `yaml:"url"`
	Branch       string      `yaml:"branch,omitempty"`
	Auth         *AuthConfig `yaml:"auth,omitempty"`
	Depth        int         `yaml:"depth,omitempty"`
	MaxRetries   int         `yaml:"max_retries,omitempty"`
	RetryBackoff string      `yaml:"retry_backoff,omitempty"` // fixed|linear|exponential
}

// AuthType selects how the repository clone authenticates.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// SiteConfig carries the deployment-specific values threaded into the pipeline.
type SiteConfig struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
	BasePath    string `yaml:"base_path"`
	PostRoute   string `yaml:"post_route,omitempty"`
}

// OutputConfig holds artifact locations.
type OutputConfig struct {
	IndexPath string `yaml:"index_path"`
	FeedPath  string `yaml:"feed_path"`
}

// RenderConfig controls the Markdown renderer stages.
type RenderConfig struct {
	Highlight HighlightConfig `yaml:"highlight"`
	Diagram   DiagramConfig   `yaml:"diagram"`
}

// HighlightConfig configures fenced code highlighting.
type HighlightConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Style       string `yaml:"style,omitempty"`
	Classes     bool   `yaml:"classes,omitempty"`
	LineNumbers bool   `yaml:"line_numbers,omitempty"`
}

// IsEnabled reports whether highlighting is on (default true).
func (h HighlightConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Diagram engine names.
const (
	DiagramEngineClient  = "client"
	DiagramEngineCommand = "command"
	DiagramEngineNone    = "none"
)

// DiagramConfig configures fenced diagram rendering.
type DiagramConfig struct {
	Engine        string        `yaml:"engine"`
	Languages     []string      `yaml:"languages,omitempty"`
	Command       string        `yaml:"command,omitempty"`
	Args          []string      `yaml:"args,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	MaxConcurrent int           `yaml:"max_concurrent,omitempty"`
}

// BuildConfig controls index generation.
type BuildConfig struct {
	Workers   int    `yaml:"workers,omitempty"`
	Workspace string `yaml:"workspace,omitempty"` // Fixed clone directory; empty means a temp dir per build
}

// CacheConfig enables the rendered-document cache when Path is set.
type CacheConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables Prometheus textfile export when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// EventsConfig enables NATS build notifications when NATSURL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Overrides carries CLI flag values that take precedence over the file.
type Overrides struct {
	SourceDir string
	BasePath  string
	SiteURL   string
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// LoadOptional loads configPath, falling back to Default when the file
// does not exist.
func LoadOptional(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFiles()
		return Default(), nil
	}
	return Load(configPath)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyOverrides applies non-empty CLI values and re-validates.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.SourceDir != "" {
		c.Source.Dir = o.SourceDir
	}
	if o.BasePath != "" {
		c.Site.BasePath = o.BasePath
	}
	if o.SiteURL != "" {
		c.Site.URL = o.SiteURL
	}
	return c.Validate()
}
