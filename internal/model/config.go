package model

import "time"

// Config holds the full runtime configuration.
//
// Hierarchy (highest to lowest priority): CLI flags, TEXTAUDIT_* environment
// variables, ~/.textaudit/config.yaml, defaults.
type Config struct {
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Validate ValidateConfig `yaml:"validate" mapstructure:"validate"`
	Document DocumentConfig `yaml:"document" mapstructure:"document"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects and tunes the analysis backend.
type LLMConfig struct {
	// Backend name: "gemini", "openai", "heuristic". Empty selects heuristic.
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Model name (backend-specific).
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey for remote backends.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the backend endpoint (useful for proxies and tests).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout for one remote call, in seconds. Expiry is a page-level
	// failure; the run continues with the next page.
	Timeout int `yaml:"timeout" mapstructure:"timeout"`

	// MaxOutputTokens bounds the structured reply size.
	MaxOutputTokens int `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`

	// RequestsPerMinute throttles remote calls. Zero disables throttling.
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// HTTPProxy and HTTPSProxy override the proxy for remote calls.
	// Empty falls back to the standard proxy environment variables.
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// ValidateConfig controls finding cleanup.
type ValidateConfig struct {
	// OnInvalidCategory: "drop" discards findings with a category outside
	// the taxonomy, "coerce" relabels them with FallbackCategory.
	OnInvalidCategory string `yaml:"on_invalid_category" mapstructure:"on_invalid_category"`

	// FallbackCategory used by the coerce policy.
	FallbackCategory string `yaml:"fallback_category" mapstructure:"fallback_category"`
}

// DocumentConfig bounds document ingestion.
type DocumentConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
}

// CacheConfig controls per-page result caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // non-empty enables the disk layer
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port           int   `yaml:"port" mapstructure:"port"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig configures process-wide logging, resolved once at startup.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// Scope "prod" switches to JSON log output for log aggregation.
	Scope string `yaml:"scope" mapstructure:"scope"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Backend:           "", // heuristic unless configured
			Model:             "",
			Timeout:           60,
			MaxOutputTokens:   54000,
			RequestsPerMinute: 30,
		},
		Validate: ValidateConfig{
			OnInvalidCategory: "drop",
			FallbackCategory:  string(CategorySemantics),
		},
		Document: DocumentConfig{
			MaxBytes: 50 << 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Port:           8080,
			MaxUploadBytes: 50 << 20,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level: "info",
			Scope: "development",
		},
	}
}
