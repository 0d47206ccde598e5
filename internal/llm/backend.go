package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmribera/textaudit/internal/model"
)

// Backend defines the interface for page analysis backends.
//
// A backend receives a single-page PDF buffer and reports raw findings;
// it never sets PDFPage on findings, the orchestrator stamps that.
type Backend interface {
	// Name returns the backend name.
	Name() string

	// AnalyzePage analyzes one single-page buffer. The returned result is
	// never nil on a nil error; an unparseable or blocked reply yields an
	// empty result, not an error.
	AnalyzePage(ctx context.Context, pageBytes []byte, pageNumber int) (*PageResult, error)

	// IsAvailable checks if the backend is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// PageResult contains the raw analysis output for one page, before
// validation and metadata stamping.
type PageResult struct {
	// DetectedLanguage reported by the backend; may be empty or unsupported.
	DetectedLanguage string

	// PrintedPageLabel is the printed page number as reported by the
	// backend, as free text. Best-effort; parse failures fall back to the
	// PDF page number.
	PrintedPageLabel string

	// Findings holds raw findings; cleaned downstream by validate.Cleaner.
	Findings []model.Finding
}

// TextExtractor supplies best-effort plain text for a page buffer. The
// text-based backends depend on it; remote document backends do not.
type TextExtractor interface {
	ExtractText(doc []byte) string
}

// Config holds backend configuration.
type Config struct {
	// Backend name: "gemini", "openai", "heuristic", "" (= heuristic).
	Backend string

	// Model name (backend-specific).
	Model string

	// APIKey for remote backends.
	APIKey string

	// BaseURL for custom endpoints.
	BaseURL string

	// Timeout for one remote call, in seconds.
	Timeout int

	// MaxOutputTokens bounds the structured reply.
	MaxOutputTokens int

	// RequestsPerMinute throttles remote calls. Zero disables throttling.
	RequestsPerMinute float64

	// HTTPProxy and HTTPSProxy override the proxy for remote calls.
	// Empty falls back to the standard proxy environment variables.
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:           "",
		Timeout:           60,
		MaxOutputTokens:   54000,
		RequestsPerMinute: 30,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Backend:           modelConfig.Backend,
		Model:             modelConfig.Model,
		APIKey:            modelConfig.APIKey,
		BaseURL:           modelConfig.BaseURL,
		Timeout:           modelConfig.Timeout,
		MaxOutputTokens:   modelConfig.MaxOutputTokens,
		RequestsPerMinute: modelConfig.RequestsPerMinute,
		HTTPProxy:         modelConfig.HTTPProxy,
		HTTPSProxy:        modelConfig.HTTPSProxy,
	}
}

// NewBackend creates an analysis backend based on configuration. The
// variant is an explicit construction-time choice, never a runtime probe.
// A missing API key for a remote backend is a configuration error and
// surfaces here, before any analysis runs.
func NewBackend(config Config, texts TextExtractor) (Backend, error) {
	switch strings.ToLower(config.Backend) {
	case "gemini":
		return NewGeminiBackend(config)

	case "openai":
		return NewOpenAIBackend(config, texts)

	case "heuristic", "":
		return NewHeuristicBackend(texts), nil

	default:
		return nil, fmt.Errorf("unknown analysis backend: %s (supported: gemini, openai, heuristic)", config.Backend)
	}
}
