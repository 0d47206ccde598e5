package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/jmribera/textaudit/internal/util"
)

// OpenAIBackend implements the Backend interface against OpenAI-compatible
// chat completion APIs. Unlike the Gemini backend it cannot attach the PDF
// itself, so it analyzes the extracted plain text of the page.
type OpenAIBackend struct {
	client  *openai.Client
	texts   TextExtractor
	limiter *rate.Limiter
	schema  *jsonschema.Schema
	config  Config
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(config Config, texts TextExtractor) (*OpenAIBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if texts == nil {
		return nil, fmt.Errorf("OpenAI backend requires a text extractor")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy),
		},
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerMinute/60), 1)
	}

	return &OpenAIBackend{
		client:  openai.NewClientWithConfig(clientConfig),
		texts:   texts,
		limiter: limiter,
		schema:  compileEnvelopeSchema(),
		config:  config,
	}, nil
}

// Name returns the backend name.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (b *OpenAIBackend) IsAvailable(ctx context.Context) bool {
	_, err := b.client.ListModels(ctx)
	if err != nil {
		slog.Warn("OpenAI availability check failed", "error", err)
		return false
	}
	return true
}

// AnalyzePage extracts the page text and submits it for analysis. A page
// with no extractable text yields an empty result, not an error.
func (b *OpenAIBackend) AnalyzePage(ctx context.Context, pageBytes []byte, pageNumber int) (*PageResult, error) {
	text := b.texts.ExtractText(pageBytes)
	if strings.TrimSpace(text) == "" {
		slog.Warn("no extractable text on page, skipping remote call", "page", pageNumber)
		return &PageResult{}, nil
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	model := b.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	timeout := time.Duration(b.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	system := BuildSystemInstruction() +
		"\n\nReturn ONLY a JSON object with keys detected_language (\"es\" or \"en\"), " +
		"printed_page (string), and findings (array of objects with category, priority, " +
		"original_fragment, recommendation)."

	user := BuildUserInstruction(pageNumber) + "\n\nPage text:\n" + text

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := b.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI response has no choices", "page", pageNumber)
		return &PageResult{}, nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		slog.Error("OpenAI reply truncated at max tokens", "page", pageNumber)
		return &PageResult{}, nil
	}
	if choice.FinishReason == openai.FinishReasonContentFilter {
		slog.Warn("OpenAI reply blocked by content filter", "page", pageNumber)
		return &PageResult{}, nil
	}

	result, err := decodeEnvelope(b.schema, []byte(choice.Message.Content))
	if err != nil {
		slog.Warn("OpenAI reply failed shape validation", "page", pageNumber, "error", err)
		return &PageResult{}, nil
	}

	return result, nil
}
