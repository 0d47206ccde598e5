package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/jmribera/textaudit/internal/util"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiBackend implements the Backend interface against the Gemini
// generateContent API. The page travels as an inline PDF attachment; the
// reply is constrained to the taxonomy schema.
type GeminiBackend struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	schema     *jsonschema.Schema
	config     Config
}

// Gemini API structures

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting  `json:"safetySettings,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"topP"`
	MaxOutputTokens  int            `json:"maxOutputTokens"`
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiBackend creates a new Gemini backend. A missing API key is a
// configuration error.
func NewGeminiBackend(config Config) (*GeminiBackend, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerMinute/60), 1)
	}

	return &GeminiBackend{
		apiKey:     config.APIKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy),
			},
		},
		limiter:    limiter,
		schema:     compileEnvelopeSchema(),
		config:     config,
	}, nil
}

// Name returns the backend name.
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// IsAvailable checks if the configured model is reachable.
func (b *GeminiBackend) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/v1beta/models/%s", b.baseURL, b.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		slog.Warn("gemini availability check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// AnalyzePage submits one single-page PDF buffer for analysis. Transport
// and API errors are returned to the caller (the orchestrator treats them
// as page-level failures); blocked, truncated, or unparseable replies
// degrade to an empty result with a log entry.
func (b *GeminiBackend) AnalyzePage(ctx context.Context, pageBytes []byte, pageNumber int) (*PageResult, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	maxTokens := b.config.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = 54000
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: BuildUserInstruction(pageNumber)},
					{InlineData: &geminiInlineData{
						MimeType: "application/pdf",
						Data:     base64.StdEncoding.EncodeToString(pageBytes),
					}},
				},
			},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: BuildSystemInstruction()}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1, // low temperature for consistency
			TopP:             0.9,
			MaxOutputTokens:  maxTokens,
			ResponseMIMEType: "application/json",
			ResponseSchema:   BuildResponseSchema(),
		},
		// The domain requires quoting potentially offensive source text
		// verbatim, so all content filters are off.
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "OFF"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "OFF"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "OFF"},
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "OFF"},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", b.baseURL, b.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	return b.parseResponse(body, pageNumber), nil
}

// parseResponse extracts the structured reply from a generateContent
// response. It never fails: every degenerate shape yields an empty result
// and a log entry, so a single bad reply cannot poison a run.
func (b *GeminiBackend) parseResponse(body []byte, pageNumber int) *PageResult {
	empty := &PageResult{}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Warn("gemini response is not valid JSON", "page", pageNumber, "error", err)
		return empty
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		slog.Warn("gemini prompt blocked", "page", pageNumber, "reason", resp.PromptFeedback.BlockReason)
		return empty
	}

	if len(resp.Candidates) == 0 {
		slog.Warn("gemini response has no candidates", "page", pageNumber)
		return empty
	}

	candidate := resp.Candidates[0]
	if strings.Contains(candidate.FinishReason, "SAFETY") {
		slog.Warn("gemini candidate blocked by safety filter", "page", pageNumber)
		return empty
	}
	if strings.Contains(candidate.FinishReason, "MAX_TOKENS") {
		// Reported, not silently dropped: the payload is truncated and
		// cannot be trusted to parse.
		slog.Error("gemini reply truncated at max output tokens", "page", pageNumber)
		return empty
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		slog.Warn("gemini candidate has no text parts", "page", pageNumber)
		return empty
	}

	result, err := decodeEnvelope(b.schema, []byte(text.String()))
	if err != nil {
		slog.Warn("gemini reply failed shape validation", "page", pageNumber, "error", err)
		return empty
	}

	return result
}
