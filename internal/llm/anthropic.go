package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/helixir/paper-agent/internal/domain"
)

// Default values for the Anthropic provider.
const (
	// anthropicAPIVersion is the Anthropic API version header value.
	anthropicAPIVersion = "2023-06-01"

	defaultAnthropicBaseURL    = "https://api.anthropic.com"
	defaultAnthropicModel      = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens  = 2048
	defaultAnthropicRetryDelay = 2 * time.Second
)

// messagesRequest is the request body for the Anthropic Messages API.
type messagesRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage represents a single message in the Anthropic Messages API.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock represents a content block in the Messages API response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// messagesResponse is the response body from the Anthropic Messages API.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      anthropicUsage `json:"usage"`
}

// anthropicUsage contains token usage information from the Anthropic API.
type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// anthropicAPIErrorDetail represents the nested error object in an
// Anthropic API error response.
type anthropicAPIErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicErrorResponse wraps the error payload from the Anthropic API.
type anthropicErrorResponse struct {
	Type  string                  `json:"type"`
	Error anthropicAPIErrorDetail `json:"error"`
}

// AnthropicProvider implements Evaluator using the Anthropic Messages API.
type AnthropicProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// Compile-time interface verification.
var _ Evaluator = (*AnthropicProvider)(nil)

// AnthropicConfig holds the parameters needed to create an Anthropic provider.
// This is defined in the llm package to avoid importing the config package.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string
	// Model is the model identifier (e.g., "claude-sonnet-4-20250514").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// NewAnthropicProvider creates a new AnthropicProvider with the given
// configuration. The timeout parameter controls the HTTP client timeout for
// API calls. The maxRetries parameter controls how many times transient
// errors are retried.
func NewAnthropicProvider(cfg AnthropicConfig, temperature float64, timeout time.Duration, maxRetries int) *AnthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	return &AnthropicProvider{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultAnthropicRetryDelay,
	}
}

// ScorePaper scores a paper against the interest profile.
func (p *AnthropicProvider) ScorePaper(ctx context.Context, paper *domain.Paper, profile string) (*ScoreResult, error) {
	return scorePaperWith(ctx, p, p.temperature, paper, profile)
}

// SummarizePaper writes a personalized Markdown summary.
func (p *AnthropicProvider) SummarizePaper(ctx context.Context, paper *domain.Paper, fullText string) (string, error) {
	return summarizePaperWith(ctx, p, paper, fullText)
}

// ExtractAffiliations pulls author affiliations out of paper text.
func (p *AnthropicProvider) ExtractAffiliations(ctx context.Context, paper *domain.Paper, text string) (*AffiliationResult, error) {
	return extractAffiliationsWith(ctx, p, paper, text)
}

// Provider returns the name of the LLM provider.
func (p *AnthropicProvider) Provider() string {
	return "anthropic"
}

// Model returns the model identifier being used.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// complete performs one message completion with retries on transient
// errors. The Messages API has no JSON response mode; jsonMode is enforced
// through the prompt, so the response is used as-is.
func (p *AnthropicProvider) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, jsonMode bool) (string, error) {
	msgReq := messagesRequest{
		Model:       p.model,
		MaxTokens:   defaultAnthropicMaxTokens,
		System:      systemPrompt,
		Temperature: temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("anthropic: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		content, err := p.doRequest(ctx, msgReq)
		if err == nil {
			return content, nil
		}

		if !isTransientError(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("anthropic: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// doRequest performs a single API request to the Messages endpoint.
func (p *AnthropicProvider) doRequest(ctx context.Context, msgReq messagesRequest) (string, error) {
	body, err := json.Marshal(msgReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("anthropic: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseAnthropicAPIError(resp.StatusCode, respBody)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return "", fmt.Errorf("anthropic: failed to unmarshal response: %w", err)
	}

	for _, block := range msgResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: no text content in response")
}

// parseAnthropicAPIError parses an Anthropic API error from the response
// status code and body.
func parseAnthropicAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "anthropic",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp anthropicErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
	}

	return apiErr
}
