package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://router.huggingface.co/v1"
	defaultTimeout = 60 * time.Second

	// Wait advertised to callers when a 503 body carries no estimate.
	defaultWaitSeconds = 20
)

// ChatMessage is one role-tagged turn of a generation request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one synchronous completion call.
type Request struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Result is a successful completion outcome.
type Result struct {
	Content    string
	TokensUsed int
	Latency    time.Duration
}

// Client performs single-attempt calls against an OpenAI-compatible
// chat-completions endpoint. It holds no state between calls and never
// retries; retry policy belongs to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different completions endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the transport timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(apiKey string, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type loadingResponse struct {
	EstimatedTime float64 `json:"estimated_time"`
}

// Generate performs one completion call and normalizes the outcome. A 503
// becomes *UnavailableError, other non-success statuses *APIError, and an
// unusable success body *MalformedResponseError.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call generation service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	latency := time.Since(start)

	if resp.StatusCode == http.StatusServiceUnavailable {
		var loading loadingResponse
		if err := json.Unmarshal(respBody, &loading); err != nil || loading.EstimatedTime <= 0 {
			loading.EstimatedTime = defaultWaitSeconds
		}
		wait := int(math.Ceil(loading.EstimatedTime))
		c.logger.Warn("model loading",
			zap.String("model", req.Model),
			zap.Int("wait_seconds", wait))
		return nil, &UnavailableError{WaitSeconds: wait}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("generation service error",
			zap.String("model", req.Model),
			zap.Int("status", resp.StatusCode))
		return nil, &APIError{Status: resp.StatusCode, Detail: excerpt(respBody)}
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, &MalformedResponseError{Reason: "undecodable body"}
	}
	if len(chat.Choices) == 0 {
		return nil, &MalformedResponseError{Reason: "no choices"}
	}
	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	if content == "" {
		return nil, &MalformedResponseError{Reason: "missing message content"}
	}

	tokens := 0
	if chat.Usage != nil {
		tokens = chat.Usage.TotalTokens
	} else {
		tokens = estimateTokens(req.Messages, content)
	}

	c.logger.Debug("generation completed",
		zap.String("model", req.Model),
		zap.Int("tokens_used", tokens),
		zap.Duration("latency", latency))

	return &Result{Content: content, TokensUsed: tokens, Latency: latency}, nil
}
