// Package groq implements an llm.Client for OpenAI-compatible chat completion
// APIs. It is registered as "groq" and, with a different default base URL, as
// "openai".
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
)

const (
	// ClientName is the identifier for the Groq client
	ClientName = "groq"

	// OpenAIClientName registers the same implementation against api.openai.com
	OpenAIClientName = "openai"

	// DefaultBaseURL is Groq's OpenAI-compatible API root
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// OpenAIBaseURL is OpenAI's API root
	OpenAIBaseURL = "https://api.openai.com/v1"

	completionsPath = "/chat/completions"
	maxErrorBody    = 512
)

func init() {
	llm.Register(ClientName, NewClient)
	llm.Register(OpenAIClientName, NewOpenAIClient)
}

// Client implements llm.Client over the chat completions endpoint
type Client struct {
	*llm.BaseClient
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a client that defaults to the Groq API
func NewClient(config *llm.ClientConfig) (llm.Client, error) {
	return newClient(config, ClientName, DefaultBaseURL)
}

// NewOpenAIClient creates a client that defaults to the OpenAI API
func NewOpenAIClient(config *llm.ClientConfig) (llm.Client, error) {
	return newClient(config, OpenAIClientName, OpenAIBaseURL)
}

func newClient(config *llm.ClientConfig, name, defaultBaseURL string) (*Client, error) {
	if config == nil {
		config = llm.NewClientConfig(name)
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	var transport http.RoundTripper = &http.Transport{Proxy: http.ProxyFromEnvironment}
	if config.APIKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.APIKey}),
			Base:   transport,
		}
	}

	return &Client{
		BaseClient: llm.NewBaseClient(config),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   config.GetTimeout(),
		},
		endpoint: strings.TrimRight(config.BaseURL, "/") + completionsPath,
	}, nil
}

// Available reports whether an API key is configured
func (c *Client) Available() bool {
	return c.GetConfig().APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage"`
}

// Complete sends the prompt as a single system message and returns the first
// choice. 429 and 5xx replies are retried with quadratic backoff.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	prepared, err := c.PrepareRequest(req)
	if err != nil {
		return nil, llm.AnalyzerError(err)
	}
	c.LogRequest(prepared, "complete")

	cfg := c.GetConfig()
	body, err := json.Marshal(chatRequest{
		Model:       prepared.Model,
		Messages:    []chatMessage{{Role: "system", Content: prepared.Prompt}},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, llm.AnalyzerError(llm.NewClientError(c.Name(), "complete", "failed to encode request", err))
	}

	start := time.Now()
	var resp *llm.Response
	err = llm.DoWithRetry(ctx, llm.RetryConfig{
		MaxAttempts: cfg.MaxRetries + 1,
		BaseDelay:   cfg.RetryDelay,
		OnRetry: func(attempt int, err error) {
			c.Logger().Warn("Analyzer call failed, retrying",
				zap.Int("attempt", attempt),
				zap.String("model", prepared.Model),
				zap.Error(err),
			)
		},
	}, func() error {
		var callErr error
		resp, callErr = c.do(ctx, body)
		return callErr
	})
	c.LogResponse(resp, time.Since(start), err)
	if err != nil {
		return nil, llm.AnalyzerError(err)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, body []byte) (*llm.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, llm.NewClientError(c.Name(), "complete", "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewClientError(c.Name(), "complete", "request cancelled", ctx.Err())
		}
		return nil, llm.NewRetryableError(c.Name(), "complete", "request failed", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.NewRetryableError(c.Name(), "complete", "failed to read response", err).
			WithStatus(httpResp.StatusCode)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := fmt.Sprintf("unexpected status %d", httpResp.StatusCode)
		detail := fmt.Errorf("%s", truncate(string(raw), maxErrorBody))
		if llm.IsRetryableStatus(httpResp.StatusCode) {
			return nil, llm.NewRetryableError(c.Name(), "complete", msg, detail).WithStatus(httpResp.StatusCode)
		}
		return nil, llm.NewClientError(c.Name(), "complete", msg, detail).WithStatus(httpResp.StatusCode)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, llm.NewClientError(c.Name(), "complete", "failed to decode response", llm.ErrInvalidResponse)
	}
	if len(decoded.Choices) == 0 {
		return nil, llm.NewClientError(c.Name(), "complete", "response has no choices", llm.ErrInvalidResponse)
	}

	return &llm.Response{
		Content: decoded.Choices[0].Message.Content,
		Model:   decoded.Model,
		Usage:   decoded.Usage,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
