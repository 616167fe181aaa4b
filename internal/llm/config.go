package llm

import (
	"time"
)

// Default configuration values
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Second
	DefaultMaxTokens  = 4096
)

// ClientConfig contains configuration for an LLM client
type ClientConfig struct {
	// Name is the backend identifier used in model_backend
	Name string

	// BaseURL is the API root, e.g. https://api.groq.com/openai/v1
	BaseURL string

	// APIKey is sent as a bearer token
	APIKey string

	// DefaultModel is used when the request does not name a model
	DefaultModel string

	// MaxTokens caps the completion length
	MaxTokens int

	// Temperature is the sampling temperature
	Temperature float64

	// DefaultTimeout bounds a single HTTP round trip
	DefaultTimeout time.Duration

	// MaxRetries is the number of in-call retries for retryable failures
	MaxRetries int

	// RetryDelay is the base delay of the quadratic backoff
	RetryDelay time.Duration
}

// NewClientConfig creates a new ClientConfig with default values
func NewClientConfig(name string) *ClientConfig {
	return &ClientConfig{
		Name:           name,
		MaxTokens:      DefaultMaxTokens,
		DefaultTimeout: DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
	}
}

// WithBaseURL sets the API base URL
func (c *ClientConfig) WithBaseURL(url string) *ClientConfig {
	c.BaseURL = url
	return c
}

// WithAPIKey sets the API key
func (c *ClientConfig) WithAPIKey(key string) *ClientConfig {
	c.APIKey = key
	return c
}

// WithDefaultModel sets the default model
func (c *ClientConfig) WithDefaultModel(model string) *ClientConfig {
	c.DefaultModel = model
	return c
}

// WithMaxTokens sets the completion token cap
func (c *ClientConfig) WithMaxTokens(n int) *ClientConfig {
	c.MaxTokens = n
	return c
}

// WithTemperature sets the sampling temperature
func (c *ClientConfig) WithTemperature(t float64) *ClientConfig {
	c.Temperature = t
	return c
}

// WithDefaultTimeout sets the default timeout
func (c *ClientConfig) WithDefaultTimeout(timeout time.Duration) *ClientConfig {
	c.DefaultTimeout = timeout
	return c
}

// WithMaxRetries sets the max retries
func (c *ClientConfig) WithMaxRetries(retries int) *ClientConfig {
	c.MaxRetries = retries
	return c
}

// WithRetryDelay sets the retry delay
func (c *ClientConfig) WithRetryDelay(delay time.Duration) *ClientConfig {
	c.RetryDelay = delay
	return c
}

// GetModel returns the model to use (request model or default)
func (c *ClientConfig) GetModel(requestModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return c.DefaultModel
}

// GetTimeout returns the configured timeout, falling back to DefaultTimeout
func (c *ClientConfig) GetTimeout() time.Duration {
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultTimeout
}
