// Package mock implements a scripted llm.Client for tests and local runs.
// Without a script it answers every prompt with a fixed fenced-JSON review.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/llm"
)

// ClientName is the identifier for the Mock client
const ClientName = "mock"

// DefaultModel is reported when neither request nor config names one
const DefaultModel = "mock-model"

func init() {
	llm.Register(ClientName, NewClient)
}

// Reply is one scripted answer
type Reply struct {
	Content string
	Err     error
}

// HandlerFunc answers a prepared request
type HandlerFunc func(ctx context.Context, req *llm.Request) (string, error)

// Client implements llm.Client with scripted replies
type Client struct {
	*llm.BaseClient

	mu        sync.Mutex
	script    []Reply
	handler   HandlerFunc
	calls     []llm.Request
	available bool
}

// NewClient creates a new Mock client
func NewClient(config *llm.ClientConfig) (llm.Client, error) {
	return New(config), nil
}

// New creates a Mock client with a concrete return type
func New(config *llm.ClientConfig) *Client {
	if config == nil {
		config = llm.NewClientConfig(ClientName)
	}
	if config.DefaultModel == "" {
		config.DefaultModel = DefaultModel
	}
	return &Client{
		BaseClient: llm.NewBaseClient(config),
		available:  true,
	}
}

// Script queues replies returned in order, one per call
func (c *Client) Script(replies ...Reply) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, replies...)
	return c
}

// WithHandler answers every call with fn. Queued script replies take precedence.
func (c *Client) WithHandler(fn HandlerFunc) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = fn
	return c
}

// SetAvailable toggles the Available result
func (c *Client) SetAvailable(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = v
}

// Available reports the configured availability, true by default
func (c *Client) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

// Calls returns a copy of every prepared request received so far
func (c *Client) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns the number of Complete calls
func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Complete returns the next scripted reply, the handler's answer or the default review
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	start := time.Now()

	prepared, err := c.PrepareRequest(req)
	if err != nil {
		return nil, llm.AnalyzerError(err)
	}
	c.LogRequest(prepared, "complete")

	if err := ctx.Err(); err != nil {
		return nil, llm.AnalyzerError(llm.NewClientError(c.Name(), "complete", "request cancelled", err))
	}

	c.mu.Lock()
	c.calls = append(c.calls, *prepared)
	var reply Reply
	var handler HandlerFunc
	switch {
	case len(c.script) > 0:
		reply = c.script[0]
		c.script = c.script[1:]
	case c.handler != nil:
		handler = c.handler
	default:
		reply = Reply{Content: DefaultContent()}
	}
	c.mu.Unlock()

	if handler != nil {
		reply.Content, reply.Err = handler(ctx, prepared)
	}

	if reply.Err != nil {
		c.LogResponse(nil, time.Since(start), reply.Err)
		return nil, llm.AnalyzerError(reply.Err)
	}

	resp := &llm.Response{Content: reply.Content, Model: prepared.Model}
	c.LogResponse(resp, time.Since(start), nil)
	return resp, nil
}

// DefaultContent is the canned reply: prose around a fenced JSON review
func DefaultContent() string {
	return fmt.Sprintf("Here is the analysis.\n\n```json\n%s\n```\n", `{
  "issues": [
    {"type": "style", "line": 1, "description": "Mock finding", "suggestion": "No action needed"}
  ],
  "summary": {"total_files": 1, "total_issues": 1, "critical_issues": 0}
}`)
}
