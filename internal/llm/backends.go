package llm

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// Backends is the set of analyzer clients a running service can dispatch to,
// keyed by the backend name clients send as model_backend.
type Backends struct {
	clients     map[string]Client
	defaultName string
}

// ConfigFromBackend builds a ClientConfig for one configured backend.
func ConfigFromBackend(name string, b config.BackendConfig, cfg config.LLMConfig) *ClientConfig {
	cc := NewClientConfig(name).
		WithBaseURL(b.BaseURL).
		WithAPIKey(b.APIKey).
		WithDefaultModel(b.DefaultModel).
		WithTemperature(b.Temperature).
		WithMaxRetries(b.MaxRetries)
	if b.MaxTokens > 0 {
		cc.WithMaxTokens(b.MaxTokens)
	}
	if timeout := cfg.TimeoutDuration(); timeout > 0 {
		cc.WithDefaultTimeout(timeout)
	}
	return cc
}

// NewBackends creates a client for every configured backend. A backend's type
// selects the registered implementation and defaults to its name.
func NewBackends(cfg config.LLMConfig) (*Backends, error) {
	b := &Backends{
		clients:     make(map[string]Client, len(cfg.Backends)),
		defaultName: cfg.DefaultBackend,
	}

	for name, bc := range cfg.Backends {
		typ := bc.Type
		if typ == "" {
			typ = name
		}
		client, err := Create(typ, ConfigFromBackend(name, bc, cfg))
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("create llm backend %q: %w", name, err)
		}
		if !client.Available() {
			logger.Warn("LLM backend is not available, requests to it will fail",
				zap.String("backend", name),
				zap.String("type", typ),
			)
		}
		b.clients[name] = client
	}

	return b, nil
}

// NewBackendsFromClients wraps ready-made clients, keyed by their Name.
func NewBackendsFromClients(defaultName string, clients ...Client) *Backends {
	b := &Backends{
		clients:     make(map[string]Client, len(clients)),
		defaultName: defaultName,
	}
	for _, c := range clients {
		b.clients[c.Name()] = c
	}
	return b
}

// Get returns the client registered under name
func (b *Backends) Get(name string) (Client, bool) {
	c, ok := b.clients[name]
	return c, ok
}

// Has reports whether a backend is configured under name
func (b *Backends) Has(name string) bool {
	_, ok := b.clients[name]
	return ok
}

// Default returns the default backend name
func (b *Backends) Default() string {
	return b.defaultName
}

// Names returns the configured backend names, sorted
func (b *Backends) Names() []string {
	names := make([]string, 0, len(b.clients))
	for name := range b.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every client and returns the first error
func (b *Backends) Close() error {
	var first error
	for _, c := range b.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
