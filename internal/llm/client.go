// Package llm defines the analyzer client abstraction and the registry of
// backend implementations. Concrete backends live in sub-packages and register
// themselves from init.
package llm

import (
	"context"
)

// Client is the interface implemented by every analyzer backend.
type Client interface {
	// Name returns the client identifier
	Name() string

	// Complete sends a single prompt and returns the model's free text reply
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Available reports whether the backend is usable with its current configuration
	Available() bool

	// Close releases any resources held by the client
	Close() error
}
