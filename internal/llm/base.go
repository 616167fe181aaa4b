package llm

import (
	"time"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// BaseClient provides the request preparation and logging shared by all backends
type BaseClient struct {
	config *ClientConfig
	logger *zap.Logger
}

// NewBaseClient creates a new BaseClient
func NewBaseClient(config *ClientConfig) *BaseClient {
	return &BaseClient{
		config: config,
		logger: logger.Named("llm." + config.Name),
	}
}

// Name returns the client name
func (b *BaseClient) Name() string {
	return b.config.Name
}

// GetConfig returns the client configuration
func (b *BaseClient) GetConfig() *ClientConfig {
	return b.config
}

// Logger returns the client's named logger
func (b *BaseClient) Logger() *zap.Logger {
	return b.logger
}

// Close is a no-op for clients without held resources
func (b *BaseClient) Close() error {
	return nil
}

// PrepareRequest validates the request and applies the default model.
// The caller's request is not modified.
func (b *BaseClient) PrepareRequest(req *Request) (*Request, error) {
	if req == nil {
		return nil, NewClientError(b.config.Name, "prepare", "request is nil", nil)
	}
	if req.Prompt == "" {
		return nil, NewClientError(b.config.Name, "prepare", "invalid request", ErrEmptyPrompt)
	}

	prepared := *req
	prepared.Model = b.config.GetModel(req.Model)
	return &prepared, nil
}

// LogRequest logs the request details
func (b *BaseClient) LogRequest(req *Request, operation string) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("model", req.Model),
		zap.Int("prompt_length", len(req.Prompt)),
	}
	if taskID := req.GetMetadata("task_id"); taskID != "" {
		fields = append(fields, zap.String("task_id", taskID))
	}
	if filename := req.GetMetadata("filename"); filename != "" {
		fields = append(fields, zap.String("filename", filename))
	}
	b.logger.Debug("Executing request", fields...)
}

// LogResponse logs the response details
func (b *BaseClient) LogResponse(resp *Response, duration time.Duration, err error) {
	if err != nil {
		b.logger.Warn("Request failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return
	}
	if resp == nil {
		b.logger.Warn("Request completed with nil response",
			zap.Duration("duration", duration))
		return
	}

	fields := []zap.Field{
		zap.String("model", resp.Model),
		zap.Int("content_length", len(resp.Content)),
		zap.Duration("duration", duration),
	}
	if resp.Usage != nil {
		fields = append(fields, zap.Int("total_tokens", resp.Usage.TotalTokens))
	}
	b.logger.Debug("Request completed", fields...)
}
