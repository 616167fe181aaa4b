// Package notification provides notification services for task outcome alerts.
// It supports a generic signed webhook and Slack incoming webhooks.
package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/internal/config"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
)

// EventType represents the type of notification event
type EventType string

const (
	// EventTaskFailed is triggered when a task exhausts its attempts
	EventTaskFailed EventType = EventType(config.NotificationEventTaskFailed)
	// EventTaskCompleted is triggered when a task succeeds
	EventTaskCompleted EventType = EventType(config.NotificationEventTaskCompleted)
)

// Event represents a notification event with context information
type Event struct {
	// Type is the event type (task_failed, task_completed)
	Type EventType `json:"type"`
	// TaskID is the unique identifier of the task
	TaskID string `json:"task_id"`
	// TaskKind is either "pr_metadata" or "code_analysis"
	TaskKind string `json:"task_kind"`
	// RepoURL is the repository URL associated with the task
	RepoURL string `json:"repo_url"`
	// Attempts is the number of executions the task used
	Attempts int `json:"attempts"`
	// ErrorMessage is the final error for failed tasks
	ErrorMessage string `json:"error_message,omitempty"`
	// Timestamp is when the task finished
	Timestamp time.Time `json:"timestamp"`
	// Extra contains additional context-specific information
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// IsFailure reports whether the event describes a failed task
func (e *Event) IsFailure() bool {
	return e.Type == EventTaskFailed
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// Name returns the name of the notifier (e.g., "webhook", "slack")
	Name() string
	// Send sends a notification for the given event
	Send(ctx context.Context, event *Event) error
}

// Manager filters events by configuration and dispatches them to the active channel
type Manager struct {
	cfg      config.NotificationConfig
	notifier Notifier
}

// NewManager creates a notification manager from configuration.
// A disabled configuration yields a manager whose Notify is a no-op.
func NewManager(cfg config.NotificationConfig) *Manager {
	m := &Manager{cfg: cfg}
	if !cfg.IsEnabled() {
		logger.Info("Notifications disabled")
		return m
	}

	switch cfg.Channel {
	case config.NotificationChannelWebhook:
		m.notifier = NewWebhookNotifier(&m.cfg.Webhook)
	case config.NotificationChannelSlack:
		m.notifier = NewSlackNotifier(&m.cfg.Slack)
	default:
		logger.Warn("Unknown notification channel",
			zap.String("channel", string(cfg.Channel)),
		)
		return m
	}

	logger.Info("Notification manager initialized",
		zap.String("channel", string(cfg.Channel)),
		zap.Int("events_count", len(cfg.Events)),
	)
	return m
}

// NewManagerWithNotifier creates a manager that sends every configured event to n
func NewManagerWithNotifier(cfg config.NotificationConfig, n Notifier) *Manager {
	return &Manager{cfg: cfg, notifier: n}
}

// Notify sends a notification for the given event if its type is enabled
func (m *Manager) Notify(ctx context.Context, event *Event) error {
	if m == nil || m.notifier == nil {
		return nil
	}

	if !m.cfg.HasEvent(config.NotificationEvent(event.Type)) {
		logger.Debug("Event type not in notification list, skipping",
			zap.String("event_type", string(event.Type)),
		)
		return nil
	}

	logger.Info("Sending notification",
		zap.String("channel", m.notifier.Name()),
		zap.String("event_type", string(event.Type)),
		zap.String(logger.FieldTaskID, event.TaskID),
	)

	if err := m.notifier.Send(ctx, event); err != nil {
		logger.Error("Failed to send notification",
			zap.String("channel", m.notifier.Name()),
			zap.String("event_type", string(event.Type)),
			zap.String(logger.FieldTaskID, event.TaskID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send notification via %s: %w", m.notifier.Name(), err)
	}

	logger.Info("Notification sent successfully",
		zap.String("channel", m.notifier.Name()),
		zap.String(logger.FieldTaskID, event.TaskID),
	)
	return nil
}

// IsEnabled returns true if a channel is active
func (m *Manager) IsEnabled() bool {
	return m != nil && m.notifier != nil
}

// GetChannel returns the configured notification channel
func (m *Manager) GetChannel() config.NotificationChannel {
	if m == nil {
		return config.NotificationChannelNone
	}
	return m.cfg.Channel
}
