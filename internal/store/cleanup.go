package store

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/logger"
	"github.com/Tushar-r12345/ai-code-review-analysis/pkg/telemetry"
)

// CleanupService periodically deletes expired task records
type CleanupService struct {
	store    ResultStore
	cron     *cron.Cron
	schedule string
	entryID  cron.EntryID
	mu       sync.Mutex
	running  bool
}

// NewCleanupService creates a cleanup service running on a cron schedule
// such as "@every 5m".
func NewCleanupService(s ResultStore, schedule string) *CleanupService {
	return &CleanupService{
		store:    s,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the sweep and starts the scheduler.
// An initial sweep runs in the background.
func (s *CleanupService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.cleanup)
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	logger.Info("Task cleanup service started", zap.String("schedule", s.schedule))

	go s.cleanup()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *CleanupService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	logger.Info("Task cleanup service stopped")
}

// RunOnce performs a single sweep and returns the number of records removed
func (s *CleanupService) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.store.Expire(ctx, nowFunc())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		telemetry.GetMetrics().RecordExpired(ctx, n)
	}
	return n, nil
}

func (s *CleanupService) cleanup() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		logger.Error("Failed to expire task records", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("Expired task records removed",
			zap.Int64("deleted_count", n),
			zap.Duration("duration", time.Since(start)))
	}
}
