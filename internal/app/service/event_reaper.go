package service

import (
	"context"
	"time"

	apprepository "github.com/mkraev/linkforge/internal/app/repository"
	"go.uber.org/zap"
)

// EventReaper periodically deletes audit rows whose short link has already
// expired, so the audit table tracks roughly the live link population.
type EventReaper struct {
	logger   *zap.Logger
	repo     apprepository.LinkEventRepository
	interval time.Duration
	stopChan chan struct{}
}

// NewEventReaper creates a new audit-trail reaper.
func NewEventReaper(logger *zap.Logger, repo apprepository.LinkEventRepository) *EventReaper {
	return &EventReaper{
		logger:   logger,
		repo:     repo,
		interval: time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (r *EventReaper) Start() {
	go r.run()
}

// Stop stops the periodic sweep.
func (r *EventReaper) Stop() {
	close(r.stopChan)
}

func (r *EventReaper) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopChan:
			r.logger.Info("event reaper stopped")
			return
		}
	}
}

func (r *EventReaper) sweep() {
	ctx := context.Background()

	affected, err := r.repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to delete expired link events", zap.Error(err))
		return
	}

	if affected > 0 {
		r.logger.Info("deleted expired link events", zap.Int64("count", affected))
	}
}
