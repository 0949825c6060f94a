package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
)

// HousekeepingService periodically sweeps expired nonce records so the
// replay table does not grow without bound. Eviction is otherwise lazy:
// a lapsed nonce is also reusable the moment it expires.
type HousekeepingService struct {
	Nonces   store.Nonces
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper. If interval is 0 or
// negative, defaults to 1 hour.
func NewHousekeepingService(nonces store.Nonces, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Nonces:   nonces,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the worker, blocking until any in-progress
// sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	deleted, err := s.Nonces.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.Logger.Error("failed to delete expired nonces", "error", err)
		return
	}
	if deleted > 0 {
		s.Logger.Info("swept expired nonces", "deleted", deleted)
	}
}
