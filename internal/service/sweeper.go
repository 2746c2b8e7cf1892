package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SweeperConfig holds configuration for the expiry sweeper.
type SweeperConfig struct {
	// CheckInterval defines how often to sweep for expired in-progress
	// tasks. If zero, defaults to one minute.
	CheckInterval time.Duration
}

// Sweeper periodically cancels expired in-progress tasks across all agents.
// The per-poll sweep only covers agents that keep polling; this catches
// captures abandoned by agents that went away entirely.
type Sweeper struct {
	service    BiometricService
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     SweeperConfig
	logger     *slog.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(service BiometricService, config SweeperConfig, logger *slog.Logger) *Sweeper {
	if config.CheckInterval == 0 {
		config.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		service:    service,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "expiry_sweeper")),
	}
}

// Start launches the sweep goroutine.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the sweep goroutine and waits for it to exit.
func (s *Sweeper) Stop() {
	s.cancelFunc()
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			cancelled, err := s.service.SweepExpired(s.ctx)
			if err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
				continue
			}
			if cancelled > 0 {
				s.logger.Info("expiry sweep cancelled abandoned tasks", "count", cancelled)
			}
		}
	}
}
