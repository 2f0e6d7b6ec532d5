package main

import (
	"context"
	"time"
)

// Scheduler periodically refreshes the cached dashboard summary so the first
// request after a quiet period does not pay the aggregation cost.
type Scheduler struct {
	cfg        *apiConfig
	tickChan   <-chan time.Time
	stop       chan struct{}
	ticker     *time.Ticker
	refreshJob func()
}

func NewScheduler(cfg *apiConfig, interval time.Duration) *Scheduler {
	ticker := time.NewTicker(interval)
	s := &Scheduler{
		cfg:      cfg,
		tickChan: ticker.C,
		stop:     make(chan struct{}),
		ticker:   ticker,
	}
	s.refreshJob = s.runSummaryRefresh
	return s
}

func (s *Scheduler) Start() {
	go func() {
		for {
			select {
			case <-s.tickChan:
				s.cfg.logger.Debug("scheduler: refreshing summary cache")
				s.refreshJob()
			case <-s.stop:
				s.cfg.logger.Debug("scheduler: stopping")
				s.ticker.Stop()
				return
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) runSummaryRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := s.cfg.store.CountChecksByState(ctx)
	if err != nil {
		s.cfg.logger.Error("scheduler: summary refresh failed", "error", err)
		return
	}
	if err := s.cfg.cache.Set(ctx, summaryCacheKey, counts, summaryCacheTTL); err != nil {
		s.cfg.logger.Warn("scheduler: error setting summary to redis", "key", summaryCacheKey, "error", err)
		return
	}
	s.cfg.logger.Debug("scheduler: summary cache refreshed", "states", len(counts))
}
