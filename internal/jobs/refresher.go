package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dropoutsanta/cursorleaderboard/internal/repository"
	"github.com/dropoutsanta/cursorleaderboard/internal/worker"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

// CacheRefresher periodically rebuilds the leaderboard cache from Postgres.
// It warms the cache at boot and covers refresh tasks lost to backpressure
// or process restarts.
type CacheRefresher struct {
	repo   *repository.SubmissionRepository
	cache  *repository.LeaderboardCache
	stopCh chan struct{}
	wg     sync.WaitGroup
	running atomic.Bool

	refreshes atomic.Int64
	failures  atomic.Int64
	startTime time.Time

	interval time.Duration
}

// RefresherConfig holds configuration for the cache refresher
type RefresherConfig struct {
	Interval time.Duration // Default: 60s
}

// NewCacheRefresher creates a new cache refresher
func NewCacheRefresher(repo *repository.SubmissionRepository, cache *repository.LeaderboardCache, config RefresherConfig) *CacheRefresher {
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}

	return &CacheRefresher{
		repo:     repo,
		cache:    cache,
		stopCh:   make(chan struct{}),
		interval: config.Interval,
	}
}

// Start warms the cache once, then begins the periodic resync loop.
func (cr *CacheRefresher) Start(ctx context.Context) error {
	if cr.running.Load() {
		return fmt.Errorf("cache refresher already running")
	}

	cr.startTime = time.Now()
	cr.running.Store(true)

	if err := cr.refresh(ctx); err != nil {
		// A cold cache is not fatal; reads fall back to Postgres.
		logger.Warnf("initial cache warm failed: %v", err)
	}

	logger.Infof("cache refresher started (interval %v)", cr.interval)

	cr.wg.Add(1)
	go cr.loop(ctx)

	return nil
}

// Stop gracefully stops the refresher
func (cr *CacheRefresher) Stop() {
	if !cr.running.Load() {
		return
	}

	cr.running.Store(false)
	close(cr.stopCh)
	cr.wg.Wait()

	logger.Infof("cache refresher stopped: refreshes=%d failures=%d uptime=%v",
		cr.refreshes.Load(), cr.failures.Load(), time.Since(cr.startTime).Round(time.Second))
}

// IsRunning returns whether the refresher is currently running
func (cr *CacheRefresher) IsRunning() bool {
	return cr.running.Load()
}

// GetMetrics returns current refresher metrics
func (cr *CacheRefresher) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"running":   cr.running.Load(),
		"refreshes": cr.refreshes.Load(),
		"failures":  cr.failures.Load(),
		"uptime":    time.Since(cr.startTime).String(),
	}
}

func (cr *CacheRefresher) loop(ctx context.Context) {
	defer cr.wg.Done()

	ticker := time.NewTicker(cr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-cr.stopCh:
			return

		case <-ticker.C:
			if err := cr.refresh(ctx); err != nil {
				cr.failures.Add(1)
				logger.Errorf("periodic cache refresh failed: %v", err)
			}
		}
	}
}

func (cr *CacheRefresher) refresh(ctx context.Context) error {
	refreshCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := worker.RebuildCache(refreshCtx, cr.repo, cr.cache); err != nil {
		return err
	}
	cr.refreshes.Add(1)
	return nil
}
