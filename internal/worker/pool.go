package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/repository"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

// RefreshTask asks the pool to rebuild the cached leaderboard listing from
// the database.
type RefreshTask struct {
	SubmissionID string
	Reason       string
}

// Pool manages workers that rebuild the Redis leaderboard cache off the
// request path. Inserts stay synchronous for correctness; only the cache
// is eventually consistent.
type Pool struct {
	jobs        chan RefreshTask
	workerCount int
	repo        *repository.SubmissionRepository
	cache       *repository.LeaderboardCache
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// NewPool creates a new cache-refresh worker pool
func NewPool(workerCount, queueSize int, repo *repository.SubmissionRepository, cache *repository.LeaderboardCache) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		jobs:        make(chan RefreshTask, queueSize),
		workerCount: workerCount,
		repo:        repo,
		cache:       cache,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (p *Pool) Start() {
	logger.Infof("Starting cache-refresh pool with %d workers and queue size %d", p.workerCount, cap(p.jobs))

	for i := 1; i <= p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// worker is the main worker loop that processes jobs
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case task, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processTask(id, task)
		}
	}
}

// processTask rebuilds the cache once, with panic recovery so a bad task
// cannot take a worker down.
func (p *Pool) processTask(workerID int, task RefreshTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("worker #%d panic recovered: %v (task: %s)", workerID, r, task.Reason)
			p.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := RebuildCache(ctx, p.repo, p.cache); err != nil {
		logger.Errorf("worker #%d cache refresh failed (%s): %v", workerID, task.Reason, err)
		p.metrics.incrementFailed()
		return
	}

	p.metrics.recordSuccess(time.Since(startTime))
}

// RebuildCache reloads the full listing from Postgres, re-ranks it, and
// replaces the cached payload. Shared with the periodic refresher job.
func RebuildCache(ctx context.Context, repo *repository.SubmissionRepository, cache *repository.LeaderboardCache) error {
	subs, err := repo.ListByTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}

	payload, err := json.Marshal(models.BuildEntries(subs))
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	if err := cache.SetListing(ctx, payload); err != nil {
		return fmt.Errorf("failed to store listing: %w", err)
	}
	return nil
}

// Submit attempts to queue a refresh with backpressure handling. A dropped
// task is harmless: the periodic refresher and the cache TTL both cap
// staleness.
func (p *Pool) Submit(task RefreshTask) error {
	select {
	case p.jobs <- task:
		return nil

	default:
		logger.Warnf("cache-refresh queue full, dropping task (%s)", task.Reason)
		p.metrics.incrementBackpressure()
		return fmt.Errorf("worker pool queue full (backpressure)")
	}
}

// Shutdown gracefully stops the worker pool
func (p *Pool) Shutdown(timeout time.Duration) error {
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logMetrics()
		return nil

	case <-time.After(timeout):
		p.cancel()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetMetrics returns a snapshot of the pool metrics
func (p *Pool) GetMetrics() map[string]interface{} {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if p.metrics.processed > 0 {
		avgProcessing = p.metrics.totalProcessing / time.Duration(p.metrics.processed)
	}

	return map[string]interface{}{
		"processed":           p.metrics.processed,
		"failed":              p.metrics.failed,
		"backpressure_events": p.metrics.backpressure,
		"avg_processing_time": avgProcessing.String(),
		"queue_utilization":   fmt.Sprintf("%d/%d", len(p.jobs), cap(p.jobs)),
	}
}

func (p *Pool) logMetrics() {
	m := p.GetMetrics()
	logger.Infof("cache-refresh pool drained: processed=%v failed=%v backpressure=%v avg=%v",
		m["processed"], m["failed"], m["backpressure_events"], m["avg_processing_time"])
}

func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
