// Package cleanup removes blob objects after their image rows are gone.
// Removal is best effort: failures are logged and never retried.
package cleanup

import (
	"context"
	"sync"
	"time"

	"notely/notely/utils/logging"

	"go.uber.org/zap"
)

// Remover deletes the object behind a stored image URL.
type Remover interface {
	Remove(ctx context.Context, rawURL string) error
}

// Queue runs removals on a fixed set of workers.
type Queue struct {
	remover Remover
	timeout time.Duration
	jobs    chan string
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewQueue(remover Remover, workers, buffer int, timeout time.Duration) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	q := &Queue{
		remover: remover,
		timeout: timeout,
		jobs:    make(chan string, buffer),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue schedules removals without blocking. When the buffer is full the
// URL is dropped and logged; prune-orphans reclaims it later.
func (q *Queue) Enqueue(urls ...string) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, u := range urls {
		if q.closed {
			logging.ErrorLogger.Warn("cleanup queue closed, dropping", zap.String("url", u))
			continue
		}
		select {
		case q.jobs <- u:
		default:
			logging.ErrorLogger.Warn("cleanup queue full, dropping", zap.String("url", u))
		}
	}
}

// Close stops intake and waits for queued removals to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for u := range q.jobs {
		removeOne(q.remover, u, q.timeout)
	}
}

func removeOne(remover Remover, rawURL string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := remover.Remove(ctx, rawURL); err != nil {
		logging.ErrorLogger.Error("blob cleanup failed", zap.String("url", rawURL), zap.Error(err))
		return
	}
	logging.AppLogger.Info("blob removed", zap.String("url", rawURL))
}
