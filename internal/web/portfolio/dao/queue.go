package dao

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// WriteQueue coalesces bursts of Schedule calls into one trailing write.
//
// A write runs after delay of quiet, on Flush, or on Close. Writes never
// overlap, and each one reads the current state when it starts.
type WriteQueue struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending bool
	closed  bool
	write   func(ctx context.Context) error
	logger  logSDK.Logger
}

// NewWriteQueue creates a queue calling write after delay of quiet
func NewWriteQueue(delay time.Duration, write func(ctx context.Context) error, logger logSDK.Logger) *WriteQueue {
	return &WriteQueue{
		delay:  delay,
		write:  write,
		logger: logger,
	}
}

// Schedule marks a write pending and restarts the quiet timer
func (q *WriteQueue) Schedule() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	q.pending = true
	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.delay, q.fire)
}

func (q *WriteQueue) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := q.Flush(ctx); err != nil {
		q.logger.Warn("debounced write failed", zap.Error(err))
	}
}

// Pending reports whether a write is waiting
func (q *WriteQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Flush writes now if a write is pending.
// A failed write stays pending so the next Flush retries it.
func (q *WriteQueue) Flush(ctx context.Context) error {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	q.mu.Lock()
	if !q.pending {
		q.mu.Unlock()
		return nil
	}
	q.pending = false
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	if err := q.write(ctx); err != nil {
		q.mu.Lock()
		q.pending = true
		q.mu.Unlock()
		return errors.Wrap(err, "write")
	}

	return nil
}

// Close stops the timer and flushes what is pending.
// Schedule is a no-op afterwards.
func (q *WriteQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	return q.Flush(ctx)
}
