/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package dispatcher starts queued work with bounded concurrency.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"chainguard.dev/webster/workqueue"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Callback processes one key.
type Callback func(ctx context.Context, key string, opts workqueue.Options) error

// Future waits for the work launched by HandleAsync.
type Future func() error

// Handle is HandleAsync followed by waiting on its future.
func Handle(ctx context.Context, wq workqueue.Interface, concurrency, batchSize int, f Callback, maxRetry int) error {
	return HandleAsync(ctx, wq, concurrency, batchSize, f, maxRetry)()
}

// HandleAsync makes one dispatch pass: orphaned work is requeued, then up to
// concurrency minus the keys already in progress are started, capped at
// batchSize when it is positive. A maxRetry of zero retries forever.
func HandleAsync(ctx context.Context, wq workqueue.Interface, concurrency, batchSize int, f Callback, maxRetry int) Future {
	wip, next, err := wq.Enumerate(ctx)
	if err != nil {
		return func() error { return fmt.Errorf("enumerate() = %w", err) }
	}
	log := clog.FromContext(ctx)

	active := 0
	for _, k := range wip {
		if !k.IsOrphaned() {
			active++
			continue
		}
		log.With("key", k.Name()).Warn("Requeueing orphaned key")
		if err := k.Requeue(context.WithoutCancel(ctx)); err != nil {
			log.With("key", k.Name(), "error", err).Error("Requeueing orphaned key")
		}
	}

	slots := max(concurrency-active, 0)
	if batchSize > 0 && slots > batchSize {
		slots = batchSize
	}
	if slots > len(next) {
		slots = len(next)
	}

	var eg errgroup.Group
	for _, k := range next[:slots] {
		owned, err := k.Start(ctx)
		if err != nil {
			log.With("key", k.Name(), "error", err).Warn("Starting key")
			continue
		}
		eg.Go(func() error {
			process(ctx, owned, f, maxRetry)
			return nil
		})
	}
	return eg.Wait
}

// process runs f for an owned key and settles it. Settling uses a context
// detached from cancellation so shutdown never strands a key in progress.
func process(ctx context.Context, key workqueue.OwnedInProgressKey, f Callback, maxRetry int) {
	log := clog.FromContext(ctx).With("key", key.Name(), "attempts", key.GetAttempts())
	settle := context.WithoutCancel(ctx)

	start := time.Now()
	err := f(ctx, key.Name(), workqueue.Options{Priority: key.Priority()})
	log = log.With("elapsed_ms", time.Since(start).Milliseconds())

	switch {
	case err == nil:
		if err := key.Complete(settle); err != nil {
			log.With("error", err).Error("Completing key")
		}
	case workqueue.GetNonRetriableDetails(err) != nil:
		log.With("error", err, "reason", workqueue.GetNonRetriableDetails(err).Message).Warn("Dropping key after non-retriable error")
		if err := key.Complete(settle); err != nil {
			log.With("error", err).Error("Completing key")
		}
	case maxRetry > 0 && key.GetAttempts() >= maxRetry:
		log.With("error", err).Error("Dead-lettering key after max attempts")
		if err := key.Deadletter(settle); err != nil {
			log.With("error", err).Error("Dead-lettering key")
		}
	default:
		log.With("error", err).Warn("Requeueing key after failure")
		if err := key.Requeue(settle); err != nil {
			log.With("error", err).Error("Requeueing key")
		}
	}
}

// Notifier is implemented by queues that signal when work may be ready.
type Notifier interface {
	Notify() <-chan struct{}
}

// Serve dispatches from wq until ctx is cancelled, waking on queue
// notifications and every interval. At most concurrency keys run at once.
// In-flight work is allowed to finish before Serve returns.
func Serve(ctx context.Context, wq workqueue.Interface, concurrency int, interval time.Duration, f Callback, maxRetry int) error {
	if concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	var wake <-chan struct{}
	if n, ok := wq.(Notifier); ok {
		wake = n.Notify()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sem := semaphore.NewWeighted(int64(concurrency))
	log := clog.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			// Wait for in-flight work by taking every slot.
			_ = sem.Acquire(context.WithoutCancel(ctx), int64(concurrency))
			return ctx.Err()
		case <-wake:
		case <-ticker.C:
		}

		_, next, err := wq.Enumerate(ctx)
		if err != nil {
			log.With("error", err).Error("Enumerating queue")
			continue
		}
		for _, k := range next {
			if !sem.TryAcquire(1) {
				break
			}
			owned, err := k.Start(ctx)
			if err != nil {
				sem.Release(1)
				log.With("key", k.Name(), "error", err).Warn("Starting key")
				continue
			}
			go func() {
				defer sem.Release(1)
				process(ctx, owned, f, maxRetry)
			}()
		}
	}
}
