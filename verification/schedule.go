/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"chainguard.dev/webster/store"
	"chainguard.dev/webster/workqueue"
)

// QueueScheduler schedules runs on a work queue keyed by entry id, so
// pushes for an entry that is already waiting coalesce.
type QueueScheduler struct {
	Queue workqueue.Interface
}

var _ Scheduler = QueueScheduler{}

// Schedule implements Scheduler.
func (s QueueScheduler) Schedule(ctx context.Context, entryID int64) error {
	return s.Queue.Queue(ctx, strconv.FormatInt(entryID, 10), workqueue.Options{})
}

// Process is the dispatcher callback for keys queued by QueueScheduler.
func (p *Pipeline) Process(ctx context.Context, key string, _ workqueue.Options) error {
	entryID, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return workqueue.NonRetriableError(fmt.Errorf("parsing entry key %q: %w", key, err), "invalid entry key")
	}
	if _, err := p.Verify(ctx, entryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return workqueue.NonRetriableError(err, "entry no longer exists")
		}
		if errors.As(err, new(*recordedError)) {
			return workqueue.NonRetriableError(err, "verification run already recorded")
		}
		return err
	}
	return nil
}
