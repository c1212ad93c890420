/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workqueue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func names(keys []QueuedKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Name())
	}
	return out
}

func start(t *testing.T, q *InMemory, name string) OwnedInProgressKey {
	t.Helper()
	_, next, err := q.Enumerate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range next {
		if k.Name() == name {
			owned, err := k.Start(context.Background())
			if err != nil {
				t.Fatalf("Start(%s): %v", name, err)
			}
			return owned
		}
	}
	t.Fatalf("%s not ready; queued: %v", name, names(next))
	return nil
}

func TestInMemoryOrdering(t *testing.T) {
	ctx := context.Background()
	q := NewInMemory()
	for _, k := range []struct {
		name     string
		priority int64
	}{{"1", 0}, {"2", 5}, {"3", 0}} {
		if err := q.Queue(ctx, k.name, Options{Priority: k.priority}); err != nil {
			t.Fatal(err)
		}
	}
	_, next, err := q.Enumerate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2", "1", "3"}, names(next)); diff != "" {
		t.Errorf("Enumerate() order mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryCoalesces(t *testing.T) {
	ctx := context.Background()
	q := NewInMemory()
	_ = q.Queue(ctx, "7", Options{})
	_ = q.Queue(ctx, "7", Options{Priority: 3})

	_, next, _ := q.Enumerate(ctx)
	if len(next) != 1 || next[0].Priority() != 3 {
		t.Fatalf("Enumerate() = %v, want one key with priority 3", names(next))
	}

	owned := start(t, q, "7")

	// A push for a running key waits behind it instead of running alongside.
	_ = q.Queue(ctx, "7", Options{})
	wip, next, _ := q.Enumerate(ctx)
	if len(wip) != 1 || len(next) != 0 {
		t.Fatalf("while running: wip=%d next=%v", len(wip), names(next))
	}

	if err := owned.Complete(ctx); err != nil {
		t.Fatal(err)
	}
	_, next, _ = q.Enumerate(ctx)
	if diff := cmp.Diff([]string{"7"}, names(next)); diff != "" {
		t.Errorf("after completion mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryRequeueBackoff(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := NewInMemory()
	q.now = func() time.Time { return now }

	_ = q.Queue(ctx, "1", Options{})
	owned := start(t, q, "1")
	if owned.GetAttempts() != 1 {
		t.Errorf("GetAttempts() = %d, want 1", owned.GetAttempts())
	}
	if err := owned.Requeue(ctx); err != nil {
		t.Fatal(err)
	}

	if _, next, _ := q.Enumerate(ctx); len(next) != 0 {
		t.Fatalf("requeued key ready before its delay: %v", names(next))
	}
	now = now.Add(RetryDelay)
	owned = start(t, q, "1")
	if owned.GetAttempts() != 2 {
		t.Errorf("GetAttempts() after requeue = %d, want 2", owned.GetAttempts())
	}

	if err := owned.Deadletter(ctx); err != nil {
		t.Fatal(err)
	}
	if got := q.DeadLettered("1"); got != 1 {
		t.Errorf("DeadLettered() = %d, want 1", got)
	}
	if wip, next, _ := q.Enumerate(ctx); len(wip)+len(next) != 0 {
		t.Errorf("dead-lettered key still present: wip=%d next=%v", len(wip), names(next))
	}
}

func TestInMemoryNotify(t *testing.T) {
	q := NewInMemory()
	_ = q.Queue(context.Background(), "1", Options{})
	_ = q.Queue(context.Background(), "2", Options{})
	select {
	case <-q.Notify():
	default:
		t.Fatal("Queue() did not signal")
	}
	select {
	case <-q.Notify():
		t.Fatal("signals were not collapsed")
	default:
	}
}

func TestNonRetriableError(t *testing.T) {
	base := errors.New("entry gone")
	err := fmt.Errorf("processing: %w", NonRetriableError(base, "entry deleted"))
	details := GetNonRetriableDetails(err)
	if details == nil {
		t.Fatal("GetNonRetriableDetails() = nil")
	}
	if details.Message != "entry deleted" {
		t.Errorf("Message = %q", details.Message)
	}
	if !errors.Is(err, base) {
		t.Error("NonRetriableError does not unwrap to its cause")
	}
	if GetNonRetriableDetails(base) != nil {
		t.Error("plain error reported as non-retriable")
	}
}
