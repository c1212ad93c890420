/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workqueue defines a keyed work queue. Queueing a key that is
// already waiting coalesces with it, so a burst of triggers for the same
// key produces one unit of work.
package workqueue

import (
	"context"
	"errors"
	"time"
)

// Options control how a key is queued.
type Options struct {
	// Priority orders waiting keys; higher runs first.
	Priority int64

	// NotBefore delays the key until the given time.
	NotBefore time.Time
}

// Interface is the contract the dispatcher drives.
type Interface interface {
	// Queue adds key, or merges opts into the waiting entry for key.
	Queue(ctx context.Context, key string, opts Options) error

	// Enumerate returns the keys in progress and the keys ready to start,
	// highest priority first.
	Enumerate(ctx context.Context) ([]ObservedInProgressKey, []QueuedKey, error)
}

// QueuedKey is a key waiting to be started.
type QueuedKey interface {
	Name() string
	Priority() int64
	Start(ctx context.Context) (OwnedInProgressKey, error)
}

// ObservedInProgressKey is a key some worker is processing.
type ObservedInProgressKey interface {
	Name() string
	IsOrphaned() bool
	Requeue(ctx context.Context) error
}

// OwnedInProgressKey is a key this worker started and must settle.
type OwnedInProgressKey interface {
	Name() string
	Priority() int64
	Context() context.Context
	GetAttempts() int
	Complete(ctx context.Context) error
	Requeue(ctx context.Context) error
	Deadletter(ctx context.Context) error
}

// NonRetriableDetails describes why a failed key must not be retried.
type NonRetriableDetails struct {
	Message string
}

type nonRetriableError struct {
	err     error
	details NonRetriableDetails
}

func (e *nonRetriableError) Error() string { return e.err.Error() }
func (e *nonRetriableError) Unwrap() error { return e.err }

// NonRetriableError marks err as permanent. The dispatcher completes the
// key instead of requeueing it.
func NonRetriableError(err error, reason string) error {
	if err == nil {
		return nil
	}
	return &nonRetriableError{err: err, details: NonRetriableDetails{Message: reason}}
}

// GetNonRetriableDetails returns the details attached by NonRetriableError,
// or nil when err is retriable.
func GetNonRetriableDetails(err error) *NonRetriableDetails {
	var nre *nonRetriableError
	if errors.As(err, &nre) {
		return &nre.details
	}
	return nil
}
