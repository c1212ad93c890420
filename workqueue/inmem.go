/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// RetryDelay is how long a requeued key waits per failed attempt.
var RetryDelay = 5 * time.Second

type waiting struct {
	priority  int64
	notBefore time.Time
	attempts  int
	seq       uint64
}

// InMemory is a process-local Interface. Its keys do not survive restarts.
type InMemory struct {
	mu         sync.Mutex
	seq        uint64
	queued     map[string]*waiting
	inProgress map[string]int
	dead       map[string]int
	notify     chan struct{}
	now        func() time.Time
}

var _ Interface = (*InMemory)(nil)

// NewInMemory returns an empty queue.
func NewInMemory() *InMemory {
	return &InMemory{
		queued:     map[string]*waiting{},
		inProgress: map[string]int{},
		dead:       map[string]int{},
		notify:     make(chan struct{}, 1),
		now:        time.Now,
	}
}

// Notify fires after the queue changes in a way that may make work ready.
func (q *InMemory) Notify() <-chan struct{} {
	return q.notify
}

func (q *InMemory) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Queue implements Interface.
func (q *InMemory) Queue(_ context.Context, key string, opts Options) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueue(key, opts, 0)
	q.signal()
	return nil
}

func (q *InMemory) enqueue(key string, opts Options, attempts int) {
	if w, ok := q.queued[key]; ok {
		w.priority = max(w.priority, opts.Priority)
		if opts.NotBefore.Before(w.notBefore) {
			w.notBefore = opts.NotBefore
		}
		w.attempts = max(w.attempts, attempts)
		return
	}
	q.seq++
	q.queued[key] = &waiting{priority: opts.Priority, notBefore: opts.NotBefore, attempts: attempts, seq: q.seq}
}

// Enumerate implements Interface. Keys already in progress are not
// offered again until their current run settles.
func (q *InMemory) Enumerate(context.Context) ([]ObservedInProgressKey, []QueuedKey, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	wip := make([]ObservedInProgressKey, 0, len(q.inProgress))
	for key := range q.inProgress {
		wip = append(wip, &observed{q: q, name: key})
	}

	now := q.now()
	type ready struct {
		name string
		w    *waiting
	}
	var rs []ready
	for key, w := range q.queued {
		if _, busy := q.inProgress[key]; busy || w.notBefore.After(now) {
			continue
		}
		rs = append(rs, ready{key, w})
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].w.priority != rs[j].w.priority {
			return rs[i].w.priority > rs[j].w.priority
		}
		return rs[i].w.seq < rs[j].w.seq
	})
	next := make([]QueuedKey, 0, len(rs))
	for _, r := range rs {
		next = append(next, &queuedKey{q: q, name: r.name, priority: r.w.priority})
	}
	return wip, next, nil
}

// DeadLettered returns how many times key was dead-lettered.
func (q *InMemory) DeadLettered(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dead[key]
}

type queuedKey struct {
	q        *InMemory
	name     string
	priority int64
}

func (k *queuedKey) Name() string    { return k.name }
func (k *queuedKey) Priority() int64 { return k.priority }

func (k *queuedKey) Start(ctx context.Context) (OwnedInProgressKey, error) {
	q := k.q
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, busy := q.inProgress[k.name]; busy {
		return nil, fmt.Errorf("key %q is already in progress", k.name)
	}
	w, ok := q.queued[k.name]
	if !ok {
		return nil, fmt.Errorf("key %q is no longer queued", k.name)
	}
	delete(q.queued, k.name)
	attempts := w.attempts + 1
	q.inProgress[k.name] = attempts
	return &ownedKey{q: q, name: k.name, priority: w.priority, attempts: attempts, ctx: ctx}, nil
}

type observed struct {
	q    *InMemory
	name string
}

func (o *observed) Name() string { return o.name }

// IsOrphaned is always false: in-progress keys belong to this process.
func (o *observed) IsOrphaned() bool { return false }

func (o *observed) Requeue(context.Context) error {
	o.q.mu.Lock()
	defer o.q.mu.Unlock()
	attempts := o.q.inProgress[o.name]
	delete(o.q.inProgress, o.name)
	o.q.enqueue(o.name, Options{}, attempts)
	o.q.signal()
	return nil
}

type ownedKey struct {
	q        *InMemory
	name     string
	priority int64
	attempts int
	ctx      context.Context
}

func (k *ownedKey) Name() string             { return k.name }
func (k *ownedKey) Priority() int64          { return k.priority }
func (k *ownedKey) Context() context.Context { return k.ctx }
func (k *ownedKey) GetAttempts() int         { return k.attempts }

func (k *ownedKey) settle() {
	delete(k.q.inProgress, k.name)
	k.q.signal()
}

func (k *ownedKey) Complete(context.Context) error {
	k.q.mu.Lock()
	defer k.q.mu.Unlock()
	k.settle()
	return nil
}

func (k *ownedKey) Requeue(context.Context) error {
	k.q.mu.Lock()
	defer k.q.mu.Unlock()
	k.settle()
	k.q.enqueue(k.name, Options{
		Priority:  k.priority,
		NotBefore: k.q.now().Add(time.Duration(k.attempts) * RetryDelay),
	}, k.attempts)
	return nil
}

func (k *ownedKey) Deadletter(context.Context) error {
	k.q.mu.Lock()
	defer k.q.mu.Unlock()
	k.settle()
	k.q.dead[k.name]++
	return nil
}
