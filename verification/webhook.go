/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// SignatureHeader carries the HMAC-SHA256 of the raw push body.
const SignatureHeader = "X-Hub-Signature-256"

// ErrMalformedPayload is returned for push bodies that are not JSON.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Scheduler queues a verification run for an entry without waiting for it.
type Scheduler interface {
	Schedule(ctx context.Context, entryID int64) error
}

// Push is the subset of a push event the trigger looks at.
type Push struct {
	Repo     string
	Messages []string
}

// ParsePush extracts the repository and commit messages from a push body.
// An empty Repo means the payload names no repository.
func ParsePush(body []byte) (Push, error) {
	var ev github.PushEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return Push{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	p := Push{Repo: ev.GetRepo().GetFullName()}
	for _, c := range ev.Commits {
		p.Messages = append(p.Messages, c.GetMessage())
	}
	return p, nil
}

// ValidSignature reports whether signature is the "sha256=" HMAC of body
// under secret. The comparison is constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	if secret == "" || !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	return github.ValidateSignature(signature, body, []byte(secret)) == nil
}

// Triggered reports whether any commit message contains keyword.
func Triggered(keyword string, messages []string) bool {
	for _, m := range messages {
		if strings.Contains(m, keyword) {
			return true
		}
	}
	return false
}

// Receiver matches inbound pushes to website entries.
type Receiver struct {
	Store     store.Store
	Scheduler Scheduler
}

// Handle schedules a verification run for every entry the push qualifies
// for and returns their ids. Per-entry failures are logged and skipped.
func (r *Receiver) Handle(ctx context.Context, body []byte, signature string) ([]int64, error) {
	push, err := ParsePush(body)
	if err != nil {
		webhookDeliveries.WithLabelValues("malformed").Inc()
		return nil, err
	}
	log := clog.FromContext(ctx).With("repo", push.Repo)
	if push.Repo == "" {
		webhookDeliveries.WithLabelValues("ignored").Inc()
		log.Info("Push without repository, ignoring")
		return nil, nil
	}

	entries, err := r.Store.ListEntriesByRepo(ctx, push.Repo)
	if err != nil {
		return nil, fmt.Errorf("listing entries for %s: %w", push.Repo, err)
	}

	var scheduled []int64
	for _, entry := range entries {
		log := log.With("entry_id", entry.ID)
		settings, err := r.Store.GetVerificationSettings(ctx, entry.ID)
		if err != nil {
			log.With("error", err).Warn("Loading verification settings")
			continue
		}
		if !settings.Enabled || settings.GitHubWebhookSecret == "" {
			continue
		}
		if !ValidSignature(settings.GitHubWebhookSecret, body, signature) {
			webhookDeliveries.WithLabelValues("bad_signature").Inc()
			log.Warn("Push signature mismatch")
			continue
		}
		if !Triggered(settings.TriggerKeyword, push.Messages) {
			continue
		}
		if err := r.Scheduler.Schedule(ctx, entry.ID); err != nil {
			log.With("error", err).Error("Scheduling verification run")
			continue
		}
		webhookDeliveries.WithLabelValues("scheduled").Inc()
		log.Info("Verification run scheduled")
		scheduled = append(scheduled, entry.ID)
	}
	return scheduled, nil
}
