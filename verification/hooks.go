/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"chainguard.dev/webster/ghclient"
	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// ErrRegistration is returned when the repository push hook could not be
// created while enabling verification.
var ErrRegistration = errors.New("failed to register repository webhook")

// GitHubClients creates a REST client authenticated with a user token.
type GitHubClients interface {
	New(ctx context.Context, token string) (*github.Client, error)
}

// Hooks manages the push hook each enabled entry registers on its repository.
type Hooks struct {
	GitHub GitHubClients

	// CallbackURL is where the repository delivers push events.
	CallbackURL string
}

// NewSecret returns a random 32-byte hex secret for signing push deliveries.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register creates a push hook on repo and returns its id and secret.
func (h *Hooks) Register(ctx context.Context, token, repo string) (int64, string, error) {
	if h.CallbackURL == "" {
		return 0, "", errors.New("webhook callback URL is not configured")
	}
	owner, name, err := ghclient.SplitRepo(repo)
	if err != nil {
		return 0, "", err
	}
	secret, err := NewSecret()
	if err != nil {
		return 0, "", fmt.Errorf("generating webhook secret: %w", err)
	}
	client, err := h.GitHub.New(ctx, token)
	if err != nil {
		return 0, "", err
	}
	hook, _, err := client.Repositories.CreateHook(ctx, owner, name, &github.Hook{
		Name:   github.Ptr("web"),
		Active: github.Ptr(true),
		Events: []string{"push"},
		Config: &github.HookConfig{
			URL:         github.Ptr(h.CallbackURL),
			ContentType: github.Ptr("json"),
			Secret:      github.Ptr(secret),
		},
	})
	if err != nil {
		return 0, "", fmt.Errorf("creating hook on %s: %w", repo, err)
	}
	return hook.GetID(), secret, nil
}

// Deregister deletes the push hook with the given id from repo.
func (h *Hooks) Deregister(ctx context.Context, token, repo string, id int64) error {
	owner, name, err := ghclient.SplitRepo(repo)
	if err != nil {
		return err
	}
	client, err := h.GitHub.New(ctx, token)
	if err != nil {
		return err
	}
	if _, err := client.Repositories.DeleteHook(ctx, owner, name, id); err != nil {
		return fmt.Errorf("deleting hook %d on %s: %w", id, repo, err)
	}
	return nil
}

// Apply stores updated settings for entry, registering the push hook when
// verification turns on and removing it when it turns off. The hook id and
// secret are never taken from next.
func (h *Hooks) Apply(ctx context.Context, s store.Store, entry store.Entry, token string, next store.VerificationSettings) (store.VerificationSettings, error) {
	log := clog.FromContext(ctx).With("entry_id", entry.ID, "repo", entry.RepoName)
	prev, err := s.GetVerificationSettings(ctx, entry.ID)
	if err != nil {
		return store.VerificationSettings{}, err
	}
	next.EntryID = entry.ID
	next.GitHubWebhookID = prev.GitHubWebhookID
	next.GitHubWebhookSecret = prev.GitHubWebhookSecret
	if !next.MinSeverity.Valid() {
		next.MinSeverity = store.SeverityError
	}
	if next.WebhookFormat != store.FormatDiscord {
		next.WebhookFormat = store.FormatGeneric
	}

	switch {
	case next.Enabled && !prev.Enabled:
		id, secret, err := h.Register(ctx, token, entry.RepoName)
		if err != nil {
			log.With("error", err).Warn("Registering push hook")
			return store.VerificationSettings{}, fmt.Errorf("%w: %w", ErrRegistration, err)
		}
		next.GitHubWebhookID, next.GitHubWebhookSecret = id, secret
		log.With("hook_id", id).Info("Push hook registered")

	case !next.Enabled && prev.Enabled:
		if prev.GitHubWebhookID != 0 {
			if err := h.Deregister(ctx, token, entry.RepoName, prev.GitHubWebhookID); err != nil {
				log.With("error", err).Warn("Removing push hook, continuing")
			}
		}
		next.GitHubWebhookID, next.GitHubWebhookSecret = 0, ""
	}

	if err := s.PutVerificationSettings(ctx, next); err != nil {
		return store.VerificationSettings{}, err
	}
	return next, nil
}
