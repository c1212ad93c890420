/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghclient builds GitHub REST clients authenticated as a Webster user.
package ghclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Factory creates clients for a user's OAuth token. A non-empty BaseURL
// points the clients at another API root, such as a test server.
type Factory struct {
	BaseURL string
}

// New returns a client that sends token as a Bearer credential.
func (f Factory) New(ctx context.Context, token string) (*github.Client, error) {
	client := github.NewClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if f.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(f.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// SplitRepo splits "owner/repo".
func SplitRepo(full string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(full, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be in 'owner/repo' format, got %q", full)
	}
	return owner, repo, nil
}
