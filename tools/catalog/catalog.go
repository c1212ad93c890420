/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package catalog assembles the full Webster tool catalog for one run.
package catalog

import (
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/store"
	"chainguard.dev/webster/tools/browsertools"
	"chainguard.dev/webster/tools/diagnostics"
	"chainguard.dev/webster/tools/githubwrite"
	"chainguard.dev/webster/tools/pagespeed"
	"github.com/google/go-github/v84/github"
)

// Deps are the run-scoped collaborators the tools act through.
type Deps struct {
	EntryID     int64
	Browser     browsertools.Browser
	PageSpeed   *pagespeed.Client
	Diagnostics store.Diagnostics

	// RepoTools are the read-only repository tools discovered for the run.
	RepoTools []toolcall.Tool

	// GitHub backs the repository-mutation tools. When nil they are omitted.
	GitHub *github.Client
}

// Build returns the catalog in the order the model sees it: browser tools,
// the performance audit, diagnostic submission, repository reads, and last
// the fix-mode-only repository writes.
func Build(d Deps) toolcall.Catalog {
	c := toolcall.Catalog{}.
		Add(toolcall.Always, browsertools.Tools(d.Browser)...)
	if d.PageSpeed != nil {
		c = c.Add(toolcall.Always, d.PageSpeed.Tool())
	}
	c = c.Add(toolcall.Always, diagnostics.Tool(d.Diagnostics, d.EntryID)).
		Add(toolcall.Always, d.RepoTools...)
	if d.GitHub != nil {
		c = c.Add(toolcall.FixModeOnly, githubwrite.Tools(d.GitHub)...)
	}
	return c
}
