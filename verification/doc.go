/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package verification re-runs the agent when a repository receives a
// qualifying push.
//
// A push is accepted for an entry only when its X-Hub-Signature-256 header
// matches the secret stored when the entry's push hook was registered, and
// a commit message contains the entry's trigger keyword. Accepted pushes are
// scheduled; the HTTP response never waits on the run.
//
// A verification run snapshots the active diagnostics, analyzes the
// website once, and treats every diagnostic that appeared during the run
// at or above the minimum severity as new. New diagnostics are posted to
// the configured notification target and, when auto-fix is on, each gets
// its own fix-mode run, one after another.
package verification
