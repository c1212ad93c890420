/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package browser owns the headless browser used by one agent run.
//
// A Session launches Chrome through go-rod on first use and keeps a single
// interactive page alive across tool calls, so the model can open a page, then
// click and type on it in later steps. Fetch and Metadata-by-URL style reads
// that must not disturb that page use a throwaway page instead.
//
// A Session is not safe for concurrent use. Tool calls within a run are
// executed sequentially and each run owns its own Session.
package browser
