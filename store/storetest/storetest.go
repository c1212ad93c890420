/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package storetest holds behavior tests every store.Store must pass.
package storetest

import (
	"testing"

	"chainguard.dev/webster/store"
	"github.com/stretchr/testify/require"
)

// Run exercises s. It expects s to be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := t.Context()

	// Users upsert on GitHub id.
	u, err := s.UpsertUser(ctx, 42, "tok-1")
	require.NoError(t, err)
	again, err := s.UpsertUser(ctx, 42, "tok-2")
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "tok-2", got.GitHubToken)
	_, err = s.GetUser(ctx, u.ID+1000)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Entries.
	e1, err := s.CreateEntry(ctx, u.ID, "https://example.com", "acme/site")
	require.NoError(t, err)
	e2, err := s.CreateEntry(ctx, u.ID, "https://docs.example.com", "acme/docs")
	require.NoError(t, err)
	entry, err := s.GetEntry(ctx, e1)
	require.NoError(t, err)
	require.Equal(t, store.Entry{ID: e1, UserID: u.ID, WebsiteURL: "https://example.com", RepoName: "acme/site"}, entry)
	entries, err := s.ListEntries(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	byRepo, err := s.ListEntriesByRepo(ctx, "acme/docs")
	require.NoError(t, err)
	require.Len(t, byRepo, 1)
	require.Equal(t, e2, byRepo[0].ID)
	_, err = s.GetEntry(ctx, e2+1000)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Messages keep append order.
	for _, m := range []store.Message{
		{EntryID: e1, Role: store.RoleHuman, Content: "Check SEO"},
		{EntryID: e1, Role: store.RoleAI, Content: "Done", IsAutomated: true},
		{EntryID: e2, Role: store.RoleHuman, Content: "other entry"},
		{EntryID: e1, Role: store.RoleHuman, Content: "Fix it", IsAutomated: true, IsFixAction: true},
	} {
		_, err := s.AppendMessage(ctx, m)
		require.NoError(t, err)
	}
	msgs, err := s.ListMessages(ctx, e1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, []string{"Check SEO", "Done", "Fix it"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	require.Less(t, msgs[0].ID, msgs[1].ID)
	require.Less(t, msgs[1].ID, msgs[2].ID)
	require.True(t, msgs[2].IsAutomated)
	require.True(t, msgs[2].IsFixAction)
	require.False(t, msgs[0].IsAutomated)

	// Diagnostics and dismissal.
	d1, err := s.CreateDiagnostic(ctx, e1, "Missing meta description", "Add one.", store.SeverityWarning)
	require.NoError(t, err)
	d2, err := s.CreateDiagnostic(ctx, e1, "Broken link", "/pricing 404s.", store.SeverityError)
	require.NoError(t, err)
	active, err := s.ListActiveDiagnostics(ctx, e1)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.NoError(t, s.DismissDiagnostic(ctx, d1))
	active, err = s.ListActiveDiagnostics(ctx, e1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, d2, active[0].ID)
	require.Equal(t, store.SeverityError, active[0].Severity)
	dismissed, err := s.GetDiagnostic(ctx, d1)
	require.NoError(t, err)
	require.True(t, dismissed.Dismissed)
	require.ErrorIs(t, s.DismissDiagnostic(ctx, d2+1000), store.ErrNotFound)

	// Verification settings default, then round trip.
	vs, err := s.GetVerificationSettings(ctx, e1)
	require.NoError(t, err)
	require.Equal(t, store.DefaultVerificationSettings(e1), vs)
	vs.Enabled = true
	vs.MinSeverity = store.SeverityWarning
	vs.AutoFix = true
	vs.PathsInScope = "/pricing"
	vs.TriggerKeyword = "[verify]"
	vs.WebhookURL = "https://hooks.example.com"
	vs.WebhookFormat = store.FormatDiscord
	vs.GitHubWebhookID = 99
	vs.GitHubWebhookSecret = "s3cret"
	require.NoError(t, s.PutVerificationSettings(ctx, vs))
	vs.GitHubWebhookSecret = "rotated"
	require.NoError(t, s.PutVerificationSettings(ctx, vs))
	stored, err := s.GetVerificationSettings(ctx, e1)
	require.NoError(t, err)
	require.Equal(t, vs, stored)
}
