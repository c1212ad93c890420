/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package memory is an in-process store.Store, used by tests and local runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"chainguard.dev/webster/store"
)

// Store keeps every record in maps guarded by one lock.
type Store struct {
	mu          sync.RWMutex
	seq         int64
	users       map[int64]store.User
	entries     map[int64]store.Entry
	messages    map[int64][]store.Message
	diagnostics map[int64]store.Diagnostic
	settings    map[int64]store.VerificationSettings
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       map[int64]store.User{},
		entries:     map[int64]store.Entry{},
		messages:    map[int64][]store.Message{},
		diagnostics: map[int64]store.Diagnostic{},
		settings:    map[int64]store.VerificationSettings{},
	}
}

// nextID hands out ids from one sequence shared by all tables. Caller holds mu.
func (m *Store) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *Store) CreateDiagnostic(_ context.Context, entryID int64, shortDesc, fullDesc string, severity store.Severity) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	m.diagnostics[id] = store.Diagnostic{
		ID:        id,
		EntryID:   entryID,
		ShortDesc: shortDesc,
		FullDesc:  fullDesc,
		Severity:  severity,
	}
	return id, nil
}

func (m *Store) ListActiveDiagnostics(_ context.Context, entryID int64) ([]store.Diagnostic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Diagnostic
	for _, d := range m.diagnostics {
		if d.EntryID == entryID && !d.Dismissed {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b store.Diagnostic) int { return int(a.ID - b.ID) })
	return out, nil
}

func (m *Store) GetDiagnostic(_ context.Context, id int64) (store.Diagnostic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.diagnostics[id]
	if !ok {
		return store.Diagnostic{}, store.ErrNotFound
	}
	return d, nil
}

func (m *Store) DismissDiagnostic(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.diagnostics[id]
	if !ok {
		return store.ErrNotFound
	}
	d.Dismissed = true
	m.diagnostics[id] = d
	return nil
}

func (m *Store) AppendMessage(_ context.Context, msg store.Message) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.nextID()
	m.messages[msg.EntryID] = append(m.messages[msg.EntryID], msg)
	return msg.ID, nil
}

func (m *Store) ListMessages(_ context.Context, entryID int64) ([]store.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.messages[entryID]), nil
}

func (m *Store) UpsertUser(_ context.Context, githubID int64, token string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.GitHubID == githubID {
			u.GitHubToken = token
			m.users[id] = u
			return u, nil
		}
	}
	u := store.User{ID: m.nextID(), GitHubID: githubID, GitHubToken: token}
	m.users[u.ID] = u
	return u, nil
}

func (m *Store) GetUser(_ context.Context, id int64) (store.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *Store) CreateEntry(_ context.Context, userID int64, websiteURL, repoName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := store.Entry{ID: m.nextID(), UserID: userID, WebsiteURL: websiteURL, RepoName: repoName}
	m.entries[e.ID] = e
	return e.ID, nil
}

func (m *Store) GetEntry(_ context.Context, id int64) (store.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return store.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func (m *Store) ListEntries(_ context.Context, userID int64) ([]store.Entry, error) {
	return m.filterEntries(func(e store.Entry) bool { return e.UserID == userID }), nil
}

func (m *Store) ListEntriesByRepo(_ context.Context, repoName string) ([]store.Entry, error) {
	return m.filterEntries(func(e store.Entry) bool { return e.RepoName == repoName }), nil
}

func (m *Store) filterEntries(keep func(store.Entry) bool) []store.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Entry
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b store.Entry) int { return int(a.ID - b.ID) })
	return out
}

func (m *Store) GetVerificationSettings(_ context.Context, entryID int64) (store.VerificationSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.settings[entryID]; ok {
		return s, nil
	}
	return store.DefaultVerificationSettings(entryID), nil
}

func (m *Store) PutVerificationSettings(_ context.Context, s store.VerificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.EntryID] = s
	return nil
}

func (m *Store) Close() error { return nil }
