/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package store defines Webster's persistent records and the interfaces the
// agent, the API and the verification pipeline use to read and write them.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Severity is a diagnostic priority. Error outranks warning outranks info.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rank orders severities. Unrecognized values rank with info.
func (s Severity) Rank() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	}
	return 0
}

// ThresholdRank is the rank a configured minimum severity stands for.
// Unrecognized minimums are treated as error, the strictest setting.
func (s Severity) ThresholdRank() int {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return s.Rank()
	}
	return SeverityError.Rank()
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// Conversation roles persisted in the message log.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// User is a GitHub-authenticated account.
type User struct {
	ID          int64
	GitHubID    int64
	GitHubToken string
}

// Entry is a website under analysis, bound to its source repository.
type Entry struct {
	ID         int64
	UserID     int64
	WebsiteURL string
	RepoName   string
}

// Message is one line of an entry's conversation log. IDs increase
// monotonically and define the order of the log.
type Message struct {
	ID          int64
	EntryID     int64
	Role        string
	Content     string
	IsAutomated bool
	IsFixAction bool
}

// Diagnostic is an issue or suggestion recorded by the agent.
type Diagnostic struct {
	ID        int64
	EntryID   int64
	ShortDesc string
	FullDesc  string
	Severity  Severity
	Dismissed bool
}

// Webhook notification payload formats.
const (
	FormatGeneric = "generic"
	FormatDiscord = "discord"
)

// VerificationSettings controls the push-triggered verification loop of an entry.
type VerificationSettings struct {
	EntryID                int64
	Enabled                bool
	MinSeverity            Severity
	AutoFix                bool
	PathsInScope           string
	WebhookURL             string
	WebhookAuthHeaderKey   string
	WebhookAuthHeaderValue string
	TriggerKeyword         string
	WebhookFormat          string

	// GitHubWebhookID and GitHubWebhookSecret are set while the repository
	// push hook is registered.
	GitHubWebhookID     int64
	GitHubWebhookSecret string
}

// DefaultVerificationSettings returns the settings of an entry that has never
// been configured.
func DefaultVerificationSettings(entryID int64) VerificationSettings {
	return VerificationSettings{
		EntryID:       entryID,
		MinSeverity:   SeverityError,
		WebhookFormat: FormatGeneric,
	}
}

// Diagnostics is the slice of the store the agent's tools write through.
type Diagnostics interface {
	CreateDiagnostic(ctx context.Context, entryID int64, shortDesc, fullDesc string, severity Severity) (int64, error)
	ListActiveDiagnostics(ctx context.Context, entryID int64) ([]Diagnostic, error)
}

// Messages is the append-only conversation log.
type Messages interface {
	AppendMessage(ctx context.Context, m Message) (int64, error)
	ListMessages(ctx context.Context, entryID int64) ([]Message, error)
}

// Store is the full persistence surface.
type Store interface {
	Diagnostics
	Messages

	GetDiagnostic(ctx context.Context, id int64) (Diagnostic, error)
	DismissDiagnostic(ctx context.Context, id int64) error

	UpsertUser(ctx context.Context, githubID int64, token string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)

	CreateEntry(ctx context.Context, userID int64, websiteURL, repoName string) (int64, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	ListEntries(ctx context.Context, userID int64) ([]Entry, error)
	ListEntriesByRepo(ctx context.Context, repoName string) ([]Entry, error)

	// GetVerificationSettings returns DefaultVerificationSettings when the
	// entry has none stored.
	GetVerificationSettings(ctx context.Context, entryID int64) (VerificationSettings, error)
	PutVerificationSettings(ctx context.Context, s VerificationSettings) error

	Close() error
}
