/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sqlstore implements store.Store over database/sql, on SQLite
// (modernc.org/sqlite) or PostgreSQL (pgx).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chainguard.dev/webster/store"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	sqlite dialect = iota
	postgres
)

// Store is a SQL-backed store.Store.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ store.Store = (*Store)(nil)

var openDB = sql.Open

// Open connects to databaseURL and creates the schema if needed.
// sqlite://path selects SQLite, postgres:// or postgresql:// selects pgx.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	var (
		d          dialect
		driver     string
		dsn        string
		singleConn bool
	)
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		d, driver, singleConn = sqlite, "sqlite", true
		dsn = strings.TrimPrefix(databaseURL, "sqlite://") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		d, driver, dsn = postgres, "pgx", databaseURL
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %q", databaseURL)
	}

	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if singleConn {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == postgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + pk + `,
			github_id BIGINT NOT NULL UNIQUE,
			github_token TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS website_entries (
			id ` + pk + `,
			user_id BIGINT NOT NULL REFERENCES users(id),
			website_url TEXT NOT NULL,
			repo_name TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_website_entries_repo ON website_entries(repo_name)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id ` + pk + `,
			website_entry_id BIGINT NOT NULL REFERENCES website_entries(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			is_automated BOOLEAN NOT NULL DEFAULT FALSE,
			is_fix_action BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_entry ON messages(website_entry_id, id)`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			id ` + pk + `,
			website_entry_id BIGINT NOT NULL REFERENCES website_entries(id),
			short_desc TEXT NOT NULL,
			full_desc TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'warning',
			dismissed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_diagnostics_entry ON diagnostics(website_entry_id)`,
		`CREATE TABLE IF NOT EXISTS verification_settings (
			website_entry_id BIGINT PRIMARY KEY REFERENCES website_entries(id),
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			min_severity TEXT NOT NULL DEFAULT 'error',
			auto_fix BOOLEAN NOT NULL DEFAULT FALSE,
			paths_in_scope TEXT NOT NULL DEFAULT '',
			webhook_url TEXT NOT NULL DEFAULT '',
			webhook_auth_header_key TEXT NOT NULL DEFAULT '',
			webhook_auth_header_value TEXT NOT NULL DEFAULT '',
			trigger_keyword TEXT NOT NULL DEFAULT '',
			webhook_format TEXT NOT NULL DEFAULT 'generic',
			github_webhook_id BIGINT NOT NULL DEFAULT 0,
			github_webhook_secret TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) CreateDiagnostic(ctx context.Context, entryID int64, shortDesc, fullDesc string, severity store.Severity) (int64, error) {
	id, err := s.insert(ctx,
		`INSERT INTO diagnostics (website_entry_id, short_desc, full_desc, severity) VALUES (?, ?, ?, ?)`,
		entryID, shortDesc, fullDesc, string(severity))
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	return id, nil
}

const diagnosticColumns = `id, website_entry_id, short_desc, full_desc, severity, dismissed`

func scanDiagnostic(row interface{ Scan(...any) error }) (store.Diagnostic, error) {
	var d store.Diagnostic
	var severity string
	if err := row.Scan(&d.ID, &d.EntryID, &d.ShortDesc, &d.FullDesc, &severity, &d.Dismissed); err != nil {
		return store.Diagnostic{}, err
	}
	d.Severity = store.Severity(severity)
	return d, nil
}

func (s *Store) ListActiveDiagnostics(ctx context.Context, entryID int64) ([]store.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+diagnosticColumns+` FROM diagnostics WHERE website_entry_id = ? AND dismissed = FALSE ORDER BY id`), entryID)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()
	var out []store.Diagnostic
	for rows.Next() {
		d, err := scanDiagnostic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDiagnostic(ctx context.Context, id int64) (store.Diagnostic, error) {
	d, err := scanDiagnostic(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+diagnosticColumns+` FROM diagnostics WHERE id = ?`), id))
	return d, notFound(err)
}

func (s *Store) DismissDiagnostic(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE diagnostics SET dismissed = TRUE WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("dismiss diagnostic: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, m store.Message) (int64, error) {
	id, err := s.insert(ctx,
		`INSERT INTO messages (website_entry_id, role, content, is_automated, is_fix_action) VALUES (?, ?, ?, ?, ?)`,
		m.EntryID, m.Role, m.Content, m.IsAutomated, m.IsFixAction)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

func (s *Store) ListMessages(ctx context.Context, entryID int64) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, website_entry_id, role, content, is_automated, is_fix_action FROM messages WHERE website_entry_id = ? ORDER BY id`), entryID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []store.Message
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Role, &m.Content, &m.IsAutomated, &m.IsFixAction); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpsertUser(ctx context.Context, githubID int64, token string) (store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO users (github_id, github_token) VALUES (?, ?)
		ON CONFLICT (github_id) DO UPDATE SET github_token = excluded.github_token
		RETURNING id, github_id, github_token`), githubID, token).Scan(&u.ID, &u.GitHubID, &u.GitHubToken)
	if err != nil {
		return store.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, github_id, github_token FROM users WHERE id = ?`), id).Scan(&u.ID, &u.GitHubID, &u.GitHubToken)
	return u, notFound(err)
}

func (s *Store) CreateEntry(ctx context.Context, userID int64, websiteURL, repoName string) (int64, error) {
	id, err := s.insert(ctx,
		`INSERT INTO website_entries (user_id, website_url, repo_name) VALUES (?, ?, ?)`,
		userID, websiteURL, repoName)
	if err != nil {
		return 0, fmt.Errorf("insert website entry: %w", err)
	}
	return id, nil
}

const entryColumns = `id, user_id, website_url, repo_name`

func (s *Store) GetEntry(ctx context.Context, id int64) (store.Entry, error) {
	var e store.Entry
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+entryColumns+` FROM website_entries WHERE id = ?`), id).Scan(&e.ID, &e.UserID, &e.WebsiteURL, &e.RepoName)
	return e, notFound(err)
}

func (s *Store) ListEntries(ctx context.Context, userID int64) ([]store.Entry, error) {
	return s.listEntries(ctx, `SELECT `+entryColumns+` FROM website_entries WHERE user_id = ? ORDER BY id`, userID)
}

func (s *Store) ListEntriesByRepo(ctx context.Context, repoName string) ([]store.Entry, error) {
	return s.listEntries(ctx, `SELECT `+entryColumns+` FROM website_entries WHERE repo_name = ? ORDER BY id`, repoName)
}

func (s *Store) listEntries(ctx context.Context, query string, arg any) ([]store.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), arg)
	if err != nil {
		return nil, fmt.Errorf("list website entries: %w", err)
	}
	defer rows.Close()
	var out []store.Entry
	for rows.Next() {
		var e store.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.WebsiteURL, &e.RepoName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetVerificationSettings(ctx context.Context, entryID int64) (store.VerificationSettings, error) {
	var v store.VerificationSettings
	var minSeverity string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT website_entry_id, enabled, min_severity, auto_fix, paths_in_scope, webhook_url,
			webhook_auth_header_key, webhook_auth_header_value, trigger_keyword, webhook_format,
			github_webhook_id, github_webhook_secret
		FROM verification_settings WHERE website_entry_id = ?`), entryID).Scan(
		&v.EntryID, &v.Enabled, &minSeverity, &v.AutoFix, &v.PathsInScope, &v.WebhookURL,
		&v.WebhookAuthHeaderKey, &v.WebhookAuthHeaderValue, &v.TriggerKeyword, &v.WebhookFormat,
		&v.GitHubWebhookID, &v.GitHubWebhookSecret)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DefaultVerificationSettings(entryID), nil
	}
	if err != nil {
		return store.VerificationSettings{}, fmt.Errorf("get verification settings: %w", err)
	}
	v.MinSeverity = store.Severity(minSeverity)
	return v, nil
}

func (s *Store) PutVerificationSettings(ctx context.Context, v store.VerificationSettings) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO verification_settings (
			website_entry_id, enabled, min_severity, auto_fix, paths_in_scope, webhook_url,
			webhook_auth_header_key, webhook_auth_header_value, trigger_keyword, webhook_format,
			github_webhook_id, github_webhook_secret
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (website_entry_id) DO UPDATE SET
			enabled = excluded.enabled,
			min_severity = excluded.min_severity,
			auto_fix = excluded.auto_fix,
			paths_in_scope = excluded.paths_in_scope,
			webhook_url = excluded.webhook_url,
			webhook_auth_header_key = excluded.webhook_auth_header_key,
			webhook_auth_header_value = excluded.webhook_auth_header_value,
			trigger_keyword = excluded.trigger_keyword,
			webhook_format = excluded.webhook_format,
			github_webhook_id = excluded.github_webhook_id,
			github_webhook_secret = excluded.github_webhook_secret`),
		v.EntryID, v.Enabled, string(v.MinSeverity), v.AutoFix, v.PathsInScope, v.WebhookURL,
		v.WebhookAuthHeaderKey, v.WebhookAuthHeaderValue, v.TriggerKeyword, v.WebhookFormat,
		v.GitHubWebhookID, v.GitHubWebhookSecret)
	if err != nil {
		return fmt.Errorf("put verification settings: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
