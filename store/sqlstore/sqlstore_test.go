/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlstore

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"chainguard.dev/webster/store"
	"chainguard.dev/webster/store/storetest"
	"github.com/DATA-DOG/go-sqlmock"
)

func TestSQLite(t *testing.T) {
	s, err := Open(t.Context(), "sqlite://"+filepath.Join(t.TempDir(), "webster.db"))
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	defer s.Close()
	storetest.Run(t, s)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(t.Context(), "mysql://localhost/webster"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Store{db: db, dialect: postgres}, mock
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: postgres}
	got := s.rebind("SELECT a FROM t WHERE b = ? AND c = ?")
	if want := "SELECT a FROM t WHERE b = $1 AND c = $2"; got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
	s.dialect = sqlite
	if got := s.rebind("b = ?"); got != "b = ?" {
		t.Errorf("sqlite rebind() = %q", got)
	}
}

func TestPostgresCreateDiagnostic(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO diagnostics (website_entry_id, short_desc, full_desc, severity) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs(int64(3), "Missing meta description", "Add one.", "warning").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := s.CreateDiagnostic(t.Context(), 3, "Missing meta description", "Add one.", store.SeverityWarning)
	if err != nil {
		t.Fatalf("CreateDiagnostic() = %v", err)
	}
	if id != 11 {
		t.Errorf("CreateDiagnostic() id = %d, want 11", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresListActiveDiagnosticsRowsErr(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "website_entry_id", "short_desc", "full_desc", "severity", "dismissed"}).
		AddRow(int64(1), int64(3), "a", "b", "error", false).
		AddRow(int64(2), int64(3), "c", "d", "info", false)
	rows.RowError(1, errors.New("row error"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM diagnostics WHERE website_entry_id = $1 AND dismissed = FALSE")).
		WithArgs(int64(3)).WillReturnRows(rows)

	if _, err := s.ListActiveDiagnostics(t.Context(), 3); err == nil {
		t.Fatal("expected rows error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresDismissMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE diagnostics SET dismissed = TRUE WHERE id = $1")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DismissDiagnostic(t.Context(), 9); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DismissDiagnostic() = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresSettingsDefault(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM verification_settings WHERE website_entry_id = $1")).
		WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows(nil))

	got, err := s.GetVerificationSettings(t.Context(), 5)
	if err != nil {
		t.Fatalf("GetVerificationSettings() = %v", err)
	}
	if got != store.DefaultVerificationSettings(5) {
		t.Errorf("GetVerificationSettings() = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresGetEntryNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM website_entries WHERE id = $1")).
		WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "website_url", "repo_name"}))

	if _, err := s.GetEntry(t.Context(), 5); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetEntry() = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
