/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"errors"
	"net/http"
	"strconv"

	"chainguard.dev/webster/store"
	"github.com/go-chi/chi/v5"
)

type entryResponse struct {
	WebsiteEntryID  int64  `json:"websiteEntryId"`
	WebsiteURL      string `json:"websiteUrl"`
	RepoName        string `json:"repoName"`
	DiagnosticCount int    `json:"diagnosticCount"`
}

type diagnosticResponse struct {
	DiagnosticID int64          `json:"diagnosticId"`
	ShortDesc    string         `json:"shortDesc"`
	FullDesc     string         `json:"fullDesc"`
	Severity     store.Severity `json:"severity"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	websiteURL, repo := q.Get("website_url"), q.Get("repo_name")
	if websiteURL == "" || repo == "" {
		writeError(w, http.StatusUnprocessableEntity, "website_url and repo_name are required")
		return
	}
	id, err := s.Store.CreateEntry(r.Context(), userID(r.Context()), websiteURL, repo)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.ListEntries(r.Context(), userID(r.Context()))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		diags, err := s.Store.ListActiveDiagnostics(r.Context(), e.ID)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		out = append(out, entryResponse{
			WebsiteEntryID:  e.ID,
			WebsiteURL:      e.WebsiteURL,
			RepoName:        e.RepoName,
			DiagnosticCount: len(diags),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listDiagnostics(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entryParam(w, r)
	if !ok {
		return
	}
	diags, err := s.Store.ListActiveDiagnostics(r.Context(), entry.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]diagnosticResponse, 0, len(diags))
	for _, d := range diags {
		out = append(out, diagnosticResponse{
			DiagnosticID: d.ID,
			ShortDesc:    d.ShortDesc,
			FullDesc:     d.FullDesc,
			Severity:     d.Severity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// dismissDiagnostic answers 404 for diagnostics the caller does not own.
func (s *Server) dismissDiagnostic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Diagnostic not found")
		return
	}
	d, err := s.Store.GetDiagnostic(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Diagnostic not found")
		return
	} else if err != nil {
		s.internalError(w, r, err)
		return
	}
	entry, err := s.Store.GetEntry(r.Context(), d.EntryID)
	if err != nil || entry.UserID != userID(r.Context()) {
		writeError(w, http.StatusNotFound, "Diagnostic not found")
		return
	}
	if err := s.Store.DismissDiagnostic(r.Context(), id); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
