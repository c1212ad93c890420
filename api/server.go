/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package api serves the Webster HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/runner"
	"chainguard.dev/webster/store"
	"chainguard.dev/webster/verification"
	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// Runs performs one agent loop run, streaming its events.
type Runs interface {
	Run(ctx context.Context, req runner.Request, emit func(agentgraph.Event)) (string, error)
}

// GitHubClients creates REST clients authenticated with a user token.
type GitHubClients interface {
	New(ctx context.Context, token string) (*github.Client, error)
}

// Server holds the collaborators behind the routes.
type Server struct {
	Store    store.Store
	Runs     Runs
	Receiver *verification.Receiver
	Hooks    *verification.Hooks
	Sessions *Sessions
	OAuth    *oauth2.Config
	GitHub   GitHubClients

	// FrontendURL is the browser origin, without a trailing slash.
	FrontendURL string

	// AppSlug names the GitHub App users must install. Empty skips the check.
	AppSlug string

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Router returns the HTTP handler for all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/healthz", health)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Post("/webhook/github", s.githubWebhook)
	r.Get("/integrations/github/oauth2/callback", s.oauthCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/me", s.me)
		r.Get("/github/repos", s.githubRepos)
		r.Get("/github/app-installed", s.githubAppInstalled)

		r.Post("/website-entries/add", s.addEntry)
		r.Get("/website-entries", s.listEntries)

		r.Get("/messages", s.listMessages)
		r.Post("/messages/send", s.sendMessage)

		r.Get("/diagnostics", s.listDiagnostics)
		r.Delete("/diagnostics/{id}", s.dismissDiagnostic)

		r.Get("/verification-settings", s.getSettings)
		r.Put("/verification-settings", s.putSettings)
	})
	return r
}

// requestLogger logs one line per request through clog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		log := clog.FromContext(r.Context()).With("method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(clog.WithLogger(r.Context(), log)))
		log.With("status", ww.Status(), "elapsed_ms", time.Since(start).Milliseconds()).Info("Request served")
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && origin == s.FrontendURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// entryParam resolves the website_entry_id query parameter to an entry the
// caller owns. It writes the error response and returns false otherwise.
func (s *Server) entryParam(w http.ResponseWriter, r *http.Request) (store.Entry, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("website_entry_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "website_entry_id must be an integer")
		return store.Entry{}, false
	}
	return s.ownedEntry(w, r, id)
}

func (s *Server) ownedEntry(w http.ResponseWriter, r *http.Request, id int64) (store.Entry, bool) {
	entry, err := s.Store.GetEntry(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Website entry not found")
		return store.Entry{}, false
	case err != nil:
		s.internalError(w, r, err)
		return store.Entry{}, false
	case entry.UserID != userID(r.Context()):
		writeError(w, http.StatusNotFound, "Website entry not found")
		return store.Entry{}, false
	}
	return entry, true
}

// currentUser loads the authenticated user.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	user, err := s.Store.GetUser(r.Context(), userID(r.Context()))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "User not found")
		return store.User{}, false
	case err != nil:
		s.internalError(w, r, err)
		return store.User{}, false
	}
	return user, true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	clog.FromContext(r.Context()).With("error", err).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
