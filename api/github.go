/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

type meResponse struct {
	UserID   int64 `json:"userId"`
	GitHubID int64 `json:"githubId"`
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: user.ID, GitHubID: user.GitHubID})
}

func (s *Server) githubRepos(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	client, err := s.GitHub.New(r.Context(), user.GitHubToken)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	repos, _, err := client.Repositories.ListByAuthenticatedUser(r.Context(), &github.RepositoryListByAuthenticatedUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		clog.FromContext(r.Context()).With("error", err).Warn("Listing repositories")
		writeError(w, http.StatusBadGateway, "Failed to list GitHub repositories")
		return
	}
	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		names = append(names, repo.GetFullName())
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) githubAppInstalled(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	if s.AppSlug == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"installed": true})
		return
	}
	installed := false
	client, err := s.GitHub.New(r.Context(), user.GitHubToken)
	if err == nil {
		var installs []*github.Installation
		installs, _, err = client.Apps.ListUserInstallations(r.Context(), &github.ListOptions{PerPage: 100})
		for _, inst := range installs {
			if inst.GetAppSlug() == s.AppSlug {
				installed = true
				break
			}
		}
	}
	if err != nil {
		clog.FromContext(r.Context()).With("error", err).Warn("Listing app installations")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"installed": installed})
}
