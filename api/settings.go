/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"chainguard.dev/webster/store"
	"chainguard.dev/webster/verification"
)

// settingsBody is the wire form of verification settings. The hook id and
// secret never leave the server.
type settingsBody struct {
	Enabled                bool           `json:"enabled"`
	MinSeverity            store.Severity `json:"minSeverity"`
	AutoFix                bool           `json:"autoFix"`
	PathsInScope           string         `json:"pathsInScope"`
	WebhookURL             string         `json:"webhookUrl"`
	WebhookAuthHeaderKey   string         `json:"webhookAuthHeaderKey"`
	WebhookAuthHeaderValue string         `json:"webhookAuthHeaderValue"`
	TriggerKeyword         string         `json:"triggerKeyword"`
	WebhookFormat          string         `json:"webhookFormat"`
}

func toBody(vs store.VerificationSettings) settingsBody {
	return settingsBody{
		Enabled:                vs.Enabled,
		MinSeverity:            vs.MinSeverity,
		AutoFix:                vs.AutoFix,
		PathsInScope:           vs.PathsInScope,
		WebhookURL:             vs.WebhookURL,
		WebhookAuthHeaderKey:   vs.WebhookAuthHeaderKey,
		WebhookAuthHeaderValue: vs.WebhookAuthHeaderValue,
		TriggerKeyword:         vs.TriggerKeyword,
		WebhookFormat:          vs.WebhookFormat,
	}
}

func (b settingsBody) settings(entryID int64) store.VerificationSettings {
	return store.VerificationSettings{
		EntryID:                entryID,
		Enabled:                b.Enabled,
		MinSeverity:            b.MinSeverity,
		AutoFix:                b.AutoFix,
		PathsInScope:           b.PathsInScope,
		WebhookURL:             b.WebhookURL,
		WebhookAuthHeaderKey:   b.WebhookAuthHeaderKey,
		WebhookAuthHeaderValue: b.WebhookAuthHeaderValue,
		TriggerKeyword:         b.TriggerKeyword,
		WebhookFormat:          b.WebhookFormat,
	}
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entryParam(w, r)
	if !ok {
		return
	}
	vs, err := s.Store.GetVerificationSettings(r.Context(), entry.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBody(vs))
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entryParam(w, r)
	if !ok {
		return
	}
	user, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	var body settingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if _, err := s.Hooks.Apply(r.Context(), s.Store, entry, user.GitHubToken, body.settings(entry.ID)); err != nil {
		if errors.Is(err, verification.ErrRegistration) {
			writeError(w, http.StatusBadRequest, "Failed to register GitHub webhook: "+err.Error())
			return
		}
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
