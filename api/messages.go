/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/runner"
	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
)

type messageResponse struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	IsAutomated bool   `json:"is_automated"`
	IsFixAction bool   `json:"is_fix_action"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entryParam(w, r)
	if !ok {
		return
	}
	msgs, err := s.Store.ListMessages(r.Context(), entry.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			Role:        m.Role,
			Content:     m.Content,
			IsAutomated: m.IsAutomated,
			IsFixAction: m.IsFixAction,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// sendMessage appends the human message and streams the run as
// server-sent events, one "data:" frame per event.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entryParam(w, r)
	if !ok {
		return
	}
	fixMode := false
	if v := r.URL.Query().Get("is_fix_action"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "is_fix_action must be a boolean")
			return
		}
		fixMode = b
	}
	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if _, err := s.Store.AppendMessage(r.Context(), store.Message{
		EntryID:     entry.ID,
		Role:        store.RoleHuman,
		Content:     body.Content,
		IsFixAction: fixMode,
	}); err != nil {
		s.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(ev agentgraph.Event) {
		raw, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", raw)
		flusher.Flush()
	}
	if _, err := s.Runs.Run(r.Context(), runner.Request{EntryID: entry.ID, FixMode: fixMode}, emit); err != nil {
		clog.FromContext(r.Context()).With("error", err).Warn("Chat run ended with an error")
	}
}
