/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"errors"
	"io"
	"net/http"

	"chainguard.dev/webster/verification"
	"github.com/chainguard-dev/clog"
)

// maxWebhookBody caps push payloads, which GitHub limits to 25MB.
const maxWebhookBody = 25 << 20

// githubWebhook acknowledges every well-formed delivery. Runs are only
// scheduled; the response never waits on them.
func (s *Server) githubWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if _, err := s.Receiver.Handle(r.Context(), body, r.Header.Get(verification.SignatureHeader)); err != nil {
		if errors.Is(err, verification.ErrMalformedPayload) {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		clog.FromContext(r.Context()).With("error", err).Error("Handling push delivery")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
