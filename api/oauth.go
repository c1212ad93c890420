/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"net/http"

	"github.com/chainguard-dev/clog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// OAuthConfig returns the GitHub OAuth client. The redirect URL goes
// through the frontend's backend proxy.
func OAuthConfig(clientID, clientSecret, frontendURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.GitHub,
		RedirectURL:  frontendURL + "/api/backend/integrations/github/oauth2/callback",
	}
}

func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusUnprocessableEntity, "code is required")
		return
	}
	tok, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		log.With("error", err).Warn("GitHub token exchange failed")
		writeError(w, http.StatusBadRequest, "GitHub token exchange failed")
		return
	}

	client, err := s.GitHub.New(ctx, tok.AccessToken)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	ghUser, _, err := client.Users.Get(ctx, "")
	if err != nil {
		log.With("error", err).Warn("Looking up GitHub user")
		writeError(w, http.StatusBadGateway, "GitHub user lookup failed")
		return
	}

	user, err := s.Store.UpsertUser(ctx, ghUser.GetID(), tok.AccessToken)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	session, err := s.Sessions.Issue(user.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	log.With("user_id", user.ID).Info("User signed in")
	http.SetCookie(w, s.Sessions.Cookie(session, s.FrontendURL))
	http.Redirect(w, r, s.FrontendURL+"/", http.StatusTemporaryRedirect)
}
