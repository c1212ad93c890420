/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubwrite

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"chainguard.dev/webster/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v84/github"
)

func newClient(t *testing.T, h http.Handler) (*github.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client.BaseURL = u
	return client, &calls
}

func handler(t *testing.T, name string, tools []toolcall.Tool) toolcall.Handler {
	t.Helper()
	byName, err := toolcall.Index(tools)
	if err != nil {
		t.Fatal(err)
	}
	tool, ok := byName[name]
	if !ok {
		t.Fatalf("missing tool %q", name)
	}
	return tool.Handler
}

func TestProtectedBranchGuardrail(t *testing.T) {
	for _, branch := range []string{"main", "master"} {
		t.Run(branch, func(t *testing.T) {
			client, calls := newClient(t, http.NotFoundHandler())
			got := handler(t, "gh_create_or_update_file", Tools(client))(t.Context(), toolcall.ToolCall{Args: map[string]any{
				"repo": "acme/site", "path": "index.html", "message": "fix", "content": "<html>", "branch": branch,
			}})
			if want := "Error: committing directly to 'main' or 'master' is not allowed. Create a feature branch first."; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
			if n := calls.Load(); n != 0 {
				t.Errorf("guardrail issued %d requests, want 0", n)
			}
		})
	}
}

func TestCreateBranch(t *testing.T) {
	var gotRef map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/site/branches/main", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name": "main", "commit": {"sha": "abc123"}}`))
	})
	mux.HandleFunc("POST /repos/acme/site/git/refs", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotRef); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ref": "refs/heads/webster/fix-meta", "object": {"sha": "abc123"}}`))
	})
	client, _ := newClient(t, mux)

	got := handler(t, "gh_create_branch", Tools(client))(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "acme/site", "branch": "webster/fix-meta",
	}})
	if want := "Branch 'webster/fix-meta' created from 'main' in acme/site."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if diff := cmp.Diff(map[string]string{"ref": "refs/heads/webster/fix-meta", "sha": "abc123"}, gotRef); diff != "" {
		t.Errorf("ref body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateBranchExisting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/site/branches/main", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name": "main", "commit": {"sha": "abc123"}}`))
	})
	mux.HandleFunc("POST /repos/acme/site/git/refs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Reference already exists"}`))
	})
	client, _ := newClient(t, mux)

	got := handler(t, "gh_create_branch", Tools(client))(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "acme/site", "branch": "fix",
	}})
	if !strings.HasPrefix(got, "Error creating branch 'fix' in acme/site:") || !strings.Contains(got, "Reference already exists") {
		t.Errorf("got %q", got)
	}
}

func TestCreateOrUpdateFile(t *testing.T) {
	var body map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/acme/site/contents/src/index.html", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Write([]byte(`{"content": {"path": "src/index.html"}, "commit": {"sha": "def456"}}`))
	})
	client, _ := newClient(t, mux)
	h := handler(t, "gh_create_or_update_file", Tools(client))

	got := h(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "acme/site", "path": "src/index.html", "message": "Add meta description",
		"content": "hi", "branch": "webster/fix-meta", "sha": "old789",
	}})
	if want := "File 'src/index.html' committed to branch 'webster/fix-meta' in acme/site. Commit: def456"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	want := map[string]string{
		"message": "Add meta description",
		"content": "aGk=",
		"branch":  "webster/fix-meta",
		"sha":     "old789",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	h(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "acme/site", "path": "src/index.html", "message": "Create", "content": "hi", "branch": "fix",
	}})
	if _, ok := body["sha"]; ok {
		t.Errorf("create sent a sha: %v", body)
	}
}

func TestCreatePullRequest(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/acme/site/pulls", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"number": 12, "html_url": "https://github.com/acme/site/pull/12"}`))
	})
	client, _ := newClient(t, mux)

	got := handler(t, "gh_create_pull_request", Tools(client))(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "acme/site", "title": "Add meta description", "body": "Adds one.", "head": "webster/fix-meta",
	}})
	if want := "Pull request created: https://github.com/acme/site/pull/12"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if body["base"] != "main" || body["head"] != "webster/fix-meta" {
		t.Errorf("body = %v", body)
	}
}

func TestBadRepo(t *testing.T) {
	client, calls := newClient(t, http.NotFoundHandler())
	got := handler(t, "gh_create_pull_request", Tools(client))(t.Context(), toolcall.ToolCall{Args: map[string]any{
		"repo": "site", "title": "t", "body": "b", "head": "h",
	}})
	if !strings.HasPrefix(got, "Error creating pull request in site: repository must be in 'owner/repo' format") {
		t.Errorf("got %q", got)
	}
	if calls.Load() != 0 {
		t.Error("bad repo issued a request")
	}
}
