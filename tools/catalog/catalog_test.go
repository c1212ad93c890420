/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package catalog

import (
	"testing"

	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/browser"
	"chainguard.dev/webster/store/memory"
	"chainguard.dev/webster/tools/pagespeed"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-github/v84/github"
)

func names(tools []toolcall.Tool) []string {
	var out []string
	for _, d := range toolcall.Definitions(tools) {
		out = append(out, d.Name)
	}
	return out
}

func TestVisibility(t *testing.T) {
	c := Build(Deps{
		EntryID:     1,
		Browser:     browser.NewSession(browser.Config{}),
		PageSpeed:   pagespeed.New(""),
		Diagnostics: memory.New(),
		RepoTools:   []toolcall.Tool{{Def: toolcall.Definition{Name: "get_file_contents"}}},
		GitHub:      github.NewClient(nil),
	})

	analyze := []string{
		"open_page", "click_element", "type_into", "press_key", "wait_for_selector",
		"get_current_page_text", "get_current_page_url", "fetch_page", "get_page_metadata",
		"get_page_speed", "submit_diagnostic", "get_file_contents",
	}
	if diff := cmp.Diff(analyze, names(c.Visible(false))); diff != "" {
		t.Errorf("Visible(false) mismatch (-want +got):\n%s", diff)
	}

	fix := append(analyze, "gh_create_branch", "gh_create_or_update_file", "gh_create_pull_request")
	if diff := cmp.Diff(fix, names(c.Visible(true))); diff != "" {
		t.Errorf("Visible(true) mismatch (-want +got):\n%s", diff)
	}

	// Diagnostic submission stays visible in fix mode.
	if _, err := toolcall.Index(c.Visible(true)); err != nil {
		t.Errorf("Index() = %v", err)
	}
}

func TestWriteToolsNeedClient(t *testing.T) {
	c := Build(Deps{Browser: browser.NewSession(browser.Config{}), Diagnostics: memory.New()})
	for _, n := range names(c.Visible(true)) {
		if n == "gh_create_branch" {
			t.Fatal("write tools present without a GitHub client")
		}
	}
}
