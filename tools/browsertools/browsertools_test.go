/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browsertools

import (
	"context"
	"errors"
	"testing"
	"time"

	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/browser"
	"github.com/google/go-cmp/cmp"
)

type fakeBrowser struct {
	url      string
	err      error
	typed    []any
	waited   time.Duration
	maxChars int
	md       browser.Metadata
}

func (f *fakeBrowser) Open(_ context.Context, url string) (browser.PageInfo, error) {
	if f.err != nil {
		return browser.PageInfo{}, f.err
	}
	f.url = url
	return browser.PageInfo{URL: url}, nil
}

func (f *fakeBrowser) Click(context.Context, string) (string, error) { return f.url, f.err }

func (f *fakeBrowser) TypeInto(_ context.Context, selector, text string, clearFirst, pressEnter bool) error {
	f.typed = []any{selector, text, clearFirst, pressEnter}
	return f.err
}

func (f *fakeBrowser) PressKey(context.Context, string) (string, error) { return f.url, f.err }

func (f *fakeBrowser) WaitFor(_ context.Context, _ string, timeout time.Duration) error {
	f.waited = timeout
	return f.err
}

func (f *fakeBrowser) VisibleText(_ context.Context, maxChars int) (string, error) {
	f.maxChars = maxChars
	return "Welcome", f.err
}

func (f *fakeBrowser) CurrentURL(context.Context) (string, error) { return f.url, f.err }

func (f *fakeBrowser) Fetch(context.Context, string) (string, error) { return "About us", f.err }

func (f *fakeBrowser) Metadata(context.Context, string) (browser.Metadata, string, error) {
	return f.md, f.url, f.err
}

func call(t *testing.T, tools []toolcall.Tool, name string, args map[string]any) string {
	t.Helper()
	byName, err := toolcall.Index(tools)
	if err != nil {
		t.Fatal(err)
	}
	tool, ok := byName[name]
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	return tool.Handler(t.Context(), toolcall.ToolCall{Name: name, Args: args})
}

func TestToolOrder(t *testing.T) {
	var names []string
	for _, d := range toolcall.Definitions(Tools(&fakeBrowser{})) {
		names = append(names, d.Name)
	}
	want := []string{
		"open_page", "click_element", "type_into", "press_key", "wait_for_selector",
		"get_current_page_text", "get_current_page_url", "fetch_page", "get_page_metadata",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tool order mismatch (-want +got):\n%s", diff)
	}
}

func TestResults(t *testing.T) {
	fb := &fakeBrowser{}
	tools := Tools(fb)

	if got, want := call(t, tools, "get_current_page_url", nil), "No URL loaded yet."; got != want {
		t.Errorf("get_current_page_url = %q, want %q", got, want)
	}
	if got, want := call(t, tools, "open_page", map[string]any{"url": "https://example.com"}),
		"Opened page.\nURL: https://example.com\nTitle: missing"; got != want {
		t.Errorf("open_page = %q, want %q", got, want)
	}
	if got, want := call(t, tools, "click_element", map[string]any{"selector": "#go"}),
		"Clicked '#go'.\nCurrent URL: https://example.com"; got != want {
		t.Errorf("click_element = %q, want %q", got, want)
	}
	if got, want := call(t, tools, "type_into", map[string]any{"selector": "#q", "text": "hi"}),
		"Typed into '#q'."; got != want {
		t.Errorf("type_into = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]any{"#q", "hi", true, false}, fb.typed); diff != "" {
		t.Errorf("type_into defaults mismatch (-want +got):\n%s", diff)
	}
	if got, want := call(t, tools, "press_key", map[string]any{"key": "Enter"}),
		"Pressed key 'Enter'.\nCurrent URL: https://example.com"; got != want {
		t.Errorf("press_key = %q, want %q", got, want)
	}
	if got, want := call(t, tools, "wait_for_selector", map[string]any{"selector": "h1"}),
		"Selector became visible: 'h1'"; got != want {
		t.Errorf("wait_for_selector = %q, want %q", got, want)
	}
	if fb.waited != 10*time.Second {
		t.Errorf("wait_for_selector default timeout = %v", fb.waited)
	}
	call(t, tools, "get_current_page_text", map[string]any{})
	if fb.maxChars != browser.DefaultMaxChars {
		t.Errorf("get_current_page_text default max_chars = %d", fb.maxChars)
	}
	if got := call(t, tools, "fetch_page", map[string]any{"url": "https://example.com/about"}); got != "About us" {
		t.Errorf("fetch_page = %q", got)
	}
}

func TestErrors(t *testing.T) {
	tools := Tools(&fakeBrowser{err: errors.New("timeout")})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"open_page", map[string]any{"url": "https://x.test"}, "Error opening https://x.test: timeout"},
		{"click_element", map[string]any{"selector": "#a"}, "Error clicking '#a': timeout"},
		{"type_into", map[string]any{"selector": "#a", "text": "t"}, "Error typing into '#a': timeout"},
		{"press_key", map[string]any{"key": "Tab"}, "Error pressing key 'Tab': timeout"},
		{"wait_for_selector", map[string]any{"selector": "#a"}, "Error waiting for selector '#a': timeout"},
		{"get_current_page_text", nil, "Error reading current page text: timeout"},
		{"fetch_page", map[string]any{"url": "https://x.test"}, "Error fetching https://x.test: timeout"},
		{"get_page_metadata", nil, "Error fetching metadata for current page: timeout"},
		{"get_page_metadata", map[string]any{"url": "https://x.test"}, "Error fetching metadata for https://x.test: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := call(t, tools, tt.name, tt.args); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	got := FormatMetadata(browser.Metadata{
		Title:     "Acme",
		Canonical: "https://acme.test/",
		OpenGraph: map[string]string{"og:type": "website", "og:title": "Acme Inc"},
		H1:        []string{"Welcome"},
		H2:        []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
	})
	want := `Title: Acme
Meta description: missing
Canonical URL: https://acme.test/
H1 tags (1): ["Welcome"]
H2 tags (9): ["a", "b", "c", "d", "e", "f", "g", "h"]
og:title: Acme Inc
og:type: website`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormatMetadata() mismatch (-want +got):\n%s", diff)
	}
}
