/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package browsertools exposes a browser session to the model as tools.
package browsertools

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/browser"
	"github.com/chainguard-dev/clog"
)

// Browser is the subset of *browser.Session the tools drive.
type Browser interface {
	Open(ctx context.Context, url string) (browser.PageInfo, error)
	Click(ctx context.Context, selector string) (string, error)
	TypeInto(ctx context.Context, selector, text string, clearFirst, pressEnter bool) error
	PressKey(ctx context.Context, key string) (string, error)
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	VisibleText(ctx context.Context, maxChars int) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	Fetch(ctx context.Context, url string) (string, error)
	Metadata(ctx context.Context, url string) (browser.Metadata, string, error)
}

var _ Browser = (*browser.Session)(nil)

type openPageArgs struct {
	URL string `json:"url" jsonschema:"required,description=Full URL to open."`
}

type selectorArgs struct {
	Selector string `json:"selector" jsonschema:"required,description=CSS selector for the element to click."`
}

type typeIntoArgs struct {
	Selector   string `json:"selector" jsonschema:"required,description=CSS selector for the target field."`
	Text       string `json:"text" jsonschema:"required,description=Text to input."`
	ClearFirst bool   `json:"clear_first" jsonschema:"description=If true replace existing content; otherwise append."`
	PressEnter bool   `json:"press_enter" jsonschema:"description=If true press Enter after typing."`
}

type pressKeyArgs struct {
	Key string `json:"key" jsonschema:"required,description=Key name such as Enter or Tab or Escape or ArrowDown."`
}

type waitArgs struct {
	Selector  string `json:"selector" jsonschema:"required,description=CSS selector to wait for."`
	TimeoutMS int    `json:"timeout_ms" jsonschema:"description=Max wait time in milliseconds."`
}

type textArgs struct {
	MaxChars int `json:"max_chars" jsonschema:"description=Maximum number of characters to return."`
}

type noArgs struct{}

type fetchArgs struct {
	URL string `json:"url" jsonschema:"required,description=The full URL to fetch (e.g. https://example.com/about)."`
}

type metadataArgs struct {
	URL string `json:"url" jsonschema:"description=Optional URL to open first. If omitted the current interactive page is inspected."`
}

// Tools returns the browser tools bound to b, in catalog order.
func Tools(b Browser) []toolcall.Tool {
	return []toolcall.Tool{
		toolcall.Typed("open_page",
			"Open a URL in an interactive browser tab and keep that tab alive for follow-up actions. Use this before clicking or typing. Returns the loaded URL and page title, or an error message.",
			openPageArgs{},
			func(ctx context.Context, a openPageArgs) string {
				pi, err := b.Open(ctx, a.URL)
				if err != nil {
					return failed(ctx, err, "Error opening %s: %v", a.URL, err)
				}
				return fmt.Sprintf("Opened page.\nURL: %s\nTitle: %s", pi.URL, orMissing(pi.Title))
			}),

		toolcall.Typed("click_element",
			`Click an element on the currently open interactive page. Use CSS selectors (e.g. 'button[type=submit]', 'a[href="/pricing"]', '[data-testid="menu"]'). Returns confirmation and the current URL, or an error message.`,
			selectorArgs{},
			func(ctx context.Context, a selectorArgs) string {
				url, err := b.Click(ctx, a.Selector)
				if err != nil {
					return failed(ctx, err, "Error clicking '%s': %v", a.Selector, err)
				}
				return fmt.Sprintf("Clicked '%s'.\nCurrent URL: %s", a.Selector, url)
			}),

		toolcall.Typed("type_into",
			"Type text into an input-like element on the currently open interactive page. Returns a confirmation message, or an error message.",
			typeIntoArgs{ClearFirst: true},
			func(ctx context.Context, a typeIntoArgs) string {
				if err := b.TypeInto(ctx, a.Selector, a.Text, a.ClearFirst, a.PressEnter); err != nil {
					return failed(ctx, err, "Error typing into '%s': %v", a.Selector, err)
				}
				return fmt.Sprintf("Typed into '%s'.", a.Selector)
			}),

		toolcall.Typed("press_key",
			"Press a keyboard key on the currently open interactive page. Returns confirmation and the current URL, or an error message.",
			pressKeyArgs{},
			func(ctx context.Context, a pressKeyArgs) string {
				url, err := b.PressKey(ctx, a.Key)
				if err != nil {
					return failed(ctx, err, "Error pressing key '%s': %v", a.Key, err)
				}
				return fmt.Sprintf("Pressed key '%s'.\nCurrent URL: %s", a.Key, url)
			}),

		toolcall.Typed("wait_for_selector",
			"Wait for a selector to become visible on the currently open interactive page. Returns a confirmation message, or an error message.",
			waitArgs{TimeoutMS: int(browser.ActionTimeout / time.Millisecond)},
			func(ctx context.Context, a waitArgs) string {
				if err := b.WaitFor(ctx, a.Selector, time.Duration(a.TimeoutMS)*time.Millisecond); err != nil {
					return failed(ctx, err, "Error waiting for selector '%s': %v", a.Selector, err)
				}
				return fmt.Sprintf("Selector became visible: '%s'", a.Selector)
			}),

		toolcall.Typed("get_current_page_text",
			"Read visible body text from the currently open interactive page. Returns the visible page text, or an error message.",
			textArgs{MaxChars: browser.DefaultMaxChars},
			func(ctx context.Context, a textArgs) string {
				text, err := b.VisibleText(ctx, a.MaxChars)
				if err != nil {
					return failed(ctx, err, "Error reading current page text: %v", err)
				}
				return text
			}),

		toolcall.Typed("get_current_page_url",
			"Return the URL of the currently open interactive page.",
			noArgs{},
			func(ctx context.Context, _ noArgs) string {
				url, err := b.CurrentURL(ctx)
				if err != nil || url == "" {
					return "No URL loaded yet."
				}
				return url
			}),

		toolcall.Typed("fetch_page",
			"Fetch the fully rendered content of a web page and return it as readable text. Uses a real browser so JavaScript-rendered content is included. Use this to read the actual content of any page on the website.",
			fetchArgs{},
			func(ctx context.Context, a fetchArgs) string {
				text, err := b.Fetch(ctx, a.URL)
				if err != nil {
					return failed(ctx, err, "Error fetching %s: %v", a.URL, err)
				}
				return text
			}),

		toolcall.Typed("get_page_metadata",
			"Return SEO metadata (title, meta description, Open Graph tags, canonical URL, headings). Uses a real browser so dynamically injected meta tags are included.",
			metadataArgs{},
			func(ctx context.Context, a metadataArgs) string {
				md, _, err := b.Metadata(ctx, a.URL)
				if err != nil {
					target := a.URL
					if target == "" {
						target = "current page"
					}
					return failed(ctx, err, "Error fetching metadata for %s: %v", target, err)
				}
				return FormatMetadata(md)
			}),
	}
}

// FormatMetadata renders metadata as the summary the model reads.
func FormatMetadata(md browser.Metadata) string {
	parts := []string{
		"Title: " + orMissing(md.Title),
		"Meta description: " + orMissing(md.Description),
		"Canonical URL: " + orMissing(md.Canonical),
		fmt.Sprintf("H1 tags (%d): %s", len(md.H1), quoted(md.H1, 5)),
		fmt.Sprintf("H2 tags (%d): %s", len(md.H2), quoted(md.H2, 8)),
	}
	for _, prop := range slices.Sorted(maps.Keys(md.OpenGraph)) {
		parts = append(parts, fmt.Sprintf("%s: %s", prop, md.OpenGraph[prop]))
	}
	return strings.Join(parts, "\n")
}

func quoted(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	q := make([]string, 0, len(items))
	for _, item := range items {
		q = append(q, fmt.Sprintf("%q", item))
	}
	return "[" + strings.Join(q, ", ") + "]"
}

func orMissing(s string) string {
	if s == "" {
		return "missing"
	}
	return s
}

func failed(ctx context.Context, err error, format string, args ...any) string {
	clog.FromContext(ctx).With("error", err).Warn("Browser action failed")
	return fmt.Sprintf(format, args...)
}
