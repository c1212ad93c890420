/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// PageInfo identifies the page after a navigation or interaction.
type PageInfo struct {
	URL   string
	Title string
}

// Metadata is the SEO-relevant head and heading content of a page.
type Metadata struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical"`
	OpenGraph   map[string]string `json:"og"`
	H1          []string          `json:"h1"`
	H2          []string          `json:"h2"`
}

const metadataJS = `() => JSON.stringify({
	title: document.title || "",
	description: document.querySelector('meta[name="description"]')?.content ?? "",
	canonical: document.querySelector('link[rel="canonical"]')?.href ?? "",
	og: Object.fromEntries(
		[...document.querySelectorAll('meta[property^="og:"]')]
			.map(el => [el.getAttribute('property'), el.getAttribute('content') ?? ""])
	),
	h1: [...document.querySelectorAll('h1')].map(h => h.innerText.trim()),
	h2: [...document.querySelectorAll('h2')].map(h => h.innerText.trim()),
})`

var keys = map[string]input.Key{
	"Enter":      input.Enter,
	"Tab":        input.Tab,
	"Escape":     input.Escape,
	"Backspace":  input.Backspace,
	"Space":      input.Space,
	"Delete":     input.Delete,
	"ArrowUp":    input.ArrowUp,
	"ArrowDown":  input.ArrowDown,
	"ArrowLeft":  input.ArrowLeft,
	"ArrowRight": input.ArrowRight,
	"Home":       input.Home,
	"End":        input.End,
	"PageUp":     input.PageUp,
	"PageDown":   input.PageDown,
}

// Open navigates the interactive page to url and waits for it to settle.
func (s *Session) Open(ctx context.Context, url string) (PageInfo, error) {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return PageInfo{}, err
	}
	if err := navigate(ctx, page, url); err != nil {
		return PageInfo{}, err
	}
	Settle(ctx, page, DefaultSettleTimeout)
	return info(page)
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) (string, error) {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return "", err
	}
	el, err := visibleElement(ctx, page, selector)
	if err != nil {
		return "", err
	}
	if err := el.Context(ctx).Timeout(ActionTimeout).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("click: %w", err)
	}
	Settle(ctx, page, 6*time.Second)
	return s.CurrentURL(ctx)
}

// TypeInto types text into the first element matching selector. With
// clearFirst the existing value is replaced, otherwise text is appended.
func (s *Session) TypeInto(ctx context.Context, selector, text string, clearFirst, pressEnter bool) error {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return err
	}
	el, err := visibleElement(ctx, page, selector)
	if err != nil {
		return err
	}
	el = el.Context(ctx).Timeout(ActionTimeout)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	if clearFirst {
		if err := el.SelectAllText(); err != nil {
			return fmt.Errorf("select existing text: %w", err)
		}
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if pressEnter {
		if err := page.Keyboard.Press(input.Enter); err != nil {
			return fmt.Errorf("press Enter: %w", err)
		}
		Settle(ctx, page, 6*time.Second)
	}
	return nil
}

// PressKey presses a named key, or a single character, on the interactive page.
func (s *Session) PressKey(ctx context.Context, key string) (string, error) {
	k, ok := keys[key]
	if !ok {
		if r := []rune(key); len(r) == 1 {
			k = input.Key(r[0])
		} else {
			return "", fmt.Errorf("unknown key %q", key)
		}
	}
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return "", err
	}
	if err := page.Keyboard.Press(k); err != nil {
		return "", err
	}
	Settle(ctx, page, 4*time.Second)
	return s.CurrentURL(ctx)
}

// WaitFor waits up to timeout for selector to become visible.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return err
	}
	el, err := page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Context(ctx).Timeout(timeout).WaitVisible()
}

// VisibleText returns the body's rendered text, compacted to maxChars.
func (s *Session) VisibleText(ctx context.Context, maxChars int) (string, error) {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return "", err
	}
	return bodyText(ctx, page, maxChars)
}

// CurrentURL returns the interactive page's URL, empty before any navigation.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return "", err
	}
	pi, err := info(page)
	if err != nil {
		return "", err
	}
	if pi.URL == "about:blank" {
		return "", nil
	}
	return pi.URL, nil
}

// Metadata reads SEO metadata. A non-empty url is opened on the interactive
// page first, otherwise the current page is inspected.
func (s *Session) Metadata(ctx context.Context, url string) (Metadata, string, error) {
	page, err := s.EnsurePage(ctx)
	if err != nil {
		return Metadata{}, "", err
	}
	if url != "" {
		if err := navigate(ctx, page, url); err != nil {
			return Metadata{}, "", err
		}
		Settle(ctx, page, DefaultSettleTimeout)
	}
	res, err := page.Context(ctx).Timeout(ActionTimeout).Eval(metadataJS)
	if err != nil {
		return Metadata{}, "", fmt.Errorf("evaluate metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal([]byte(res.Value.Str()), &md); err != nil {
		return Metadata{}, "", fmt.Errorf("decode metadata: %w", err)
	}
	pi, _ := info(page)
	return md, pi.URL, nil
}

// Fetch loads url in a throwaway page and returns its compacted visible text.
// The interactive page is left untouched and the throwaway page is always closed.
func (s *Session) Fetch(ctx context.Context, url string) (string, error) {
	incog, err := s.browsingContext(ctx)
	if err != nil {
		return "", err
	}
	page, err := incog.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := navigate(ctx, page, url); err != nil {
		return "", err
	}
	Settle(ctx, page, NavigationTimeout)
	return bodyText(ctx, page, DefaultMaxChars)
}

func navigate(ctx context.Context, page *rod.Page, url string) error {
	p := page.Context(ctx).Timeout(NavigationTimeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	return nil
}

func visibleElement(ctx context.Context, page *rod.Page, selector string) (*rod.Element, error) {
	el, err := page.Context(ctx).Timeout(ActionTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	if err := el.Context(ctx).Timeout(ActionTimeout).WaitVisible(); err != nil {
		return nil, fmt.Errorf("wait for %q to be visible: %w", selector, err)
	}
	return el, nil
}

func bodyText(ctx context.Context, page *rod.Page, maxChars int) (string, error) {
	body, err := page.Context(ctx).Timeout(ActionTimeout).Element("body")
	if err != nil {
		return "", err
	}
	text, err := body.Text()
	if err != nil {
		return "", err
	}
	return CompactText(text, maxChars), nil
}

func info(page *rod.Page) (PageInfo, error) {
	ti, err := page.Info()
	if err != nil {
		return PageInfo{}, err
	}
	return PageInfo{URL: ti.URL, Title: ti.Title}, nil
}
