/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

const (
	// ActionTimeout bounds element waits and interactions.
	ActionTimeout = 10 * time.Second
	// NavigationTimeout bounds page loads.
	NavigationTimeout = 30 * time.Second
	// DefaultSettleTimeout bounds the wait for network quiescence.
	DefaultSettleTimeout = 8 * time.Second

	// idleWindow is how long the network must stay quiet to count as idle.
	idleWindow = 500 * time.Millisecond
)

// Config controls how the browser process is launched.
type Config struct {
	// Bin is the Chrome binary. Empty lets rod find or download one.
	Bin string
	// Headless runs Chrome without a window.
	Headless bool
	// ControlURL connects to an already running Chrome instead of launching one.
	ControlURL string
}

// Session holds the browser process, one browsing context and the
// interactive page. Everything is created lazily.
type Session struct {
	cfg Config

	launcher *launcher.Launcher
	browser  *rod.Browser
	incog    *rod.Browser
	page     *rod.Page
	closed   bool
}

// NewSession returns a Session that launches nothing until it is used.
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

// ErrClosed is returned when a Session is used after Close.
var ErrClosed = errors.New("browser session is closed")

// browsingContext starts Chrome and an incognito context if needed.
func (s *Session) browsingContext(ctx context.Context) (*rod.Browser, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.incog != nil {
		return s.incog, nil
	}

	controlURL := s.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(s.cfg.Headless).Set(flags.NoSandbox)
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		s.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.killLauncher()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = b

	incog, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browsing context: %w", err)
	}
	s.incog = incog
	clog.FromContext(ctx).With("control_url", controlURL).Info("Browser started")
	return incog, nil
}

// EnsurePage returns the interactive page, creating it when there is none or
// the previous one has been closed.
func (s *Session) EnsurePage(ctx context.Context) (*rod.Page, error) {
	if s.page != nil && alive(s.page) {
		return s.page, nil
	}
	incog, err := s.browsingContext(ctx)
	if err != nil {
		return nil, err
	}
	clog.FromContext(ctx).Info("Creating new interactive page")
	page, err := incog.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.page = page
	return page, nil
}

func alive(p *rod.Page) bool {
	_, err := p.Info()
	return err == nil
}

// Settle waits up to timeout for the page's network to go quiet. It never
// fails: pages that keep polling are treated as settled once timeout passes.
func Settle(ctx context.Context, page *rod.Page, timeout time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			clog.FromContext(ctx).With("panic", r).Debug("Settle interrupted")
		}
	}()
	p := page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	wait := p.WaitRequestIdle(idleWindow, nil, nil, nil)
	wait()
}

// Close releases the interactive page, the browsing context, the browser
// and the launched process, in that order. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	log := clog.FromContext(ctx)

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			log.With("error", err).Debug("Closing interactive page")
		}
		s.page = nil
	}
	if s.incog != nil {
		if err := s.incog.Close(); err != nil {
			log.With("error", err).Debug("Closing browsing context")
		}
		s.incog = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.With("error", err).Debug("Closing browser")
		}
		s.browser = nil
	}
	s.killLauncher()
	log.Info("Browser session closed")
}

func (s *Session) killLauncher() {
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
}
