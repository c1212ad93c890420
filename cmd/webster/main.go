/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the Webster API server and the verification dispatcher.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/api"
	"chainguard.dev/webster/browser"
	"chainguard.dev/webster/ghclient"
	"chainguard.dev/webster/runner"
	"chainguard.dev/webster/store/sqlstore"
	"chainguard.dev/webster/tools/githubread"
	"chainguard.dev/webster/tools/pagespeed"
	"chainguard.dev/webster/verification"
	"chainguard.dev/webster/workqueue"
	"chainguard.dev/webster/workqueue/dispatcher"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type config struct {
	Port        int    `env:"PORT,default=8080"`
	FrontendURL string `env:"FRONTEND_URL,required"`
	BackendURL  string `env:"BACKEND_URL,default=http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL,default=sqlite://webster.db"`

	JWTSecret  string        `env:"JWT_SECRET,required"`
	SessionTTL time.Duration `env:"SESSION_TTL,default=24h"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID,required"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET,required"`
	GitHubAppSlug      string `env:"GITHUB_APP_SLUG"`
	GitHubMCPURL       string `env:"GITHUB_MCP_URL,default=https://api.githubcopilot.com/mcp/readonly"`

	Model model

	PageSpeedAPIKey string `env:"PAGESPEED_API_KEY"`
	BrowserBin      string `env:"BROWSER_BIN"`
	BrowserHeadless bool   `env:"BROWSER_HEADLESS,default=true"`

	MaxGraphSteps           int `env:"MAX_GRAPH_STEPS,default=100"`
	VerificationConcurrency int `env:"VERIFICATION_CONCURRENCY,default=4"`
}

// retryLimit bounds attempts per queued verification before it is dead-lettered.
const retryLimit = 3

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}
	cfg.FrontendURL = strings.TrimSuffix(cfg.FrontendURL, "/")
	cfg.BackendURL = strings.TrimSuffix(cfg.BackendURL, "/")

	exporter, err := promexporter.New()
	if err != nil {
		clog.FatalContextf(ctx, "creating prometheus exporter: %v", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			clog.WarnContextf(ctx, "shutting down meter provider: %v", err)
		}
	}()

	st, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		clog.FatalContextf(ctx, "opening store: %v", err)
	}
	defer st.Close()

	reasoner, err := cfg.Model.reasoner(ctx)
	if err != nil {
		clog.FatalContextf(ctx, "creating reasoner: %v", err)
	}
	graph, err := agentgraph.New(reasoner, agentgraph.WithMaxSteps(cfg.MaxGraphSteps))
	if err != nil {
		clog.FatalContextf(ctx, "creating agent graph: %v", err)
	}

	clients := ghclient.Factory{}
	runs := &runner.Runner{
		Store: st,
		Graph: graph,
		NewBrowser: func() runner.Browser {
			return browser.NewSession(browser.Config{Bin: cfg.BrowserBin, Headless: cfg.BrowserHeadless})
		},
		PageSpeed: pagespeed.New(cfg.PageSpeedAPIKey),
		RepoTools: repoTools(cfg.GitHubMCPURL),
		GitHub:    clients,
	}

	queue := workqueue.NewInMemory()
	pipeline := &verification.Pipeline{
		Store:    st,
		Runs:     runs,
		Notifier: &verification.Notifier{
			HTTPClient: &http.Client{Timeout: verification.NotifyTimeout},
			Limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 5),
		},
	}

	srv := &api.Server{
		Store:       st,
		Runs:        runs,
		Receiver:    &verification.Receiver{Store: st, Scheduler: verification.QueueScheduler{Queue: queue}},
		Hooks:       &verification.Hooks{GitHub: clients, CallbackURL: cfg.BackendURL + "/webhook/github"},
		Sessions:    &api.Sessions{Secret: []byte(cfg.JWTSecret), TTL: cfg.SessionTTL},
		OAuth:       api.OAuthConfig(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.FrontendURL),
		GitHub:      clients,
		FrontendURL: cfg.FrontendURL,
		AppSlug:     cfg.GitHubAppSlug,
		Metrics:     promhttp.Handler(),
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		clog.InfoContextf(ctx, "Starting verification dispatcher with concurrency %d", cfg.VerificationConcurrency)
		if err := dispatcher.Serve(ctx, queue, cfg.VerificationConcurrency, time.Second, pipeline.Process, retryLimit); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("verification dispatcher: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		clog.InfoContextf(ctx, "Starting Webster API on port %d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := eg.Wait(); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

// repoTools connects the read-only GitHub MCP server with the entry
// owner's token.
func repoTools(url string) runner.RepoTools {
	return func(ctx context.Context, token string) ([]toolcall.Tool, func() error, error) {
		session, err := githubread.Connect(ctx, url, token)
		if err != nil {
			return nil, nil, err
		}
		tools, err := session.Tools(ctx)
		if err != nil {
			_ = session.Close()
			return nil, nil, err
		}
		return tools, session.Close, nil
	}
}
