/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package runner composes one agent loop run for a website entry: it loads
// the conversation, binds the run-scoped tools, drives the graph, and
// persists the conclusion.
package runner

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/agenttrace"
	"chainguard.dev/webster/agents/metrics"
	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/store"
	"chainguard.dev/webster/tools/browsertools"
	"chainguard.dev/webster/tools/catalog"
	"chainguard.dev/webster/tools/pagespeed"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// Apology is the conclusion delivered when a run fails before concluding.
const Apology = "Sorry, something went wrong while analyzing the website. Please try again."

const (
	TriggerChat         = "chat"
	TriggerVerification = "verification"
)

// Browser is a run-scoped browser session.
type Browser interface {
	browsertools.Browser
	Close(ctx context.Context)
}

// RepoTools connects the read-only repository tools for one run. The
// returned closer is called during teardown.
type RepoTools func(ctx context.Context, token string) ([]toolcall.Tool, func() error, error)

// GitHubClients creates a REST client authenticated as the entry owner.
type GitHubClients interface {
	New(ctx context.Context, token string) (*github.Client, error)
}

// Runner runs the agent graph against stored website entries.
type Runner struct {
	Store      store.Store
	Graph      *agentgraph.Graph
	NewBrowser func() Browser
	PageSpeed  *pagespeed.Client

	// RepoTools and GitHub are optional. Without them a run gets no
	// repository tools.
	RepoTools RepoTools
	GitHub    GitHubClients
}

// Request selects which run to perform.
type Request struct {
	EntryID int64
	FixMode bool

	// Automated marks runs started by the verification pipeline. It is
	// copied onto the persisted conclusion.
	Automated bool
}

func (r Request) mode() string {
	if r.FixMode {
		return "fix"
	}
	return "analyze"
}

func (r Request) trigger() string {
	if r.Automated {
		return TriggerVerification
	}
	return TriggerChat
}

// Run executes one loop over the entry's current history. The caller has
// already appended the message that starts the run.
//
// A done event is always emitted last, even when the run fails; in that
// case its content is Apology and the failure is returned. Conclusions of
// runs that started are persisted, apologies included.
func (r *Runner) Run(ctx context.Context, req Request, emit func(agentgraph.Event)) (string, error) {
	if emit == nil {
		emit = func(agentgraph.Event) {}
	}
	fail := func(err error) (string, error) {
		clog.FromContext(ctx).With("entry_id", req.EntryID, "error", err).Error("Agent run could not start")
		emit(agentgraph.Event{Type: agentgraph.EventDone, Content: Apology})
		return Apology, err
	}

	entry, err := r.Store.GetEntry(ctx, req.EntryID)
	if err != nil {
		return fail(fmt.Errorf("loading entry %d: %w", req.EntryID, err))
	}
	ctx = metrics.WithRun(ctx, req.mode(), req.trigger())
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		EntryID:    entry.ID,
		WebsiteURL: entry.WebsiteURL,
		RepoName:   entry.RepoName,
		Mode:       req.mode(),
		Trigger:    req.trigger(),
	})
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("entry_id", entry.ID, "mode", req.mode()))
	log := clog.FromContext(ctx)

	stored, err := r.Store.ListMessages(ctx, entry.ID)
	if err != nil {
		return fail(fmt.Errorf("loading history: %w", err))
	}
	state := &agentgraph.State{
		History:    History(stored),
		WebsiteURL: entry.WebsiteURL,
		RepoName:   entry.RepoName,
		FixMode:    req.FixMode,
	}

	tools, teardown := r.bind(ctx, entry)
	runErr := r.Graph.Run(ctx, state, agentgraph.Invocation{
		Tools:    tools.Visible(req.FixMode),
		Emit:     emit,
		Teardown: teardown,
	})

	conclusion := state.Conclusion
	if runErr != nil {
		log.With("error", runErr).Error("Agent run failed")
		conclusion = Apology
		emit(agentgraph.Event{Type: agentgraph.EventDone, Content: conclusion})
	}

	if _, err := r.Store.AppendMessage(ctx, store.Message{
		EntryID:     entry.ID,
		Role:        store.RoleAI,
		Content:     conclusion,
		IsAutomated: req.Automated,
		IsFixAction: req.FixMode,
	}); err != nil {
		return conclusion, errors.Join(runErr, fmt.Errorf("persisting conclusion: %w", err))
	}
	return conclusion, runErr
}

// bind builds the run's tool catalog and the teardown that releases it.
// Repository access failures are logged and the run continues without it.
func (r *Runner) bind(ctx context.Context, entry store.Entry) (toolcall.Catalog, func()) {
	log := clog.FromContext(ctx)
	b := r.NewBrowser()
	deps := catalog.Deps{
		EntryID:     entry.ID,
		Browser:     b,
		PageSpeed:   r.PageSpeed,
		Diagnostics: r.Store,
	}

	var closeRepo func() error
	if r.RepoTools != nil || r.GitHub != nil {
		user, err := r.Store.GetUser(ctx, entry.UserID)
		switch {
		case err != nil:
			log.With("error", err).Warn("Could not load entry owner, continuing without repository tools")
		case r.RepoTools != nil:
			tools, closer, err := r.RepoTools(ctx, user.GitHubToken)
			if err != nil {
				log.With("error", err).Warn("Could not connect repository tools, continuing without them")
			} else {
				deps.RepoTools, closeRepo = tools, closer
			}
		}
		if err == nil && r.GitHub != nil {
			client, err := r.GitHub.New(ctx, user.GitHubToken)
			if err != nil {
				log.With("error", err).Warn("Could not create GitHub client")
			} else {
				deps.GitHub = client
			}
		}
	}

	teardown := func() {
		b.Close(context.WithoutCancel(ctx))
		if closeRepo != nil {
			if err := closeRepo(); err != nil {
				log.With("error", err).Warn("Closing repository tools")
			}
		}
	}
	return catalog.Build(deps), teardown
}

// History converts the stored conversation into graph messages.
func History(msgs []store.Message) []agentgraph.Message {
	out := make([]agentgraph.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case store.RoleHuman:
			out = append(out, agentgraph.HumanMessage(m.Content))
		case store.RoleAI:
			out = append(out, agentgraph.AIMessage(m.Content))
		}
	}
	return out
}
