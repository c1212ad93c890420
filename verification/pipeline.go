/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/webster/agents/agentgraph"
	"chainguard.dev/webster/agents/prompts"
	"chainguard.dev/webster/runner"
	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
)

// Runs performs one agent loop run over an entry's stored history.
type Runs interface {
	Run(ctx context.Context, req runner.Request, emit func(agentgraph.Event)) (string, error)
}

// Pipeline runs verification for one entry at a time.
type Pipeline struct {
	Store    store.Store
	Runs     Runs
	Notifier *Notifier
}

// Verify analyzes the entry once and handles whatever it newly found.
// It returns the new diagnostics.
func (p *Pipeline) Verify(ctx context.Context, entryID int64) ([]store.Diagnostic, error) {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("entry_id", entryID))
	log := clog.FromContext(ctx)

	entry, err := p.Store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("loading entry: %w", err)
	}
	settings, err := p.Store.GetVerificationSettings(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("loading verification settings: %w", err)
	}

	before, err := p.Store.ListActiveDiagnostics(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("snapshotting diagnostics: %w", err)
	}

	trigger, err := prompts.VerificationTrigger(Scope(settings.PathsInScope))
	if err != nil {
		return nil, err
	}
	if _, err := p.Store.AppendMessage(ctx, store.Message{
		EntryID:     entryID,
		Role:        store.RoleHuman,
		Content:     trigger,
		IsAutomated: true,
	}); err != nil {
		return nil, fmt.Errorf("appending trigger message: %w", err)
	}

	log.Info("Starting verification run")
	if _, err := p.Runs.Run(ctx, runner.Request{EntryID: entryID, Automated: true}, nil); err != nil {
		// Diagnostics submitted before the failure still count.
		log.With("error", err).Warn("Verification run failed")
		verificationRuns.WithLabelValues("failed").Inc()
	} else {
		verificationRuns.WithLabelValues("concluded").Inc()
	}

	after, err := p.Store.ListActiveDiagnostics(ctx, entryID)
	if err != nil {
		return nil, &recordedError{err: fmt.Errorf("listing diagnostics: %w", err)}
	}
	fresh := NewDiagnostics(before, after, settings.MinSeverity)
	log.With("new", len(fresh)).Info("Verification run finished")
	if len(fresh) == 0 {
		return nil, nil
	}

	if p.Notifier != nil {
		p.Notifier.Notify(ctx, settings, entry.WebsiteURL, fresh)
	}
	if settings.AutoFix {
		p.autoFix(ctx, entryID, fresh)
	}
	return fresh, nil
}

// recordedError marks a failure after the trigger message was persisted.
// Repeating Verify would append a second trigger and run again.
type recordedError struct{ err error }

func (e *recordedError) Error() string { return e.err.Error() }
func (e *recordedError) Unwrap() error { return e.err }

// autoFix issues one fix-mode run per diagnostic, strictly in sequence so
// each run sees the messages persisted by the one before it.
func (p *Pipeline) autoFix(ctx context.Context, entryID int64, diags []store.Diagnostic) {
	for _, d := range diags {
		log := clog.FromContext(ctx).With("diagnostic_id", d.ID)
		content, err := prompts.FixRequest(d.ShortDesc, d.FullDesc)
		if err != nil {
			log.With("error", err).Error("Building fix request")
			continue
		}
		if _, err := p.Store.AppendMessage(ctx, store.Message{
			EntryID:     entryID,
			Role:        store.RoleHuman,
			Content:     content,
			IsAutomated: true,
			IsFixAction: true,
		}); err != nil {
			log.With("error", err).Error("Appending fix request")
			continue
		}
		log.Info("Starting auto-fix run")
		if _, err := p.Runs.Run(ctx, runner.Request{EntryID: entryID, FixMode: true, Automated: true}, nil); err != nil {
			log.With("error", err).Warn("Auto-fix run failed")
		}
	}
}

// NewDiagnostics returns the diagnostics in after that are absent from before
// and rank at or above minimum, in the order of after.
func NewDiagnostics(before, after []store.Diagnostic, minimum store.Severity) []store.Diagnostic {
	existing := make(map[int64]struct{}, len(before))
	for _, d := range before {
		existing[d.ID] = struct{}{}
	}
	threshold := minimum.ThresholdRank()
	var out []store.Diagnostic
	for _, d := range after {
		if _, ok := existing[d.ID]; ok {
			continue
		}
		if d.Severity.Rank() >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// Scope splits the stored paths-in-scope text on newlines and commas.
func Scope(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
