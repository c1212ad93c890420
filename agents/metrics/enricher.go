/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// AttributeEnricher enriches metric attributes with additional context.
// The enricher receives base attributes (model, tool) and returns an enriched set.
type AttributeEnricher func(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue

type runKey struct{}

type runLabels struct {
	mode    string
	trigger string
}

// WithRun labels metrics recorded under ctx with the run mode
// ("analyze" or "fix") and what triggered it ("chat" or "verification").
func WithRun(ctx context.Context, mode, trigger string) context.Context {
	return context.WithValue(ctx, runKey{}, runLabels{mode: mode, trigger: trigger})
}

// RunEnricher appends the labels installed by WithRun, if any.
// Entry identifiers are deliberately left out to keep cardinality bounded.
func RunEnricher(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
	labels, ok := ctx.Value(runKey{}).(runLabels)
	if !ok {
		return base
	}
	return append(base,
		attribute.String("mode", labels.mode),
		attribute.String("trigger", labels.trigger),
	)
}
