/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"testing"

	"chainguard.dev/webster/agents/schema"
	"github.com/google/go-cmp/cmp"
)

func TestReflect(t *testing.T) {
	type viewport struct {
		Width int `json:"width" jsonschema:"description=Viewport width"`
	}
	type sample struct {
		URL      string    `json:"url" jsonschema:"description=Page URL,required"`
		MaxChars int       `json:"max_chars,omitempty"`
		Viewport *viewport `json:"viewport,omitempty"`
	}

	s := schema.Reflect(&sample{})
	if s == nil {
		t.Fatal("expected schema")
	}
	if s.Type != "object" {
		t.Errorf("expected object type, got %s", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "url" {
		t.Fatalf("unexpected required: %#v", s.Required)
	}

	url, ok := s.Properties.Get("url")
	if !ok {
		t.Fatal("missing url property")
	}
	if url.Description != "Page URL" {
		t.Fatalf("unexpected description: %q", url.Description)
	}

	nested, ok := s.Properties.Get("viewport")
	if !ok {
		t.Fatal("missing viewport property")
	}
	width, ok := nested.Properties.Get("width")
	if !ok {
		t.Fatal("missing nested width property")
	}
	if width.Description != "Viewport width" {
		t.Fatalf("unexpected nested description: %q", width.Description)
	}
}

func TestFields(t *testing.T) {
	type diagnosticArgs struct {
		ShortDesc string `json:"short_desc" jsonschema:"required,description=One-line summary"`
		FullDesc  string `json:"full_desc" jsonschema:"required"`
		Severity  string `json:"severity" jsonschema:"enum=info,enum=warning,enum=error,description=info or warning or error"`
	}

	got := schema.Fields(schema.ReflectType[diagnosticArgs]())
	want := []schema.Field{
		{Name: "short_desc", Type: "string", Description: "One-line summary", Required: true},
		{Name: "full_desc", Type: "string", Required: true},
		{Name: "severity", Type: "string", Description: "info or warning or error", Enum: []any{"info", "warning", "error"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}

	if got := schema.Fields(nil); got != nil {
		t.Errorf("Fields(nil) = %v, want nil", got)
	}
}
