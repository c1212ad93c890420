/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewPromptCollectsBindings(t *testing.T) {
	p, err := NewPrompt("Site {{ website_url }} repo {{repo_name}} again {{website_url}}")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]struct{}{"website_url": {}, "repo_name": {}}
	if diff := cmp.Diff(want, p.GetBindings()); diff != "" {
		t.Errorf("GetBindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPromptErrors(t *testing.T) {
	for _, tmpl := range []stringLiteral{
		"missing {{close",
		"bad {{1name}}",
		"bad {{na-me}}",
		"empty {{}}",
	} {
		if _, err := NewPrompt(tmpl); err == nil {
			t.Errorf("NewPrompt(%q) succeeded, want error", tmpl)
		}
	}
}

func TestBuild(t *testing.T) {
	p := MustNewPrompt("Website URL: {{website_url}}\nRepository: {{repo_name}}\nMode: {{mode}}")

	if _, err := p.Build(); err == nil || !strings.Contains(err.Error(), "unbound placeholder") {
		t.Fatalf("Build() with unbound placeholders: err = %v", err)
	}

	p, err := p.BindText("website_url", " https://example.com ")
	if err != nil {
		t.Fatal(err)
	}
	p, err = p.BindText("repo_name", "")
	if err != nil {
		t.Fatal(err)
	}
	p = p.MustBindStringLiteral("mode", "analyze")

	got, err := p.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "Website URL: https://example.com\nRepository: (none)\nMode: analyze"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBindIsImmutable(t *testing.T) {
	base := MustNewPrompt("{{a}}")
	first := Must(base.BindText("a", "one"))
	second := Must(base.BindText("a", "two"))

	if got, _ := first.Build(); got != "one" {
		t.Errorf("first.Build() = %q", got)
	}
	if got, _ := second.Build(); got != "two" {
		t.Errorf("second.Build() = %q", got)
	}
	if _, err := first.BindText("a", "three"); err == nil {
		t.Error("rebinding should fail")
	}
	if _, err := base.BindText("missing", "x"); err == nil {
		t.Error("binding an unknown placeholder should fail")
	}
}

func TestStructuredBindings(t *testing.T) {
	p := MustNewPrompt("paths:\n{{paths}}\njson: {{obj}}")
	p = Must(p.BindYAML("paths", []string{"/", "/blog"}))
	p = Must(p.BindJSON("obj", map[string]int{"n": 1}))

	got, err := p.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "paths:\n- /\n- /blog\njson: {\n  \"n\": 1\n}"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

type siteRequest struct{ url string }

func (r siteRequest) Bind(p *Prompt) (*Prompt, error) {
	return p.BindText("url", r.url)
}

func TestRender(t *testing.T) {
	got, err := Render(MustNewPrompt("Visit {{url}}"), siteRequest{url: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Visit https://example.com" {
		t.Errorf("Render() = %q", got)
	}

	if got, err := Render(MustNewPrompt("static"), Noop{}); err != nil || got != "static" {
		t.Errorf("Render(Noop) = %q, %v", got, err)
	}
}
