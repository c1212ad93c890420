/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder builds prompts from templates with {{name}} placeholders.
//
// Templates must be string literals. Values are bound by name, each binding
// exactly once, and Build fails while any placeholder is still unbound.
//
//	p := promptbuilder.MustNewPrompt(`Website URL: {{website_url}}`)
//	p, err := p.BindText("website_url", entry.WebsiteURL)
//	text, err := p.Build()
package promptbuilder
