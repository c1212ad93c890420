/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines provider-independent tools for the Webster agent.
//
// A Tool pairs a Definition (name, description, parameters) with a Handler
// that returns text. Handlers never fail with a Go error: problems are
// reported in the result text so the model can react to them in-band.
//
// # Defining tools
//
// Hand-written definitions use Param and OptionalParam inside the handler:
//
//	tool := toolcall.Tool{
//		Def: toolcall.Definition{
//			Name:        "get_page_speed",
//			Description: "Run a Lighthouse performance audit on a URL.",
//			Parameters: []toolcall.Parameter{
//				{Name: "url", Type: "string", Description: "The full URL to audit", Required: true},
//			},
//		},
//		Handler: func(ctx context.Context, call toolcall.ToolCall) string {
//			url, errText := toolcall.Param[string](call, "url")
//			if errText != "" {
//				return errText
//			}
//			...
//		},
//	}
//
// Typed reflects the parameters from an argument struct instead:
//
//	type openPageArgs struct {
//		URL string `json:"url" jsonschema:"required,description=Full URL to open."`
//	}
//	tool := toolcall.Typed("open_page", "Open a URL.", openPageArgs{}, openPage)
//
// # Catalogs
//
// A Catalog tags each tool with its Availability. Visible filters a catalog
// for a mode, so tools that are unavailable never reach the model.
package toolcall
