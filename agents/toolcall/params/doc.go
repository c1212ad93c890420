/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params decodes tool call arguments and formats the error strings
// handed back to the model. Every reasoning engine and every tool shares it,
// so argument coercion and error text are identical across providers.
package params
