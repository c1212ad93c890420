/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"errors"

	"chainguard.dev/webster/agents/executor/retry"
	"github.com/openai/openai-go"
)

func retryable(err error) bool {
	var apiErr *openai.Error
	return errors.As(err, &apiErr) && retry.Transient(apiErr.StatusCode)
}
