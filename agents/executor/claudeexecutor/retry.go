/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeexecutor

import (
	"errors"

	"chainguard.dev/webster/agents/executor/retry"
	"github.com/anthropics/anthropic-sdk-go"
)

func retryable(err error) bool {
	var apiErr *anthropic.Error
	return errors.As(err, &apiErr) && retry.Transient(apiErr.StatusCode)
}
