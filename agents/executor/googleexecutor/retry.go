/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleexecutor

import (
	"errors"
	"strings"

	"chainguard.dev/webster/agents/executor/retry"
	"google.golang.org/genai"
)

// transientMessages match errors surfaced by the transport rather than as
// an APIError, e.g. gRPC status text.
var transientMessages = []string{
	"RESOURCE_EXHAUSTED",
	"Resource exhausted",
	"quota exceeded",
	"rate limit",
	"Overloaded",
	"503",
	"429",
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retry.Transient(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return retry.Transient(apiErrPtr.Code)
	}
	msg := err.Error()
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
