/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prompts

import (
	"chainguard.dev/webster/agents/promptbuilder"
)

// ConcludeRequest closes the history handed to the conclusion step.
const ConcludeRequest = "Summarize your findings and any actions you took for the user now. Do not request any tools."

const verificationTrigger = "Automated verification: analyze this website for issues."

var scopedVerificationPrompt = promptbuilder.MustNewPrompt(verificationTrigger + "\n\nFocus on these paths:\n{{paths}}")

var fixRequestPrompt = promptbuilder.MustNewPrompt("Fix this diagnostic: **{{short_desc}}**\n\n{{full_desc}}")

// VerificationTrigger is the automated human message that starts a verification run.
// A non-empty scope lists the paths the run should focus on.
func VerificationTrigger(scope []string) (string, error) {
	if len(scope) == 0 {
		return verificationTrigger, nil
	}
	p, err := scopedVerificationPrompt.BindYAML("paths", scope)
	if err != nil {
		return "", err
	}
	return p.Build()
}

// FixRequest is the automated human message asking a fix-mode run to resolve a diagnostic.
func FixRequest(shortDesc, fullDesc string) (string, error) {
	p, err := fixRequestPrompt.BindText("short_desc", shortDesc)
	if err != nil {
		return "", err
	}
	if p, err = p.BindText("full_desc", fullDesc); err != nil {
		return "", err
	}
	return p.Build()
}
