/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Bindable is implemented by request types that fill a prompt template
// with their own data.
type Bindable interface {
	Bind(prompt *Prompt) (*Prompt, error)
}

// Noop is a Bindable that passes the prompt through unchanged.
type Noop struct{}

// Bind implements Bindable.
func (Noop) Bind(prompt *Prompt) (*Prompt, error) {
	return prompt, nil
}

// Render binds b into prompt and builds the result.
func Render(prompt *Prompt, b Bindable) (string, error) {
	bound, err := b.Bind(prompt)
	if err != nil {
		return "", err
	}
	return bound.Build()
}
