/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"encoding/json"

	"chainguard.dev/webster/agents/schema"
	"chainguard.dev/webster/agents/toolcall/params"
)

// Typed builds a Tool whose parameters are reflected from the fields of A.
//
// Field names come from `json` tags, descriptions and required-ness from
// `jsonschema` tags. The defaults value seeds every call: arguments the model
// omits keep the value they have in defaults, and those values are also
// advertised as the parameter defaults.
func Typed[A any](name, description string, defaults A, fn func(ctx context.Context, args A) string) Tool {
	parameters := reflectParameters(defaults)
	return Tool{
		Def: Definition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
		Handler: func(ctx context.Context, call ToolCall) string {
			args := defaults
			raw, err := json.Marshal(call.Args)
			if err != nil {
				return params.Error("encoding %s arguments: %v", name, err)
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return params.Error("invalid %s arguments: %v", name, err)
			}
			for _, p := range parameters {
				if !p.Required {
					continue
				}
				if v, ok := call.Args[p.Name]; !ok || v == nil {
					return params.Error("%s parameter is required", p.Name)
				}
			}
			return fn(ctx, args)
		},
	}
}

func reflectParameters[A any](defaults A) []Parameter {
	s := schema.ReflectType[A]()

	// Defaults are read back through JSON so they line up with the json tag names.
	defaultValues := map[string]any{}
	if raw, err := json.Marshal(defaults); err == nil {
		_ = json.Unmarshal(raw, &defaultValues)
	}

	var out []Parameter
	for _, f := range schema.Fields(s) {
		p := Parameter{
			Name:        f.Name,
			Type:        f.Type,
			Description: f.Description,
			Required:    f.Required,
			Enum:        f.Enum,
		}
		if !p.Required {
			p.Default = defaultValues[f.Name]
		}
		out = append(out, p)
	}
	return out
}
