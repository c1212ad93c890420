/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"slices"

	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with project defaults.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator wired with the defaults we need for tool schemas.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	return g.reflector.Reflect(v)
}

// Reflect derives the JSON schema for the provided value using a default generator.
func Reflect(v any) *jsonschema.Schema {
	return NewGenerator().Reflect(v)
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}

// Field is a flattened top-level property of an object schema.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []any
}

// Fields lists the top-level properties of s in declaration order.
func Fields(s *jsonschema.Schema) []Field {
	if s == nil || s.Properties == nil {
		return nil
	}
	var out []Field
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Field{
			Name:        pair.Key,
			Type:        pair.Value.Type,
			Description: pair.Value.Description,
			Required:    slices.Contains(s.Required, pair.Key),
			Enum:        pair.Value.Enum,
		})
	}
	return out
}
