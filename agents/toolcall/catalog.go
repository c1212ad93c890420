/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import "fmt"

// Availability says in which operating modes a tool is visible to the model.
type Availability int

const (
	// Always marks a tool that is visible in every mode.
	Always Availability = iota
	// FixModeOnly marks a tool that only exists while resolving a diagnostic.
	FixModeOnly
)

// Entry is a catalog tool tagged with its availability.
type Entry struct {
	Tool
	Availability Availability
}

// Catalog is the full set of tools a run could see, before mode filtering.
type Catalog []Entry

// Add appends tools with the given availability.
func (c Catalog) Add(availability Availability, tools ...Tool) Catalog {
	for _, t := range tools {
		c = append(c, Entry{Tool: t, Availability: availability})
	}
	return c
}

// Visible returns the tools bound to the model for the given mode.
// Tools that are not available are omitted entirely, not disabled.
func (c Catalog) Visible(fixMode bool) []Tool {
	out := make([]Tool, 0, len(c))
	for _, e := range c {
		if e.Availability == FixModeOnly && !fixMode {
			continue
		}
		out = append(out, e.Tool)
	}
	return out
}

// Index maps tools by name for dispatch.
// A duplicate name is an error since dispatch must be unambiguous.
func Index(tools []Tool) (map[string]Tool, error) {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if _, dup := byName[t.Def.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Def.Name)
		}
		byName[t.Def.Name] = t
	}
	return byName, nil
}

// Definitions returns the definitions of the given tools, preserving order.
func Definitions(tools []Tool) []Definition {
	defs := make([]Definition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, t.Def)
	}
	return defs
}
