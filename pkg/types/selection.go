// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// SelectionDescriptor identifies an object the user selected in the editing
// surface. The model uses it to resolve pronouns such as "this" or "these".
type SelectionDescriptor struct {
	Type string // Object class, e.g. "Circle"
	Path string // Expression that reaches the object in source, e.g. "graph.vertices[0]"
	Line int    // Defining line (1-based); 0 if unknown
}

// String renders the descriptor the way it appears in prompts.
func (s SelectionDescriptor) String() string {
	out := fmt.Sprintf("A %s mobject, accessed as `%s`", s.Type, s.Path)
	if s.Line > 0 {
		out += fmt.Sprintf(", defined on line %d", s.Line)
	}
	return out
}

// PlanResult is the parsed output of the plan stage.
type PlanResult struct {
	Plan         string   // Short natural-language plan
	ReferenceIDs []string // Bare reference document identifiers
}
