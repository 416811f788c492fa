// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	text := "Thoughts:\nGraphs and arrows.\n\nPlan:\n  Add an edge (0, 5).\nThen recolor it.  \n\nRelevant Files:\n- graph.mdx\n-  arrow.md\n\n[text.mdx](text.mdx)\n- [Line](line.mdx)\nnotes\n"

	plan, err := ParsePlan(text)
	require.NoError(t, err)

	assert.Equal(t, "Add an edge (0, 5).\nThen recolor it.", plan.Plan)
	assert.Equal(t, []string{"graph", "arrow", "text", "Line", "notes"}, plan.ReferenceIDs)
}

func TestParsePlan_NoReferences(t *testing.T) {
	plan, err := ParsePlan("Plan: keep it simple. Relevant Files:")
	require.NoError(t, err)
	assert.Equal(t, "keep it simple.", plan.Plan)
	assert.Empty(t, plan.ReferenceIDs)
}

func TestParsePlan_Malformed(t *testing.T) {
	for _, text := range []string{
		"",
		"Thoughts: none",
		"Plan:\nDo the thing.",
		"Relevant Files:\n- graph.mdx",
		"Relevant Files:\n- graph.mdx\nPlan: late",
	} {
		_, err := ParsePlan(text)
		assert.ErrorIs(t, err, ErrMalformedPlan, "%q", text)
	}
}

func TestReferenceID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"- graph.mdx", "graph"},
		{"  circle.md  ", "circle"},
		{"[ex1.mdx](ex1.mdx)", "ex1"},
		{"- [ex1.mdx](https://docs/ex1)", "ex1"},
		{"plain", "plain"},
		{"archive.mdx.bak", "archive.mdx.bak"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, referenceID(tt.in), tt.in)
	}
}
