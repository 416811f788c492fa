// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/petar-djukic/diagram-coder/internal/docs"
	"github.com/petar-djukic/diagram-coder/internal/editformat"
	"github.com/petar-djukic/diagram-coder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher serves documents from a map and records requested slugs.
type mockFetcher struct {
	docs      map[string]string
	requested [][]string
}

func (m *mockFetcher) FetchAll(ctx context.Context, slugs []string) []docs.Document {
	m.requested = append(m.requested, slugs)
	var out []docs.Document
	for _, s := range slugs {
		if text, ok := m.docs[s]; ok {
			out = append(out, docs.Document{Slug: s, Text: text})
		}
	}
	return out
}

const testSource = "from smanim import *\ncircle = Circle()\ncanvas.add(circle)"

func newTestAssembler(t *testing.T, f Fetcher) *Assembler {
	t.Helper()
	a, err := New(Config{Fetcher: f})
	require.NoError(t, err)
	return a
}

func TestRenderPlan(t *testing.T) {
	f := &mockFetcher{docs: map[string]string{"overview": "CHEATSHEET BODY"}}
	a := newTestAssembler(t, f)

	msg, err := a.RenderPlan(context.Background(), Input{
		Instruction: "make it red",
		Source:      testSource,
		Selection:   []types.SelectionDescriptor{{Type: "Circle", Path: "circle", Line: 2}},
		Plan:        "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, types.RoleUser, msg.Role)
	assert.Equal(t, [][]string{{"overview"}}, f.requested)

	want := "SMANIM CHEATSHEET:\nCHEATSHEET BODY\n\n" +
		"DIAGRAM CODE:\n```python\n" + testSource + "\n```\n\n" +
		"SELECTED MOBJECTS (which the user likely refers to in their instruction):\n" +
		"1. A Circle mobject, accessed as `circle`, defined on line 2\n\n" +
		"USER INSTRUCTION:\nmake it red\n"
	assert.Equal(t, want, msg.Content)
}

func TestRenderPlan_OmitsEmptySections(t *testing.T) {
	a := newTestAssembler(t, &mockFetcher{})

	msg, err := a.RenderPlan(context.Background(), Input{Instruction: "add a square", Source: testSource})
	require.NoError(t, err)

	assert.NotContains(t, msg.Content, "SELECTED MOBJECTS")
	assert.NotContains(t, msg.Content, "SMANIM CHEATSHEET")
	assert.True(t, strings.HasPrefix(msg.Content, "DIAGRAM CODE:\n```python\n"))
	assert.True(t, strings.HasSuffix(msg.Content, "USER INSTRUCTION:\nadd a square\n"))
}

func TestRenderEdit(t *testing.T) {
	f := &mockFetcher{docs: map[string]string{"graph": "GRAPH DOCS", "arrow": "ARROW DOCS"}}
	a := newTestAssembler(t, f)

	msg, err := a.RenderEdit(context.Background(), Input{
		Instruction:  "connect these",
		Source:       testSource,
		Selection:    []types.SelectionDescriptor{{Type: "Dot", Path: "a"}, {Type: "Dot", Path: "b", Line: 7}},
		Plan:         "Add an arrow from a to b.",
		ReferenceIDs: []string{"graph", "missing", "arrow"},
	})
	require.NoError(t, err)

	want := "SMANIM DOCUMENTATION:\nGRAPH DOCS\n\nARROW DOCS\n\n" +
		"DIAGRAM CODE:\n```python\n" + testSource + "\n```\n\n" +
		"SELECTED MOBJECTS:\n" +
		"1. A Dot mobject, accessed as `a`\n" +
		"2. A Dot mobject, accessed as `b`, defined on line 7\n\n" +
		"CURRENT PLAN:\nAdd an arrow from a to b.\n\n" +
		"INSTRUCTION:\nconnect these\n"
	assert.Equal(t, want, msg.Content)
}

func TestRenderEdit_MinimalInput(t *testing.T) {
	a := newTestAssembler(t, nil)

	msg, err := a.RenderEdit(context.Background(), Input{Instruction: "x", Source: "y = 1"})
	require.NoError(t, err)
	assert.Equal(t, "DIAGRAM CODE:\n```python\ny = 1\n```\n\nINSTRUCTION:\nx\n", msg.Content)
}

func TestRenderRewrite(t *testing.T) {
	a := newTestAssembler(t, &mockFetcher{docs: map[string]string{"square": "SQUARE DOCS"}})

	msg, err := a.RenderRewrite(context.Background(), Input{
		Instruction:  "add a square",
		Source:       testSource,
		Plan:         "Create a Square and add it.",
		ReferenceIDs: []string{"square"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg.Content, "SMANIM DOCUMENTATION:\nSQUARE DOCS"))
	assert.Contains(t, msg.Content, "CURRENT PLAN:\nCreate a Square and add it.")
	assert.True(t, strings.HasSuffix(msg.Content, "USER INSTRUCTION:\nadd a square\n"))
}

func TestPrefixes(t *testing.T) {
	a := newTestAssembler(t, nil)

	plan, err := a.Prompt(StagePlan)
	require.NoError(t, err)
	require.Len(t, plan.Messages, 1)
	assert.Equal(t, types.RoleSystem, plan.Messages[0].Role)
	assert.Contains(t, plan.Messages[0].Content, "Relevant Files:")

	edit, err := a.Prompt(StageEdit)
	require.NoError(t, err)
	require.Len(t, edit.Messages, 3)
	assert.Equal(t, types.RoleSystem, edit.Messages[0].Role)
	assert.Equal(t, types.RoleUser, edit.Messages[1].Role)
	assert.Equal(t, types.RoleAssistant, edit.Messages[2].Role)
	assert.Contains(t, edit.Messages[1].Content, "INSTRUCTION:\n"+exampleInstruction)
	assert.Contains(t, edit.Messages[1].Content, "2. A Circle mobject, accessed as `start_vertex`, defined on line 22")

	rewrite, err := a.Prompt(StageRewrite)
	require.NoError(t, err)
	assert.Contains(t, rewrite.Messages[0].Content, editformat.UpdatedCodeMarker)

	_, err = a.Prompt(Stage("bogus"))
	assert.Error(t, err)
}

func TestExampleAnswerAppliesToExampleSource(t *testing.T) {
	a := newTestAssembler(t, nil)
	edit, err := a.Prompt(StageEdit)
	require.NoError(t, err)

	blocks, err := editformat.Parse(edit.Messages[2].Content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Contains(t, edit.Messages[1].Content, blocks[0].Search)
}

func TestConversation_DoesNotMutatePrefix(t *testing.T) {
	a := newTestAssembler(t, nil)

	first, err := a.Conversation(StageEdit, types.Message{Role: types.RoleUser, Content: "one"})
	require.NoError(t, err)
	second, err := a.Conversation(StageEdit, types.Message{Role: types.RoleUser, Content: "two"})
	require.NoError(t, err)

	require.Len(t, first, 4)
	require.Len(t, second, 4)
	assert.Equal(t, "one", first[3].Content)
	assert.Equal(t, "two", second[3].Content)

	p, err := a.Prompt(StageEdit)
	require.NoError(t, err)
	assert.Len(t, p.Messages, 3)
}

func TestRender_DispatchesByStage(t *testing.T) {
	a := newTestAssembler(t, nil)
	in := Input{Instruction: "i", Source: "s"}

	plan, err := a.Render(context.Background(), StagePlan, in)
	require.NoError(t, err)
	assert.Contains(t, plan.Content, "USER INSTRUCTION:")

	edit, err := a.Render(context.Background(), StageEdit, in)
	require.NoError(t, err)
	assert.Contains(t, edit.Content, "\nINSTRUCTION:")

	_, err = a.Render(context.Background(), Stage("bogus"), in)
	assert.Error(t, err)
}
