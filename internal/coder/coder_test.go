// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/diagram-coder/internal/editformat"
	"github.com/petar-djukic/diagram-coder/internal/llm"
	"github.com/petar-djukic/diagram-coder/internal/prompt"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// mockGenerator implements Generator for testing.
type mockGenerator struct {
	responses []string // Responses to return in order.
	errs      []error  // Errors to return in order; nil entries fall through.
	calls     [][]types.Message
}

func (m *mockGenerator) Generate(_ context.Context, messages []types.Message, _ string, _ string) (*llm.Completion, error) {
	i := len(m.calls)
	m.calls = append(m.calls, messages)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, fmt.Errorf("no more mock responses")
	}
	return &llm.Completion{
		Text:  m.responses[i],
		Usage: types.TokenUsage{InputTokens: 500, OutputTokens: 200},
	}, nil
}

const planResponse = `Thoughts:
The user wants the circle to be red.

Plan:
Set the circle's color to RED when it is created.

Relevant Files:
- circle.mdx
- [colors.mdx](colors.mdx)
`

const diagramSource = `from smanim import *
circle = Circle()
canvas.add(circle)
canvas.draw()`

func newTestRunner(t *testing.T, gen Generator) *Runner {
	t.Helper()
	assembler, err := prompt.New(prompt.Config{})
	require.NoError(t, err)
	return NewRunner(Deps{Generator: gen, Assembler: assembler, LogPrompts: true})
}

func TestRunner_SuccessfulEdit(t *testing.T) {
	gen := &mockGenerator{responses: []string{
		planResponse,
		"Change the constructor:\n```python\n<<<<<<< SEARCH\ncircle = Circle()\n=======\ncircle = Circle(color=RED)\n>>>>>>> REPLACE\n```\n",
	}}
	runner := newTestRunner(t, gen)

	result, err := runner.Run(context.Background(), Request{
		Instruction: "make the circle red",
		Source:      diagramSource,
		ModelID:     "gpt-4o",
	})
	require.NoError(t, err)

	assert.Equal(t, "from smanim import *\ncircle = Circle(color=RED)\ncanvas.add(circle)\ncanvas.draw()", result.Content)
	assert.Equal(t, 1, result.EditsApplied)
	assert.Equal(t, StateDone, result.FinalState)
	assert.Equal(t, ApproachEdit, result.Approach)
	assert.Equal(t, "Set the circle's color to RED when it is created.", result.Plan.Plan)
	assert.Equal(t, []string{"circle", "colors"}, result.Plan.ReferenceIDs)
	assert.Equal(t, 1400, result.Usage.Total())

	require.Len(t, gen.calls, 2)
	assert.Len(t, gen.calls[0], 2, "plan: system + user")
	assert.Len(t, gen.calls[1], 4, "edit: system + example pair + user")
	assert.Contains(t, gen.calls[1][3].Content, "CURRENT PLAN:\nSet the circle's color to RED")
}

func TestRunner_ZeroEditsAppliedIsReportedNotRetried(t *testing.T) {
	gen := &mockGenerator{responses: []string{
		planResponse,
		"```python\n<<<<<<< SEARCH\nsquare = Square()\n=======\nsquare = Square(color=RED)\n>>>>>>> REPLACE\n```",
	}}

	result, err := newTestRunner(t, gen).Run(context.Background(), Request{Source: diagramSource, ModelID: "gpt-4o"})
	require.NoError(t, err)

	assert.Equal(t, diagramSource, result.Content)
	assert.Equal(t, 0, result.EditsApplied)
	require.Len(t, result.Outcomes, 1)
	assert.NotNil(t, result.Outcomes[0].Diagnostic)
	assert.Len(t, gen.calls, 2)
}

func TestRunner_Rewrite(t *testing.T) {
	gen := &mockGenerator{responses: []string{
		planResponse,
		"NEW PLAN:\nRecolor.\n\nUPDATED CODE:\n```python\nfrom smanim import *\ncircle = Circle(color=RED)\ncanvas.add(circle)\n\n```\n",
	}}

	result, err := newTestRunner(t, gen).Run(context.Background(), Request{
		Instruction: "make the circle red",
		Source:      diagramSource,
		ModelID:     "gpt-4o",
		Approach:    ApproachRewrite,
	})
	require.NoError(t, err)

	assert.Equal(t, "from smanim import *\ncircle = Circle(color=RED)\ncanvas.add(circle)", result.Content)
	assert.Equal(t, StateDone, result.FinalState)
	require.Len(t, gen.calls, 2)
	assert.Len(t, gen.calls[1], 2, "rewrite: system + user")
	assert.Contains(t, gen.calls[1][1].Content, "CURRENT PLAN:")
}

func TestRunner_Failures(t *testing.T) {
	transport := fmt.Errorf("%w: connection reset", llm.ErrLLMFailure)

	tests := []struct {
		name      string
		gen       *mockGenerator
		approach  Approach
		wantErr   error
		wantMsg   string
		wantState string
		wantCalls int
	}{
		{
			name:      "empty plan response",
			gen:       &mockGenerator{responses: []string{"  \n"}},
			wantErr:   ErrEmptyResponse,
			wantMsg:   "error generating plan",
			wantState: StateFailed,
			wantCalls: 1,
		},
		{
			name:      "plan transport failure",
			gen:       &mockGenerator{errs: []error{transport}},
			wantErr:   llm.ErrLLMFailure,
			wantState: StateFailed,
			wantCalls: 1,
		},
		{
			name:      "plan without relevant files",
			gen:       &mockGenerator{responses: []string{"Plan:\nDo it."}},
			wantErr:   ErrMalformedPlan,
			wantState: StateFailed,
			wantCalls: 1,
		},
		{
			name:      "empty edit response",
			gen:       &mockGenerator{responses: []string{planResponse, ""}},
			wantErr:   ErrEmptyResponse,
			wantMsg:   "chat response should not be null",
			wantState: StateFailed,
			wantCalls: 2,
		},
		{
			name:      "edit transport failure",
			gen:       &mockGenerator{responses: []string{planResponse}, errs: []error{nil, transport}},
			wantErr:   llm.ErrLLMFailure,
			wantState: StateFailed,
			wantCalls: 2,
		},
		{
			name: "malformed edit block",
			gen: &mockGenerator{responses: []string{
				planResponse,
				"```python\n<<<<<<< SEARCH\ncircle = Circle()\n=======\ncircle = Circle(color=RED)\n```",
			}},
			wantErr:   editformat.ErrMalformedEditBlock,
			wantState: StateFailed,
			wantCalls: 2,
		},
		{
			name:      "rewrite without updated code",
			gen:       &mockGenerator{responses: []string{planResponse, "NEW PLAN:\nnothing"}},
			approach:  ApproachRewrite,
			wantErr:   editformat.ErrNoUpdatedCode,
			wantState: StateFailed,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestRunner(t, tt.gen).Run(context.Background(), Request{
				Instruction: "make the circle red",
				Source:      diagramSource,
				ModelID:     "gpt-4o",
				Approach:    tt.approach,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantState, result.FinalState)
			assert.Empty(t, result.Content)
			assert.Len(t, tt.gen.calls, tt.wantCalls)
		})
	}
}

func TestRunner_UnknownApproach(t *testing.T) {
	gen := &mockGenerator{}
	_, err := newTestRunner(t, gen).Run(context.Background(), Request{Approach: "fuzzy"})
	assert.Error(t, err)
	assert.Empty(t, gen.calls)
}

func TestRunner_FillsSelectionLines(t *testing.T) {
	gen := &mockGenerator{responses: []string{planResponse, "no edits here"}}

	_, err := newTestRunner(t, gen).Run(context.Background(), Request{
		Instruction: "make this red",
		Source:      diagramSource,
		ModelID:     "gpt-4o",
		Selection:   []types.SelectionDescriptor{{Type: "Circle", Path: "circle"}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, gen.calls)
	planUser := gen.calls[0][len(gen.calls[0])-1].Content
	assert.Contains(t, planUser, "1. A Circle mobject, accessed as `circle`, defined on line 2")
}
