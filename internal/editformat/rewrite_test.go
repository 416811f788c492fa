// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUpdatedCode(t *testing.T) {
	response := "NEW PLAN:\nAdd a red circle.\n\nUPDATED CODE:\n```python\nfrom smanim import *\ncircle = Circle(color=RED)\ncanvas.add(circle)\n\n```\n"

	code, err := ExtractUpdatedCode(response)
	require.NoError(t, err)
	assert.Equal(t, "from smanim import *\ncircle = Circle(color=RED)\ncanvas.add(circle)", code)
}

func TestExtractUpdatedCode_SkipsBlocksBeforeMarker(t *testing.T) {
	response := "Old code was:\n```python\nold()\n```\n\nUPDATED CODE:\n\n```python\nnew()\n```"

	code, err := ExtractUpdatedCode(response)
	require.NoError(t, err)
	assert.Equal(t, "new()", code)
}

func TestExtractUpdatedCode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "no marker",
			input:   "```python\nx = 1\n```",
			wantErr: ErrNoUpdatedCode,
		},
		{
			name:    "no code block",
			input:   "UPDATED CODE:\nI could not do it.",
			wantErr: ErrNoCodeBlock,
		},
		{
			name:    "unclosed code block",
			input:   "UPDATED CODE:\n```python\nx = 1\ny = 2",
			wantErr: ErrUnclosedCodeBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractUpdatedCode(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
