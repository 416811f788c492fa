// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"errors"
	"strings"
	"testing"

	"github.com/petar-djukic/diagram-coder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MarkerCommentDialect(t *testing.T) {
	response := "Here is the fix:\n\n```python\n" +
		"# ==== SEARCH START ====\n" +
		"old_function()\n" +
		"# ==== SEARCH END ====\n" +
		"# ==== REPLACE START ====\n" +
		"new_function()\n" +
		"# ==== REPLACE END ====\n" +
		"```\n"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, types.EditBlock{Search: "old_function()", Replace: "new_function()"}, blocks[0])
}

func TestParse_MarkerCommentDialect_BlankLineBetweenSections(t *testing.T) {
	response := "```python\n" +
		"# ==== SEARCH START ====\n" +
		"    c d\n" +
		"# ==== SEARCH END ====\n" +
		"\n" +
		"# ==== REPLACE START ====\n" +
		"c d\n" +
		"    x y z\n" +
		"# ==== REPLACE END ====\n" +
		"```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "    c d", blocks[0].Search)
	assert.Equal(t, "c d\n    x y z", blocks[0].Replace)
}

func TestParse_ChevronDialect(t *testing.T) {
	response := "```python\n<<<<<<< SEARCH\nWEIGHTED_GRAPH1 = {\n    0: [1, 2],\n=======\nWEIGHTED_GRAPH1 = {\n    0: [1, 2, 5],\n>>>>>>> REPLACE\n```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "WEIGHTED_GRAPH1 = {\n    0: [1, 2],", blocks[0].Search)
	assert.Equal(t, "WEIGHTED_GRAPH1 = {\n    0: [1, 2, 5],", blocks[0].Replace)
}

func TestParse_ChevronRunLengths(t *testing.T) {
	chevron := func(n int) string {
		return "```python\n" +
			strings.Repeat("<", n) + " SEARCH\n" +
			"x = 1\n" +
			strings.Repeat("=", n) + "\n" +
			"x = 2\n" +
			strings.Repeat(">", n) + "REPLACE\n" +
			"```\n"
	}

	want, err := Parse(chevron(3))
	require.NoError(t, err)
	require.Len(t, want, 1)

	for _, n := range []int{4, 6, 7, 12} {
		got, err := Parse(chevron(n))
		require.NoError(t, err, "run length %d", n)
		assert.Equal(t, want, got, "run length %d", n)
	}
}

func TestParse_RunShorterThanThreeIsNotAMarker(t *testing.T) {
	response := "```python\n<< SEARCH\nx = 1\n==\nx = 2\n>> REPLACE\n```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParse_MixedDialectsInOrder(t *testing.T) {
	response := "First change:\n" +
		"```python\n<<<<<<< SEARCH\na = 1\n=======\na = 10\n>>>>>>> REPLACE\n```\n" +
		"Second change:\n" +
		"```python\n# ==== SEARCH START ====\nb = 2\n# ==== SEARCH END ====\n# ==== REPLACE START ====\nb = 20\n# ==== REPLACE END ====\n```\n" +
		"Third change:\n" +
		"```\n<<<<< SEARCH\n  c = 3  \n=====\n  c = 30\n>>>>> REPLACE\n```\n"

	blocks, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, []types.EditBlock{
		{Search: "a = 1", Replace: "a = 10"},
		{Search: "b = 2", Replace: "b = 20"},
		{Search: "  c = 3", Replace: "  c = 30"},
	}, blocks)
}

func TestParse_SeveralBlocksInOneFence(t *testing.T) {
	response := "```python\n" +
		"<<<<<<< SEARCH\nx = 1\n=======\nx = 2\n>>>>>>> REPLACE\n" +
		"\n" +
		"<<<<<<< SEARCH\ny = 1\n=======\ny = 2\n>>>>>>> REPLACE\n" +
		"```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "y = 1", blocks[1].Search)
}

func TestParse_TrimsBlankLinesKeepsIndentation(t *testing.T) {
	response := "```python\n<<<<<<< SEARCH\n\n\n    indent\n\n=======\n\nunindent   \n>>>>>>> REPLACE\n```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "    indent", blocks[0].Search)
	assert.Equal(t, "unindent", blocks[0].Replace)
}

func TestParse_FenceOnReplaceLine(t *testing.T) {
	response := "```python\n" +
		"<<<<<<< SEARCH\n" +
		"circle = Circle()\n" +
		"=======\n" +
		"circle = Circle(color=RED)\n" +
		">>>>>>> REPLACE```\n" +
		"That closes the first fence, so this is prose:\n" +
		"<<<<<<< SEARCH\n" +
		"```python\n" +
		"# ==== SEARCH START ====\n" +
		"square = Square()\n" +
		"# ==== SEARCH END ====\n" +
		"# ==== REPLACE START ====\n" +
		"square = Square(color=BLUE)\n" +
		"# ==== REPLACE END ==== ```\n"

	blocks, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, []types.EditBlock{
		{Search: "circle = Circle()", Replace: "circle = Circle(color=RED)"},
		{Search: "square = Square()", Replace: "square = Square(color=BLUE)"},
	}, blocks)
}

func TestParse_MarkersOutsideFenceAreIgnored(t *testing.T) {
	response := "Use this format:\n<<<<<<< SEARCH\nfoo\n=======\nbar\n>>>>>>> REPLACE\n"

	blocks, err := Parse(response)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParse_PlainCodeFenceIsSkipped(t *testing.T) {
	response := "Example:\n```python\nprint('hi')\n```\nand the edit:\n```python\n<<< SEARCH\nprint('hi')\n===\nprint('bye')\n>>> REPLACE\n```"

	blocks, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "print('bye')", blocks[0].Replace)
}

func TestParse_NoBlocks(t *testing.T) {
	for _, response := range []string{"", "I am not sure what to change."} {
		blocks, err := Parse(response)
		require.NoError(t, err)
		assert.Empty(t, blocks)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{
			name:    "missing replace marker before fence closes",
			input:   "```python\n<<<<<<< SEARCH\nold\n=======\nnew\n```",
			message: "replace section",
		},
		{
			name:    "missing replace marker at end of response",
			input:   "```python\n<<<<<<< SEARCH\nold\n=======\nnew",
			message: "replace section",
		},
		{
			name:    "missing divider",
			input:   "```python\n<<<<<<< SEARCH\nold\n```",
			message: "search section",
		},
		{
			name:    "marker comment missing replace start",
			input:   "```python\n# ==== SEARCH START ====\nold\n# ==== SEARCH END ====\nnew\n# ==== REPLACE END ====\n```",
			message: "between search and replace",
		},
		{
			name:    "empty search",
			input:   "```python\n<<<<<<< SEARCH\n\n=======\nnew\n>>>>>>> REPLACE\n```",
			message: "empty search",
		},
		{
			name:    "empty replace",
			input:   "```python\n<<<<<<< SEARCH\nold\n=======\n   \n>>>>>>> REPLACE\n```",
			message: "empty replace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, blocks)
			assert.True(t, errors.Is(err, ErrMalformedEditBlock))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Contains(t, pe.Message, tt.message)
			assert.Equal(t, 2, pe.Position)
			assert.NotEmpty(t, pe.RawText)
		})
	}
}

func TestParse_MalformedAfterValidBlockFailsWholeParse(t *testing.T) {
	response := "```python\n<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE\n```\n" +
		"```python\n<<<<<<< SEARCH\nc\n=======\nd\n```"

	blocks, err := Parse(response)
	assert.ErrorIs(t, err, ErrMalformedEditBlock)
	assert.Nil(t, blocks)
}
