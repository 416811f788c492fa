// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"bytes"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// UpdatedCodeMarker labels the whole-file replacement in a rewrite response.
const UpdatedCodeMarker = "UPDATED CODE:"

// Errors returned by ExtractUpdatedCode.
var (
	ErrNoUpdatedCode     = errors.New("UPDATED CODE marker not found in the model output")
	ErrNoCodeBlock       = errors.New("code block not found after UPDATED CODE marker")
	ErrUnclosedCodeBlock = errors.New("code block after UPDATED CODE marker is not closed")
)

// ExtractUpdatedCode returns the content of the first fenced code block after
// the UPDATED CODE marker, trimmed. The block must be closed; a truncated
// rewrite would otherwise replace the whole source with a fragment.
func ExtractUpdatedCode(response string) (string, error) {
	idx := strings.Index(response, UpdatedCodeMarker)
	if idx < 0 {
		return "", ErrNoUpdatedCode
	}
	source := []byte(response[idx+len(UpdatedCodeMarker):])

	block := firstFencedBlock(source)
	if block == nil {
		return "", ErrNoCodeBlock
	}

	var content bytes.Buffer
	stop := 0
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		content.Write(seg.Value(source))
		stop = seg.Stop
	}
	if stop == 0 && block.Info != nil {
		stop = block.Info.Segment.Stop
	}
	if !bytes.Contains(source[stop:], []byte(fence)) {
		return "", ErrUnclosedCodeBlock
	}

	return strings.TrimSpace(content.String()), nil
}

// firstFencedBlock walks the markdown AST and returns the first fenced code
// block, or nil.
func firstFencedBlock(source []byte) *ast.FencedCodeBlock {
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var found *ast.FencedCodeBlock
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fb, ok := node.(*ast.FencedCodeBlock); ok {
			found = fb
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}
