// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editor applies search/replace edit blocks to source text.
package editor

import (
	"strings"

	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// Apply applies edits to source in order. Each block replaces every literal,
// non-overlapping occurrence of its search text in the text produced by the
// blocks before it. A block whose search text is absent leaves the text
// unchanged and contributes nothing to EditsApplied; its outcome carries a
// diagnostic pointing at the closest region. Apply never fails.
//
// Matching is byte-exact: indentation in the search text is part of the key.
func Apply(source string, edits []types.EditBlock) *types.ApplyResult {
	result := &types.ApplyResult{
		Content:  source,
		Outcomes: make([]types.EditOutcome, 0, len(edits)),
	}

	for i, edit := range edits {
		outcome := types.EditOutcome{Index: i}

		n := 0
		if edit.Search != "" {
			n = strings.Count(result.Content, edit.Search)
		}

		if n == 0 {
			outcome.Diagnostic = buildDiagnostic(result.Content, edit.Search)
		} else {
			result.Content = strings.ReplaceAll(result.Content, edit.Search, edit.Replace)
			outcome.Occurrences = n
			result.EditsApplied += n
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}

// buildDiagnostic constructs a structured diagnostic for a search text that
// was not found.
func buildDiagnostic(content, search string) *types.Diagnostic {
	closest, sim, lineStart, lineEnd := findClosestMatch(content, search)
	return &types.Diagnostic{
		SearchText:       search,
		ClosestMatch:     closest,
		Similarity:       sim,
		ClosestLineStart: lineStart,
		ClosestLineEnd:   lineEnd,
	}
}
