// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// EditBlock is a single search/replace pair extracted from a model response.
// Blocks are applied in the order the parser found them.
type EditBlock struct {
	Search  string // Verbatim text to find, indentation included
	Replace string // Text substituted for every occurrence of Search
}

// EditOutcome records what one EditBlock did to the text.
type EditOutcome struct {
	Index       int         // Position of the block in parser order
	Occurrences int         // Replacements performed (0 means no-op)
	Diagnostic  *Diagnostic // Closest region when Occurrences is 0, if any
}

// ApplyResult is the outcome of applying a list of edit blocks.
type ApplyResult struct {
	Content      string        // Text after all edits
	EditsApplied int           // Total replacements across all blocks
	Outcomes     []EditOutcome // One entry per block, in order
}

// NoOps returns the number of blocks whose search text was not found.
func (r *ApplyResult) NoOps() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Occurrences == 0 {
			n++
		}
	}
	return n
}

// Diagnostic describes why a search text did not match, with the closest
// region of the current text for logs.
type Diagnostic struct {
	SearchText       string  // What we searched for
	ClosestMatch     string  // Best partial match found (empty if none)
	Similarity       float64 // Similarity score of closest match
	ClosestLineStart int     // Starting line of the closest match (1-based)
	ClosestLineEnd   int     // Ending line of the closest match (1-based)
}

func (d Diagnostic) Error() string {
	if d.ClosestMatch == "" {
		return "search text not found"
	}
	return fmt.Sprintf("search text not found (closest match at lines %d-%d, similarity %.2f)",
		d.ClosestLineStart, d.ClosestLineEnd, d.Similarity)
}
