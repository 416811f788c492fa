// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package feedback turns runtime errors reported by the execution worker
// into follow-up instructions for the orchestrator.
package feedback

import (
	"regexp"
	"strconv"
)

var (
	execLineRe = regexp.MustCompile(`File "<exec>", line (\d+)`)
	// A traceback line underlined with at least eight carets.
	caretRunRe = regexp.MustCompile(`(?:.*\^){8,}`)
)

// RuntimeError is a traceback reduced to what the model needs.
type RuntimeError struct {
	Line    int    // Line in the diagram source, 0 if not found
	Raw     string // Traceback as reported
	Summary string // Text after the last caret underline, prefixed with the line
}

// ParseRuntimeError locates the failing line of the executed source and
// strips the traceback down to the message after its last caret underline.
// Without an underline the raw text is kept as the summary.
func ParseRuntimeError(raw string) RuntimeError {
	rt := RuntimeError{Raw: raw, Summary: raw}

	lineMatch := execLineRe.FindStringSubmatch(raw)
	if lineMatch != nil {
		rt.Line, _ = strconv.Atoi(lineMatch[1])
	}

	locs := caretRunRe.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return rt
	}
	end := locs[len(locs)-1][1]

	summary := ""
	if lineMatch != nil {
		summary = "An error occured on line " + lineMatch[1] + ":\n"
	}
	rt.Summary = summary + raw[end:]
	return rt
}
