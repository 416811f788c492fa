// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package feedback

import (
	"fmt"
	"strings"
)

const defaultContextLines = 5

// FixPrefix opens every fix instruction.
const FixPrefix = "Fix this:\n"

// FormatConfig configures fix instruction formatting.
type FormatConfig struct {
	ContextLines int // Lines of source above/below the error line (default 5, negative disables)
}

// FormatFixInstruction produces the instruction sent through the
// orchestrator to repair a runtime error. When the error names a line of
// source, numbered lines around it are appended.
func FormatFixInstruction(rt RuntimeError, source string, cfg FormatConfig) string {
	contextLines := cfg.ContextLines
	if contextLines == 0 {
		contextLines = defaultContextLines
	}

	var buf strings.Builder
	buf.WriteString(FixPrefix)
	buf.WriteString(strings.TrimSpace(rt.Summary))

	if contextLines > 0 && rt.Line > 0 {
		if context := getCodeContext(source, rt.Line, contextLines); context != "" {
			buf.WriteString("\n\nCODE AROUND LINE ")
			buf.WriteString(fmt.Sprint(rt.Line))
			buf.WriteString(":\n```\n")
			buf.WriteString(context)
			buf.WriteString("```")
		}
	}

	return buf.String()
}

// getCodeContext extracts numbered lines around errorLine from source,
// marking the error line. Returns "" when errorLine is outside source.
func getCodeContext(source string, errorLine, contextLines int) string {
	lines := strings.Split(source, "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}

	start := errorLine - contextLines - 1 // Convert to 0-based
	if start < 0 {
		start = 0
	}
	end := errorLine + contextLines // Already accounts for 0-based + context
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		marker := "  "
		if lineNum == errorLine {
			marker = "> "
		}
		buf.WriteString(fmt.Sprintf("%s%4d │ %s\n", marker, lineNum, lines[i]))
	}

	return buf.String()
}
