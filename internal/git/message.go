// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"strings"
	"unicode"
)

const maxSubjectLength = 72

// commitTypes maps instruction keywords to conventional commit types.
var commitTypes = []struct {
	keywords []string
	prefix   string
}{
	{[]string{"fix", "bug", "error", "repair", "resolve", "correct"}, "fix"},
	{[]string{"rename", "refactor", "restructure", "reorganize", "clean up", "simplify"}, "refactor"},
	{[]string{"color", "colour", "style", "font", "align", "move", "resize", "highlight"}, "style"},
	{[]string{"label", "caption", "title", "annotate", "comment"}, "docs"},
	{[]string{"remove", "delete", "cleanup"}, "chore"},
	// "feat" is the default, so it comes last with broad keywords.
	{[]string{"add", "create", "insert", "draw", "new", "introduce"}, "feat"},
}

// GenerateMessage creates a conventional commit message from the user's
// instruction and the documents it changed.
func GenerateMessage(instruction string, documents []string) string {
	commitType := inferCommitType(instruction)
	subject := buildSubject(commitType, instruction)
	body := buildBody(documents)

	msg := subject
	if body != "" {
		msg += "\n\n" + body
	}
	msg += "\n\n" + editTrailer

	return msg
}

// inferCommitType determines the conventional commit type from keywords.
func inferCommitType(instruction string) string {
	lower := strings.ToLower(instruction)
	for _, ct := range commitTypes {
		for _, kw := range ct.keywords {
			if containsWord(lower, kw) {
				return ct.prefix
			}
		}
	}
	return "feat"
}

// containsWord checks whether text contains keyword as a whole word
// (bounded by non-letter characters or string edges). For multi-word
// keywords like "clean up", it falls back to substring matching.
func containsWord(text, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		leftOK := start == 0 || !unicode.IsLetter(rune(text[start-1]))
		rightOK := end == len(text) || !unicode.IsLetter(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

// buildSubject creates the first line of the commit message.
// Format: "type: summary" (max 72 chars).
func buildSubject(commitType, instruction string) string {
	summary := strings.Join(strings.Fields(instruction), " ")
	if summary == "" {
		summary = "edit diagram"
	}
	summary = strings.ToLower(summary[:1]) + summary[1:]
	summary = strings.TrimRight(summary, ".")

	subject := fmt.Sprintf("%s: %s", commitType, summary)
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}

	return subject
}

// buildBody lists the changed documents.
func buildBody(documents []string) string {
	if len(documents) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString("Documents:\n")
	for _, d := range documents {
		buf.WriteString(fmt.Sprintf("- %s\n", d))
	}
	return strings.TrimRight(buf.String(), "\n")
}
