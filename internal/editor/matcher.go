// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// findClosestMatch slides a window the height of search over content and
// returns the most similar region with its similarity and 1-based line range.
// It is diagnostic only; Apply never substitutes a near match.
func findClosestMatch(content, search string) (closest string, sim float64, lineStart, lineEnd int) {
	if search == "" || content == "" {
		return "", 0, 0, 0
	}

	contentLines := strings.Split(content, "\n")
	searchLen := len(strings.Split(search, "\n"))

	if searchLen > len(contentLines) {
		searchLen = len(contentLines)
	}

	var bestSim float64
	var bestStart int

	for i := 0; i <= len(contentLines)-searchLen; i++ {
		candidate := strings.Join(contentLines[i:i+searchLen], "\n")
		s := similarity(candidate, search)
		if s > bestSim {
			bestSim = s
			bestStart = i
		}
	}

	if bestSim > 0 {
		closest = strings.Join(contentLines[bestStart:bestStart+searchLen], "\n")
		return closest, bestSim, bestStart + 1, bestStart + searchLen
	}

	return "", 0, 0, 0
}

// similarity computes the Levenshtein-based similarity ratio between two strings
// using the go-diff library. Returns a value between 0.0 and 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(distance)/float64(maxLen)
}
