// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editformat parses model response text into search/replace edit
// blocks and extracts whole-file rewrites.
package editformat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petar-djukic/diagram-coder/pkg/types"
)

const fence = "```"

// ErrMalformedEditBlock is matched by every *ParseError.
var ErrMalformedEditBlock = errors.New("malformed edit block")

// ParseError describes a malformed edit block in the model response.
type ParseError struct {
	Position int    // Line number where the block starts (1-based)
	Dialect  string // Delimiter dialect the block started in
	RawText  string // The raw text of the malformed block
	Message  string // What went wrong
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed edit block at line %d: %s", e.Position, e.Message)
}

// Is reports whether target is ErrMalformedEditBlock.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedEditBlock
}

// dialect is one accepted delimiter grammar. replaceStart is nil when the
// divider line also opens the replace section.
type dialect struct {
	name         string
	searchStart  func(line string) bool
	divider      func(line string) bool
	replaceStart func(line string) bool
	replaceEnd   func(line string) bool
}

// dialects lists the grammars in the order they are tried on a start line.
var dialects = []dialect{
	{
		name:         "marker-comment",
		searchStart:  literal("# ==== SEARCH START ===="),
		divider:      literal("# ==== SEARCH END ===="),
		replaceStart: literal("# ==== REPLACE START ===="),
		replaceEnd:   literal("# ==== REPLACE END ===="),
	},
	{
		name:        "chevron",
		searchStart: run('<', "SEARCH"),
		divider:     run('=', ""),
		replaceEnd:  run('>', "REPLACE"),
	},
}

// parseState is the position of the scanner relative to edit blocks.
type parseState int

const (
	stateOutside parseState = iota // Prose between fenced regions
	stateInFence                   // Inside a fence, no block open
	stateInSearch                  // Accumulating search text
	stateBetween                   // Dialect A: after SEARCH END, before REPLACE START
	stateInReplace                 // Accumulating replace text
)

// parser holds the state machine for one Parse call.
type parser struct {
	lines   []string
	state   parseState
	dialect *dialect
	start   int // 0-based index of the current block's start marker
	search  []string
	replace []string
	blocks  []types.EditBlock
}

// Parse extracts every edit block from a model response, left to right.
// A block is recognized only inside a fenced code region. Either delimiter
// dialect is accepted, and one fence may hold several blocks. A block whose
// search or replace text is empty, or that is cut off before its end marker,
// fails the whole parse with a *ParseError. A response without blocks yields
// an empty slice.
func Parse(response string) ([]types.EditBlock, error) {
	p := &parser{lines: strings.Split(response, "\n")}
	for i, line := range p.lines {
		if err := p.step(i, line); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.blocks, nil
}

// step advances the state machine by one line.
func (p *parser) step(i int, line string) error {
	trimmed := strings.TrimSpace(line)

	switch p.state {
	case stateOutside:
		if strings.HasPrefix(trimmed, fence) {
			p.state = stateInFence
		}

	case stateInFence:
		if strings.HasPrefix(trimmed, fence) {
			p.state = stateOutside
			return nil
		}
		for k := range dialects {
			if dialects[k].searchStart(trimmed) {
				p.dialect = &dialects[k]
				p.start = i
				p.search = p.search[:0]
				p.replace = p.replace[:0]
				p.state = stateInSearch
				break
			}
		}

	case stateInSearch:
		switch {
		case p.dialect.divider(trimmed):
			if p.dialect.replaceStart != nil {
				p.state = stateBetween
			} else {
				p.state = stateInReplace
			}
		case strings.HasPrefix(trimmed, fence):
			return p.malformed(i, "fence closed before the search section ended")
		default:
			p.search = append(p.search, line)
		}

	case stateBetween:
		switch {
		case p.dialect.replaceStart(trimmed):
			p.state = stateInReplace
		case trimmed == "":
		default:
			return p.malformed(i, "unexpected text between search and replace sections")
		}

	case stateInReplace:
		// The end marker may carry the closing fence on the same line.
		marker, closesFence := strings.CutSuffix(trimmed, fence)
		switch {
		case closesFence && p.dialect.replaceEnd(strings.TrimSpace(marker)):
			if err := p.emit(i); err != nil {
				return err
			}
			p.state = stateOutside
		case p.dialect.replaceEnd(trimmed):
			return p.emit(i)
		case strings.HasPrefix(trimmed, fence):
			return p.malformed(i, "fence closed before the replace section ended")
		default:
			p.replace = append(p.replace, line)
		}
	}

	return nil
}

// finish reports a block left open at the end of the response.
func (p *parser) finish() error {
	switch p.state {
	case stateInSearch:
		return p.malformed(len(p.lines)-1, "response ended inside the search section")
	case stateBetween:
		return p.malformed(len(p.lines)-1, "response ended before the replace section")
	case stateInReplace:
		return p.malformed(len(p.lines)-1, "response ended inside the replace section")
	}
	return nil
}

// emit closes the current block and appends it.
func (p *parser) emit(end int) error {
	search := trimBlock(p.search)
	if search == "" {
		return p.malformed(end, "empty search section")
	}
	replace := trimBlock(p.replace)
	if replace == "" {
		return p.malformed(end, "empty replace section")
	}
	p.blocks = append(p.blocks, types.EditBlock{Search: search, Replace: replace})
	p.state = stateInFence
	return nil
}

func (p *parser) malformed(end int, msg string) error {
	return &ParseError{
		Position: p.start + 1,
		Dialect:  p.dialect.name,
		RawText:  reconstructBlock(p.lines, p.start, end+1),
		Message:  msg,
	}
}

// trimBlock joins captured lines, dropping leading blank lines and trailing
// whitespace. Indentation of the first non-blank line is kept.
func trimBlock(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	return strings.TrimRight(strings.Join(lines[start:], "\n"), " \t\r\n")
}

// literal matches a line equal to marker.
func literal(marker string) func(string) bool {
	return func(line string) bool {
		return line == marker
	}
}

// run matches a line made of at least three ch characters, followed by
// optional whitespace and word. An empty word requires the line to be the
// run alone.
func run(ch byte, word string) func(string) bool {
	return func(line string) bool {
		n := 0
		for n < len(line) && line[n] == ch {
			n++
		}
		if n < 3 {
			return false
		}
		return strings.TrimSpace(line[n:]) == word
	}
}

// reconstructBlock joins lines from start to end for error reporting.
func reconstructBlock(lines []string, start, end int) string {
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
