// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package outline indexes the top-level definitions of diagram source so
// selection descriptors can be tied back to their defining lines.
package outline

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// defQ captures module-level names. Capture names select the symbol kind.
const defQ = `
	(module (expression_statement (assignment left: (identifier) @variable)))
	(module (expression_statement (assignment left: (pattern_list (identifier) @variable))))
	(module (function_definition name: (identifier) @function))
	(module (class_definition name: (identifier) @class))
`

var captureKinds = map[string]types.SymbolKind{
	"variable": types.Variable,
	"function": types.Function,
	"class":    types.Class,
}

// Outline is the set of top-level definitions in one source text, in
// source order. Only the first definition of a name is kept.
type Outline struct {
	Symbols []types.Symbol
	byName  map[string]types.Symbol
}

// Index parses source as Python and collects its top-level definitions.
// Syntax errors do not fail the index; tree-sitter recovers and the
// definitions it can see are returned.
func Index(ctx context.Context, source string) (*Outline, error) {
	lang := python.GetLanguage()
	content := []byte(source)

	root, err := sitter.ParseCtx(ctx, content, lang)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}

	q, err := sitter.NewQuery([]byte(defQ), lang)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	o := &Outline{byName: make(map[string]types.Symbol)}
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			name := c.Node.Content(content)
			kind, known := captureKinds[q.CaptureNameForId(c.Index)]
			if name == "" || !known {
				continue
			}
			line := int(c.Node.StartPoint().Row) + 1 // 0-based to 1-based
			if prev, seen := o.byName[name]; seen && prev.Line <= line {
				continue
			}
			o.byName[name] = types.Symbol{Name: name, Kind: kind, Line: line}
		}
	}

	for _, s := range o.byName {
		o.Symbols = append(o.Symbols, s)
	}
	sort.Slice(o.Symbols, func(i, j int) bool {
		if o.Symbols[i].Line != o.Symbols[j].Line {
			return o.Symbols[i].Line < o.Symbols[j].Line
		}
		return o.Symbols[i].Name < o.Symbols[j].Name
	})
	return o, nil
}

// Lookup returns the definition of name.
func (o *Outline) Lookup(name string) (types.Symbol, bool) {
	s, ok := o.byName[name]
	return s, ok
}

// LineOf returns the defining line of the root identifier of an accessor
// path such as "graph.vertices[0]", or 0 when it is not defined at top level.
func (o *Outline) LineOf(path string) int {
	s, ok := o.Lookup(rootIdentifier(path))
	if !ok {
		return 0
	}
	return s.Line
}

// FillLines returns a copy of selection with missing line numbers resolved
// from the outline. Descriptors that already carry a line keep it.
func (o *Outline) FillLines(selection []types.SelectionDescriptor) []types.SelectionDescriptor {
	out := make([]types.SelectionDescriptor, len(selection))
	for i, s := range selection {
		if s.Line == 0 {
			s.Line = o.LineOf(s.Path)
		}
		out[i] = s
	}
	return out
}

// rootIdentifier returns the leading Python identifier of path.
func rootIdentifier(path string) string {
	end := 0
	for end < len(path) {
		ch := path[end]
		isIdent := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (end > 0 && ch >= '0' && ch <= '9')
		if !isIdent {
			break
		}
		end++
	}
	return path[:end]
}
