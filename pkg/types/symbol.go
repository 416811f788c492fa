// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across diagram-coder packages.
package types

// SymbolKind identifies the category of a top-level definition in diagram
// source.
type SymbolKind int

const (
	Function SymbolKind = iota // def name(...)
	Class                      // class Name
	Variable                   // name = ...
)

// String returns the human-readable name of the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case Function:
		return "Function"
	case Class:
		return "Class"
	case Variable:
		return "Variable"
	default:
		return "Unknown"
	}
}

// Symbol is a name defined in diagram source.
type Symbol struct {
	Name string     // Identifier
	Kind SymbolKind // Category
	Line int        // Line number (1-based) of the first definition
}
