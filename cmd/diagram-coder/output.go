// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/petar-djukic/diagram-coder/pkg/coder"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

var (
	labelColor   = color.New(color.Bold, color.FgHiCyan)
	successColor = color.New(color.Bold, color.FgHiGreen)
	warnColor    = color.New(color.Bold, color.FgHiYellow)
	errorColor   = color.New(color.Bold, color.FgHiRed)
)

const maxCellLength = 40

// outcomeTable renders one row per edit block. edits may be nil when only
// outcomes are known.
func outcomeTable(edits []types.EditBlock, outcomes []types.EditOutcome) string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"#", "Search", "Matches", "Note"})
	table.SetAutoWrapText(false)

	for _, o := range outcomes {
		search := ""
		if o.Index < len(edits) {
			search = firstLine(edits[o.Index].Search)
		} else if o.Diagnostic != nil {
			search = firstLine(o.Diagnostic.SearchText)
		}

		note := ""
		rowColor := tablewriter.FgHiGreenColor
		if o.Occurrences == 0 {
			rowColor = tablewriter.FgHiYellowColor
			note = "no match"
			if d := o.Diagnostic; d != nil && d.ClosestMatch != "" {
				note = fmt.Sprintf("closest: lines %d-%d (%.0f%%)", d.ClosestLineStart, d.ClosestLineEnd, d.Similarity*100)
			}
		}

		row := []string{strconv.Itoa(o.Index + 1), search, strconv.Itoa(o.Occurrences), note}
		table.Rich(row, []tablewriter.Colors{
			{rowColor, tablewriter.Bold},
			{rowColor},
			{rowColor},
			{rowColor},
		})
	}

	table.Render()
	return tableString.String()
}

func printSummary(w io.Writer, approach coder.Approach, editsApplied int, usage types.TokenUsage) {
	switch {
	case approach == coder.ApproachRewrite:
		fmt.Fprintln(w, successColor.Sprint("✅ Code rewritten"))
	case editsApplied == 0:
		fmt.Fprintln(w, warnColor.Sprint("⚠️  No edits applied; the code is unchanged"))
	default:
		fmt.Fprintln(w, successColor.Sprintf("✅ %d edit(s) applied", editsApplied))
	}
	if usage.Total() > 0 {
		fmt.Fprintf(w, "%s %d in / %d out\n", labelColor.Sprint("Tokens:"), usage.InputTokens, usage.OutputTokens)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", errorColor.Sprint("Error:"), err)
}

// printJSON outputs v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(strings.TrimSpace(s), "\n")
	if cut {
		line += " ..."
	}
	if len(line) > maxCellLength {
		line = line[:maxCellLength-3] + "..."
	}
	return line
}
