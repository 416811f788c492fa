// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/diagram-coder/internal/editformat"
	"github.com/petar-djukic/diagram-coder/internal/editor"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// newApplyCmd creates the "apply" command.
func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a saved model response to a file",
		Long:  "Apply parses the search/replace blocks in a model response and applies them to the file without calling a model.",
		RunE:  runApply,
	}

	cmd.Flags().StringP("file", "f", "", "Diagram source file (required)")
	cmd.Flags().StringP("response", "r", "-", "File holding the model response (- for stdin)")
	cmd.Flags().BoolP("write", "w", false, "Write the updated code back to --file")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	responsePath, _ := cmd.Flags().GetString("response")

	source, err := readFile(path)
	if err != nil {
		return err
	}
	response, err := readInput(cmd, responsePath)
	if err != nil {
		return err
	}

	edits, err := editformat.Parse(response)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return err
	}
	result := editor.Apply(source, edits)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}

	errOut := cmd.ErrOrStderr()
	if len(edits) > 0 {
		fmt.Fprint(errOut, outcomeTable(edits, result.Outcomes))
	}
	printSummary(errOut, "", result.EditsApplied, types.TokenUsage{})

	if write, _ := cmd.Flags().GetBool("write"); write {
		if result.EditsApplied == 0 {
			return nil
		}
		if err := os.WriteFile(path, []byte(result.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Content)
	return nil
}
