// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/diagram-coder/pkg/coder"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// newRunCmd creates the "run" command.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply an instruction to diagram code",
		Long:  "Run plans the change, asks the model for edits, and applies them to a file (--file) or a stored document (--doc).",
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction, _ := cmd.Flags().GetString("instruction")
			return runInstruction(cmd, instruction)
		},
	}

	cmd.Flags().StringP("instruction", "i", "", "What to change (required)")
	cmd.MarkFlagRequired("instruction")
	addTargetFlags(cmd)

	return cmd
}

// newFixCmd creates the "fix" command.
func newFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Ask the model to fix a runtime error",
		Long:  "Fix reads a Python traceback from executing the diagram code and runs a \"Fix this\" instruction built from it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			errorPath, _ := cmd.Flags().GetString("error")
			raw, err := readInput(cmd, errorPath)
			if err != nil {
				return err
			}
			source, err := loadSource(cmd)
			if err != nil {
				return err
			}
			return runInstruction(cmd, coder.FixInstruction(raw, source))
		},
	}

	cmd.Flags().StringP("error", "e", "-", "File holding the traceback (- for stdin)")
	addTargetFlags(cmd)

	return cmd
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Diagram source file")
	cmd.Flags().StringP("doc", "d", "", "Document key in the store")
	cmd.Flags().StringArrayP("select", "s", nil, "Selected mobject as Type:path[:line] (repeatable)")
	cmd.Flags().BoolP("write", "w", false, "Write the updated code back to --file")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("file", "doc")
	cmd.MarkFlagsOneRequired("file", "doc")
}

// runInstruction runs one instruction against the command's target and
// prints the outcome.
func runInstruction(cmd *cobra.Command, instruction string) error {
	selection, err := selectionFlag(cmd)
	if err != nil {
		return err
	}

	c, err := coder.New(configFromViper())
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	req := coder.Request{
		Instruction: instruction,
		Credential:  viper.GetString("api-key"),
		Selection:   selection,
	}

	var result *coder.Result
	if doc, _ := cmd.Flags().GetString("doc"); doc != "" {
		s, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		result, err = coder.EditDocument(ctx, c, s, doc, req)
		if err != nil {
			return reportFailure(cmd, result, err)
		}
	} else {
		path, _ := cmd.Flags().GetString("file")
		if req.Source, err = readFile(path); err != nil {
			return err
		}
		result, err = c.GenerateCode(ctx, req)
		if err != nil {
			return reportFailure(cmd, result, err)
		}
		if write, _ := cmd.Flags().GetBool("write"); write {
			if err := os.WriteFile(path, []byte(result.Content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
	}

	return printRunResult(cmd, result)
}

func reportFailure(cmd *cobra.Command, result *coder.Result, err error) error {
	printError(cmd.ErrOrStderr(), err)
	if result != nil && result.FinalState != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "stopped in state %s\n", result.FinalState)
	}
	return err
}

func printRunResult(cmd *cobra.Command, result *coder.Result) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}

	errOut := cmd.ErrOrStderr()
	if result.Plan.Plan != "" {
		fmt.Fprintf(errOut, "%s %s\n", labelColor.Sprint("Plan:"), result.Plan.Plan)
	}
	if len(result.Outcomes) > 0 {
		fmt.Fprint(errOut, outcomeTable(nil, result.Outcomes))
	}
	printSummary(errOut, result.Approach, result.EditsApplied, result.Usage)

	write, _ := cmd.Flags().GetBool("write")
	doc, _ := cmd.Flags().GetString("doc")
	if !write && doc == "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Content)
	}
	return nil
}

// configFromViper builds the library config from flags, env and file.
func configFromViper() coder.Config {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	var models map[string]coder.Backend
	if m := viper.GetStringMapString("models"); len(m) > 0 {
		models = make(map[string]coder.Backend, len(m))
		for id, backend := range m {
			models[id] = coder.Backend(backend)
		}
	}

	temperature := float32(viper.GetFloat64("temperature"))

	return coder.Config{
		Model:          viper.GetString("model"),
		Approach:       coder.Approach(viper.GetString("approach")),
		Models:         models,
		Temperature:    &temperature,
		MaxTokens:      viper.GetInt("max-tokens"),
		OpenAIBaseURL:  viper.GetString("openai-base-url"),
		Region:         viper.GetString("region"),
		Profile:        viper.GetString("profile"),
		DocsEndpoint:   viper.GetString("docs-endpoint"),
		PlanReferences: viper.GetStringSlice("plan-references"),
		LogPrompts:     viper.GetBool("log-prompts"),
		Logger:         slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// openStore opens the configured document store and returns its closer.
func openStore() (coder.Store, func() error, error) {
	dir := viper.GetString("store-dir")
	noop := func() error { return nil }

	switch kind := viper.GetString("store"); kind {
	case "file":
		s, err := coder.NewFileStore(dir)
		return s, noop, err
	case "git":
		s, err := coder.NewGitStore(dir)
		return s, noop, err
	case "bolt":
		s, err := coder.OpenBoltStore(filepath.Join(dir, "diagrams.db"))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q (want file, git or bolt)", kind)
	}
}

// loadSource returns the command target's current source.
func loadSource(cmd *cobra.Command) (string, error) {
	if doc, _ := cmd.Flags().GetString("doc"); doc != "" {
		s, closeStore, err := openStore()
		if err != nil {
			return "", err
		}
		defer closeStore()
		source, ok, err := s.Get(doc)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %q", coder.ErrDocumentNotFound, doc)
		}
		return source, nil
	}
	path, _ := cmd.Flags().GetString("file")
	return readFile(path)
}

func selectionFlag(cmd *cobra.Command) ([]types.SelectionDescriptor, error) {
	values, _ := cmd.Flags().GetStringArray("select")
	out := make([]types.SelectionDescriptor, 0, len(values))
	for _, v := range values {
		s, err := parseSelection(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// parseSelection parses "Type:path" or "Type:path:line".
func parseSelection(v string) (types.SelectionDescriptor, error) {
	parts := strings.SplitN(v, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return types.SelectionDescriptor{}, fmt.Errorf("selection %q: want Type:path[:line]", v)
	}
	s := types.SelectionDescriptor{Type: parts[0], Path: parts[1]}
	if len(parts) == 3 {
		line, err := strconv.Atoi(parts[2])
		if err != nil || line < 1 {
			return types.SelectionDescriptor{}, fmt.Errorf("selection %q: line must be a positive number", v)
		}
		s.Line = line
	}
	return s, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// readInput reads path, or the command's stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path != "-" {
		return readFile(path)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("no input on stdin")
	}
	return string(data), nil
}
