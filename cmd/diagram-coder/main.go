// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command diagram-coder edits smanim diagram code from natural-language
// instructions.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "diagram-coder",
		Short:        "Edit smanim diagram code with a language model",
		Long:         "diagram-coder plans a change with the smanim documentation, asks the model for search/replace edits, and applies them to the diagram code.",
		SilenceUsage: true,
	}

	// Global flags.
	flags := rootCmd.PersistentFlags()
	flags.String("model", "gpt-4o", "Model identifier")
	flags.String("approach", "edit", "Second stage: edit (search/replace) or rewrite (whole file)")
	flags.String("api-key", "", "Credential for the model backend")
	flags.String("docs-endpoint", "", "smanim documentation endpoint")
	flags.StringSlice("plan-references", nil, "Documents shown to the plan stage (default: the cheatsheet)")
	flags.String("region", "", "AWS region for Bedrock models")
	flags.String("profile", "", "AWS profile for Bedrock models")
	flags.Int("max-tokens", 4096, "Maximum tokens for the model response")
	flags.Float32("temperature", 0.4, "Sampling temperature")
	flags.String("openai-base-url", "", "OpenAI-compatible endpoint")
	flags.String("store", "file", "Document store for --doc: file, git or bolt")
	flags.String("store-dir", ".", "Directory holding the document store")
	flags.Bool("log-prompts", false, "Log every prompt and response (with --verbose)")
	flags.BoolP("verbose", "v", false, "Debug logging on stderr")

	// Bind flags to viper.
	for _, name := range []string{
		"model", "approach", "api-key", "docs-endpoint", "plan-references",
		"region", "profile", "max-tokens", "temperature", "openai-base-url",
		"store", "store-dir", "log-prompts", "verbose",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	// Env vars: DIAGRAM_CODER_MODEL, DIAGRAM_CODER_API_KEY, etc.
	viper.SetEnvPrefix("DIAGRAM_CODER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file; "models" (extra model -> backend mappings) is only read here.
	viper.SetConfigName(".diagram-coder")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print diagram-coder version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "diagram-coder %s\n", version)
		},
	}
}
