// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	internalcoder "github.com/petar-djukic/diagram-coder/internal/coder"
	"github.com/petar-djukic/diagram-coder/internal/docs"
	"github.com/petar-djukic/diagram-coder/internal/llm"
	"github.com/petar-djukic/diagram-coder/internal/prompt"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
	maxTemperature   = 2
)

// New validates the config, wires the model adapter, documentation client
// and prompt assembler, and returns a ready-to-use Coder.
func New(cfg Config) (Coder, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)

	adapter := llm.NewAdapter(llm.Config{
		Models:        cfg.Models,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		Region:        cfg.Region,
		Profile:       cfg.Profile,
		Logger:        cfg.Logger,
	})
	c, err := newCoder(cfg, adapter)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// newCoder builds the Coder around gen. Tests pass a fake generator.
func newCoder(cfg Config, gen internalcoder.Generator) (*coderAdapter, error) {
	fetcher := docs.NewClient(docs.Config{
		Endpoint:   cfg.DocsEndpoint,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})
	assembler, err := prompt.New(prompt.Config{
		Fetcher:        fetcher,
		PlanReferences: cfg.PlanReferences,
	})
	if err != nil {
		return nil, err
	}

	runner := internalcoder.NewRunner(internalcoder.Deps{
		Generator:  gen,
		Assembler:  assembler,
		Logger:     cfg.Logger,
		LogPrompts: cfg.LogPrompts,
	})
	return &coderAdapter{runner: runner, model: cfg.Model, approach: cfg.Approach}, nil
}

// coderAdapter adapts internal/coder.Runner to the public Coder interface.
type coderAdapter struct {
	runner   *internalcoder.Runner
	model    string
	approach Approach
}

func (a *coderAdapter) GenerateCode(ctx context.Context, req Request) (*Result, error) {
	if req.ModelID == "" {
		req.ModelID = a.model
	}
	if req.Approach == "" {
		req.Approach = a.approach
	}

	ir, err := a.runner.Run(ctx, internalcoder.Request{
		Instruction: req.Instruction,
		Source:      req.Source,
		Credential:  req.Credential,
		ModelID:     req.ModelID,
		Selection:   req.Selection,
		Approach:    req.Approach,
	})
	if ir == nil {
		return &Result{Approach: req.Approach}, err
	}
	return &Result{
		Content:      ir.Content,
		EditsApplied: ir.EditsApplied,
		Outcomes:     ir.Outcomes,
		Plan:         ir.Plan,
		Approach:     ir.Approach,
		Usage:        ir.Usage,
		FinalState:   ir.FinalState,
	}, err
}

// validateConfig checks field ranges and that a configured model has a
// backend.
func validateConfig(cfg Config) error {
	if cfg.Approach != "" && cfg.Approach != ApproachEdit && cfg.Approach != ApproachRewrite {
		return fmt.Errorf("Approach %q must be %q or %q", cfg.Approach, ApproachEdit, ApproachRewrite)
	}
	if t := cfg.Temperature; t != nil && (*t < 0 || *t > maxTemperature) {
		return fmt.Errorf("Temperature %v must be between 0 and %d", *t, maxTemperature)
	}
	if cfg.MaxTokens < 0 {
		return fmt.Errorf("MaxTokens must not be negative")
	}
	for id, b := range cfg.Models {
		if b != BackendOpenAI && b != BackendGoogle && b != BackendBedrock {
			return fmt.Errorf("model %q maps to unknown backend %q", id, b)
		}
	}
	if cfg.Model != "" {
		_, builtin := llm.DefaultModels[cfg.Model]
		_, extra := cfg.Models[cfg.Model]
		if !builtin && !extra {
			return fmt.Errorf("Model %q has no backend; add it to Models", cfg.Model)
		}
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Approach == "" {
		cfg.Approach = ApproachEdit
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
