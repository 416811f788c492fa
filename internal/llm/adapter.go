// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package llm sends a conversation to a chat-completion backend and returns
// the completion text. The backend is chosen from the model identifier
// through a lookup table; each backend is a Strategy.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/petar-djukic/diagram-coder/pkg/types"
)

const (
	defaultTemperature = 0.4
	defaultMaxTokens   = 4096
	defaultTimeout     = 300 * time.Second
)

var (
	// ErrLLMFailure indicates the backend call failed (network, auth, rate limit).
	ErrLLMFailure = errors.New("LLM failure")

	// ErrUnknownModel indicates a model identifier with no backend mapping.
	ErrUnknownModel = errors.New("unknown model")

	// ErrInvalidConversation indicates a conversation the backend cannot
	// represent, such as several system messages for a single system slot.
	ErrInvalidConversation = errors.New("invalid conversation")
)

// Backend names a chat-completion provider.
type Backend string

const (
	BackendOpenAI  Backend = "openai"
	BackendGoogle  Backend = "google"
	BackendBedrock Backend = "bedrock"
)

// DefaultModels maps the supported model identifiers to their backends.
var DefaultModels = map[string]Backend{
	"gpt-4o":         BackendOpenAI,
	"gpt-3.5-turbo":  BackendOpenAI,
	"gemini-1.5-pro": BackendGoogle,

	"anthropic.claude-sonnet-4-5-20250929-v1:0": BackendBedrock,
}

// Request is one completion call as seen by a Strategy.
type Request struct {
	Messages    []types.Message
	Credential  string
	ModelID     string
	Temperature float32
	MaxTokens   int
}

// Completion is the backend's answer. An empty Text means the backend
// produced no usable text; the caller decides whether that is an error.
type Completion struct {
	Text    string
	Usage   types.TokenUsage
	Backend Backend
}

// Strategy performs a completion against one backend.
type Strategy interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Config configures an Adapter. Zero values select defaults.
type Config struct {
	Models        map[string]Backend   // Extra model mappings, merged over DefaultModels
	Strategies    map[Backend]Strategy // Overrides the built-in strategy for a backend
	Temperature   *float32             // Sampling temperature; nil selects 0.4, zero is greedy
	MaxTokens     int                  // Response token cap (default 4096)
	OpenAIBaseURL string               // OpenAI-compatible endpoint (optional)
	Region        string               // AWS region for Bedrock
	Profile       string               // AWS profile for Bedrock (optional)
	Timeout       time.Duration        // Per-call timeout for Bedrock (default 300s)
	Logger        *slog.Logger
}

// Adapter dispatches conversations to backends. It holds no per-request
// state and is safe for concurrent use.
type Adapter struct {
	models      map[string]Backend
	strategies  map[Backend]Strategy
	temperature float32
	maxTokens   int
	logger      *slog.Logger
}

// NewAdapter builds an Adapter with the built-in strategies for every
// backend, replaced by any in cfg.Strategies.
func NewAdapter(cfg Config) *Adapter {
	temperature := float32(defaultTemperature)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	models := make(map[string]Backend, len(DefaultModels)+len(cfg.Models))
	for id, b := range DefaultModels {
		models[id] = b
	}
	for id, b := range cfg.Models {
		models[id] = b
	}

	strategies := map[Backend]Strategy{
		BackendOpenAI: NewOpenAIStrategy(cfg.OpenAIBaseURL),
		BackendGoogle: NewGoogleStrategy(cfg.Logger),
		BackendBedrock: NewBedrockStrategy(BedrockConfig{
			Region:  cfg.Region,
			Profile: cfg.Profile,
			Timeout: cfg.Timeout,
		}),
	}
	for b, s := range cfg.Strategies {
		strategies[b] = s
	}

	return &Adapter{
		models:      models,
		strategies:  strategies,
		temperature: temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Backend returns the backend serving modelID.
func (a *Adapter) Backend(modelID string) (Backend, error) {
	b, ok := a.models[modelID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	return b, nil
}

// Generate sends messages to the backend for modelID and returns its
// completion. An unknown model fails before any network call. When the
// backend reports no usage, token counts are estimated locally.
func (a *Adapter) Generate(ctx context.Context, messages []types.Message, credential, modelID string) (*Completion, error) {
	backend, err := a.Backend(modelID)
	if err != nil {
		return nil, err
	}
	strategy, ok := a.strategies[backend]
	if !ok {
		return nil, fmt.Errorf("%w: no strategy for backend %s", ErrUnknownModel, backend)
	}

	start := time.Now()
	completion, err := strategy.Complete(ctx, Request{
		Messages:    messages,
		Credential:  credential,
		ModelID:     modelID,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		a.logger.Error("model call failed", "backend", backend, "model", modelID, "error", err)
		return nil, err
	}

	completion.Backend = backend
	if completion.Usage.Total() == 0 && completion.Text != "" {
		completion.Usage = types.TokenUsage{
			InputTokens:  EstimateMessages(messages),
			OutputTokens: EstimateTokens(completion.Text),
		}
	}

	a.logger.Debug("model call",
		"backend", backend,
		"model", modelID,
		"duration", time.Since(start),
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
	)
	return completion, nil
}
