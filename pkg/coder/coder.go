// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package coder is the public interface of diagram-coder: it turns a
// natural-language instruction and a diagram's source into updated source
// by planning with reference documentation and applying the model's
// search/replace edits.
package coder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	internalcoder "github.com/petar-djukic/diagram-coder/internal/coder"
	"github.com/petar-djukic/diagram-coder/internal/editformat"
	"github.com/petar-djukic/diagram-coder/internal/llm"
	"github.com/petar-djukic/diagram-coder/internal/store"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

// Error types for the Coder API.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrLLMFailure         = llm.ErrLLMFailure
	ErrUnknownModel       = llm.ErrUnknownModel
	ErrEmptyResponse      = internalcoder.ErrEmptyResponse
	ErrMalformedPlan      = internalcoder.ErrMalformedPlan
	ErrMalformedEditBlock = editformat.ErrMalformedEditBlock
	ErrNoUpdatedCode      = editformat.ErrNoUpdatedCode
	ErrNoCodeBlock        = editformat.ErrNoCodeBlock
	ErrUnclosedCodeBlock  = editformat.ErrUnclosedCodeBlock
)

// Approach selects how the second stage changes the source.
type Approach = internalcoder.Approach

const (
	ApproachEdit    = internalcoder.ApproachEdit
	ApproachRewrite = internalcoder.ApproachRewrite
)

// Backend names a chat-completion provider.
type Backend = llm.Backend

const (
	BackendOpenAI  = llm.BackendOpenAI
	BackendGoogle  = llm.BackendGoogle
	BackendBedrock = llm.BackendBedrock
)

// Config configures a Coder instance. Zero values select defaults.
type Config struct {
	Model          string             // Model used when a request names none (default "gpt-4o")
	Approach       Approach           // Default approach (default ApproachEdit)
	Models         map[string]Backend // Extra model-to-backend mappings
	Temperature    *float32           // Sampling temperature (nil selects 0.4)
	MaxTokens      int                // Maximum tokens for the model response (default 4096)
	OpenAIBaseURL  string             // OpenAI-compatible endpoint (optional)
	Region         string             // AWS region for Bedrock models (default us-east-1)
	Profile        string             // AWS profile for Bedrock models (optional)
	DocsEndpoint   string             // Reference documentation endpoint
	PlanReferences []string           // Documents shown to the plan stage (default the cheatsheet)
	LogPrompts     bool               // Log every prompt and response at debug level
	Logger         *slog.Logger
	HTTPClient     *http.Client // Client for reference documentation
}

// Request is one instruction against one source text.
type Request struct {
	Instruction string
	Source      string
	Credential  string // Backend API key; never logged
	Selection   []types.SelectionDescriptor
	ModelID     string   // Default Config.Model
	Approach    Approach // Default Config.Approach
}

// Result holds the outcome of a GenerateCode invocation.
type Result struct {
	Content      string              // Updated source
	EditsApplied int                 // Substring replacements performed
	Outcomes     []types.EditOutcome // Per-block outcomes, with diagnostics for blocks that matched nothing
	Plan         types.PlanResult
	Approach     Approach
	Usage        types.TokenUsage // Tokens consumed by both model calls
	FinalState   string           // Orchestrator state the run ended in
}

// Coder generates updated diagram code.
type Coder interface {
	// GenerateCode runs the plan stage, then the edit (or rewrite) stage,
	// and returns the updated source. The request's source is never
	// modified; on error Result.Content is empty.
	GenerateCode(ctx context.Context, req Request) (*Result, error)
}

// Store is a named-document store used by EditDocument.
type Store = store.Store

// Store implementations.
var (
	NewMemoryStore = store.NewMemoryStore
	NewFileStore   = store.NewFileStore
	NewGitStore    = store.NewGitStore
	OpenBoltStore  = store.OpenBoltStore
)
