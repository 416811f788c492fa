// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package coder implements the two-stage orchestrator: a plan call picks
// reference documents, then an edit call produces search/replace blocks
// that are applied to the source. A rewrite mode replaces the edit call
// with a whole-file rewrite.
package coder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/petar-djukic/diagram-coder/internal/editformat"
	"github.com/petar-djukic/diagram-coder/internal/editor"
	"github.com/petar-djukic/diagram-coder/internal/llm"
	"github.com/petar-djukic/diagram-coder/internal/outline"
	"github.com/petar-djukic/diagram-coder/internal/prompt"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

var (
	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrMalformedPlan indicates a plan response missing a labelled section.
	ErrMalformedPlan = errors.New("malformed plan")
)

// Approach selects how the second stage changes the source.
type Approach string

const (
	ApproachEdit    Approach = "edit"    // Search/replace blocks
	ApproachRewrite Approach = "rewrite" // Whole-file replacement
)

// Generator abstracts the model call so the orchestrator is testable.
type Generator interface {
	Generate(ctx context.Context, messages []types.Message, credential, modelID string) (*llm.Completion, error)
}

// Request is one user instruction against one source text.
type Request struct {
	Instruction string
	Source      string
	Credential  string
	ModelID     string
	Selection   []types.SelectionDescriptor
	Approach    Approach // Default ApproachEdit
}

// RunResult holds the outcome of a Runner.Run invocation. This is the
// internal result type; pkg/coder converts it to the public Result.
type RunResult struct {
	Content      string              // Updated source
	EditsApplied int                 // Substring replacements performed (edit approach)
	Edits        []types.EditBlock   // Parsed edit blocks (edit approach)
	Outcomes     []types.EditOutcome // Per-block application outcomes (edit approach)
	Plan         types.PlanResult
	Approach     Approach
	Usage        types.TokenUsage // Summed over both model calls
	FinalState   string
}

// Deps holds injected dependencies for the runner.
type Deps struct {
	Generator  Generator
	Assembler  *prompt.Assembler
	Logger     *slog.Logger
	LogPrompts bool // Log every message of each stage at debug level
}

// Runner orchestrates plan and edit calls. It keeps no per-request state
// and may serve unrelated requests concurrently.
type Runner struct {
	deps Deps
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{deps: deps}
}

// run is the state of one orchestration.
type run struct {
	*Runner
	req    Request
	sm     *fsm.FSM
	logger *slog.Logger
	result *RunResult
}

// Run executes plan, then edit or rewrite, then apply. Any failure is
// terminal: nothing is retried and the caller's source is left as it was.
// A successful run whose blocks matched nothing reports EditsApplied == 0.
func (r *Runner) Run(ctx context.Context, req Request) (*RunResult, error) {
	if req.Approach == "" {
		req.Approach = ApproachEdit
	}
	if req.Approach != ApproachEdit && req.Approach != ApproachRewrite {
		return nil, fmt.Errorf("unknown approach %q", req.Approach)
	}

	x := &run{
		Runner: r,
		req:    req,
		sm:     newRunState(),
		logger: r.deps.Logger.With("run_id", uuid.NewString(), "model", req.ModelID, "approach", string(req.Approach)),
		result: &RunResult{Approach: req.Approach},
	}
	x.req.Selection = x.fillSelectionLines(ctx)

	err := x.execute(ctx)
	x.result.FinalState = x.sm.Current()
	if err != nil {
		x.logger.Error("run failed", "state", x.result.FinalState, "error", err)
		return x.result, err
	}

	x.logger.Info("run complete",
		"edits_applied", x.result.EditsApplied,
		"input_tokens", x.result.Usage.InputTokens,
		"output_tokens", x.result.Usage.OutputTokens,
	)
	return x.result, nil
}

func (x *run) execute(ctx context.Context) error {
	if err := x.transition(ctx, EventPlan); err != nil {
		return err
	}
	planText, err := x.call(ctx, prompt.StagePlan, prompt.Input{
		Instruction: x.req.Instruction,
		Source:      x.req.Source,
		Selection:   x.req.Selection,
	})
	if err != nil {
		return x.fail(ctx, fmt.Errorf("plan stage: %w", err))
	}
	if strings.TrimSpace(planText) == "" {
		return x.fail(ctx, fmt.Errorf("%w: error generating plan", ErrEmptyResponse))
	}

	if err := x.transition(ctx, EventPlanReady); err != nil {
		return err
	}
	plan, err := ParsePlan(planText)
	if err != nil {
		return x.fail(ctx, err)
	}
	x.result.Plan = plan
	x.logger.Debug("plan parsed", "plan", plan.Plan, "references", plan.ReferenceIDs)

	if x.req.Approach == ApproachRewrite {
		return x.rewrite(ctx, plan)
	}
	return x.edit(ctx, plan)
}

func (x *run) edit(ctx context.Context, plan types.PlanResult) error {
	if err := x.transition(ctx, EventEdit); err != nil {
		return err
	}
	response, err := x.call(ctx, prompt.StageEdit, x.secondStageInput(plan))
	if err != nil {
		return x.fail(ctx, fmt.Errorf("edit stage: %w", err))
	}
	if strings.TrimSpace(response) == "" {
		return x.fail(ctx, fmt.Errorf("%w: chat response should not be null", ErrEmptyResponse))
	}

	if err := x.transition(ctx, EventApply); err != nil {
		return err
	}
	edits, err := editformat.Parse(response)
	if err != nil {
		return x.fail(ctx, err)
	}
	applied := editor.Apply(x.req.Source, edits)
	x.logger.Debug("edits applied", "blocks", len(edits), "replacements", applied.EditsApplied, "no_ops", applied.NoOps())

	for _, o := range applied.Outcomes {
		if o.Diagnostic != nil {
			x.logger.Warn("edit block matched nothing", "index", o.Index, "diagnostic", o.Diagnostic.Error())
		}
	}

	x.result.Edits = edits
	x.result.Outcomes = applied.Outcomes
	x.result.EditsApplied = applied.EditsApplied
	x.result.Content = applied.Content
	return x.transition(ctx, EventFinish)
}

func (x *run) rewrite(ctx context.Context, plan types.PlanResult) error {
	if err := x.transition(ctx, EventRewrite); err != nil {
		return err
	}
	response, err := x.call(ctx, prompt.StageRewrite, x.secondStageInput(plan))
	if err != nil {
		return x.fail(ctx, fmt.Errorf("rewrite stage: %w", err))
	}
	if strings.TrimSpace(response) == "" {
		return x.fail(ctx, fmt.Errorf("%w: chat response should not be null", ErrEmptyResponse))
	}

	if err := x.transition(ctx, EventApply); err != nil {
		return err
	}
	code, err := editformat.ExtractUpdatedCode(response)
	if err != nil {
		return x.fail(ctx, err)
	}

	x.result.Content = code
	return x.transition(ctx, EventFinish)
}

func (x *run) secondStageInput(plan types.PlanResult) prompt.Input {
	return prompt.Input{
		Instruction:  x.req.Instruction,
		Source:       x.req.Source,
		Selection:    x.req.Selection,
		Plan:         plan.Plan,
		ReferenceIDs: plan.ReferenceIDs,
	}
}

// call renders the stage conversation, sends it, and returns the response
// text. Usage is added to the run result.
func (x *run) call(ctx context.Context, stage prompt.Stage, in prompt.Input) (string, error) {
	msg, err := x.deps.Assembler.Render(ctx, stage, in)
	if err != nil {
		return "", err
	}
	conversation, err := x.deps.Assembler.Conversation(stage, msg)
	if err != nil {
		return "", err
	}

	completion, err := x.deps.Generator.Generate(ctx, conversation, x.req.Credential, x.req.ModelID)
	if err != nil {
		return "", err
	}
	x.result.Usage = x.result.Usage.Add(completion.Usage)

	if x.deps.LogPrompts {
		x.logPrompts(stage, conversation, completion.Text)
	}
	return completion.Text, nil
}

func (x *run) logPrompts(stage prompt.Stage, conversation []types.Message, response string) {
	for i, m := range conversation {
		x.logger.Debug("prompt message", "stage", string(stage), "index", i, "role", string(m.Role), "content", m.Content)
	}
	x.logger.Debug("prompt message", "stage", string(stage), "index", len(conversation), "role", string(types.RoleAssistant), "content", response)
}

// fillSelectionLines resolves missing selection line numbers from an
// outline of the source. An outline failure leaves the selection as given.
func (x *run) fillSelectionLines(ctx context.Context) []types.SelectionDescriptor {
	missing := false
	for _, s := range x.req.Selection {
		if s.Line == 0 {
			missing = true
			break
		}
	}
	if !missing {
		return x.req.Selection
	}

	o, err := outline.Index(ctx, x.req.Source)
	if err != nil {
		x.logger.Warn("outline failed; selection lines left unresolved", "error", err)
		return x.req.Selection
	}
	return o.FillLines(x.req.Selection)
}

func (x *run) transition(ctx context.Context, event string) error {
	from := x.sm.Current()
	if err := x.sm.Event(ctx, event); err != nil {
		return fmt.Errorf("state %s: event %s: %w", from, event, err)
	}
	x.logger.Debug("state", "from", from, "to", x.sm.Current())
	return nil
}

// fail moves the machine to the failed state and returns cause.
func (x *run) fail(ctx context.Context, cause error) error {
	if err := x.sm.Event(ctx, EventFail); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
