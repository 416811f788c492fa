// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prompt builds the conversations sent to the model for the plan,
// edit and rewrite stages. Each stage has a static prefix of system and
// example messages, rendered once, followed by a user message rendered per
// request from embedded templates.
package prompt

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/petar-djukic/diagram-coder/internal/docs"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Stage names a pipeline stage with its own prompt.
type Stage string

const (
	StagePlan    Stage = "plan"
	StageEdit    Stage = "edit"
	StageRewrite Stage = "rewrite"
)

const exampleInstruction = "Add an edge between these vertices"

// exampleSelection is what the user had selected in the few-shot example.
var exampleSelection = []types.SelectionDescriptor{
	{Type: "Circle", Path: "graph.vertices[5]"},
	{Type: "Circle", Path: "start_vertex", Line: 22},
}

// Fetcher retrieves reference documents. Failed documents are omitted.
type Fetcher interface {
	FetchAll(ctx context.Context, slugs []string) []docs.Document
}

// Prompt is the static part of one stage's conversation.
type Prompt struct {
	Name     Stage
	Messages []types.Message
}

// Input carries the per-request values rendered into a user message.
type Input struct {
	Instruction  string
	Source       string
	Selection    []types.SelectionDescriptor
	Plan         string   // Edit and rewrite stages
	ReferenceIDs []string // Edit and rewrite stages
}

// Config configures an Assembler.
type Config struct {
	Fetcher        Fetcher  // Nil disables reference documents
	PlanReferences []string // Documents for the plan stage (default: the cheatsheet)
}

// Assembler renders stage conversations. Static prefixes are built in New;
// render calls share no mutable state.
type Assembler struct {
	tmpl     *template.Template
	prompts  map[Stage]*Prompt
	fetcher  Fetcher
	planRefs []string
}

// userData is the template view of an Input.
type userData struct {
	Instruction string
	Source      string
	Selection   []string
	Plan        string
	References  []docs.Document
}

// New parses the embedded templates and renders the static prefixes.
func New(cfg Config) (*Assembler, error) {
	tmpl, err := template.New("prompt").
		Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing prompt templates: %w", err)
	}

	planRefs := cfg.PlanReferences
	if planRefs == nil {
		planRefs = []string{docs.CheatsheetSlug}
	}

	a := &Assembler{
		tmpl:     tmpl,
		fetcher:  cfg.Fetcher,
		planRefs: planRefs,
	}
	if err := a.buildPrefixes(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Assembler) buildPrefixes() error {
	system := make(map[Stage]string, 3)
	for stage, name := range map[Stage]string{
		StagePlan:    "plan_system.tmpl",
		StageEdit:    "edit_system.tmpl",
		StageRewrite: "rewrite_system.tmpl",
	} {
		text, err := a.execute(name, nil)
		if err != nil {
			return err
		}
		system[stage] = strings.TrimSpace(text)
	}

	exampleSource, err := a.execute("edit_example_source.tmpl", nil)
	if err != nil {
		return err
	}
	exampleUser, err := a.execute("edit_user.tmpl", userData{
		Instruction: exampleInstruction,
		Source:      strings.TrimSpace(exampleSource),
		Selection:   describe(exampleSelection),
	})
	if err != nil {
		return err
	}
	exampleAssistant, err := a.execute("edit_example_assistant.tmpl", nil)
	if err != nil {
		return err
	}

	a.prompts = map[Stage]*Prompt{
		StagePlan: {
			Name:     StagePlan,
			Messages: []types.Message{{Role: types.RoleSystem, Content: system[StagePlan]}},
		},
		StageEdit: {
			Name: StageEdit,
			Messages: []types.Message{
				{Role: types.RoleSystem, Content: system[StageEdit]},
				{Role: types.RoleUser, Content: exampleUser},
				{Role: types.RoleAssistant, Content: strings.TrimSpace(exampleAssistant)},
			},
		},
		StageRewrite: {
			Name:     StageRewrite,
			Messages: []types.Message{{Role: types.RoleSystem, Content: system[StageRewrite]}},
		},
	}
	return nil
}

// Prompt returns the static prefix of stage.
func (a *Assembler) Prompt(stage Stage) (*Prompt, error) {
	p, ok := a.prompts[stage]
	if !ok {
		return nil, fmt.Errorf("unknown prompt stage %q", stage)
	}
	return p, nil
}

// Conversation returns a new slice holding the static prefix of stage
// followed by msg. The prefix itself is never modified.
func (a *Assembler) Conversation(stage Stage, msg types.Message) ([]types.Message, error) {
	p, err := a.Prompt(stage)
	if err != nil {
		return nil, err
	}
	out := make([]types.Message, 0, len(p.Messages)+1)
	out = append(out, p.Messages...)
	return append(out, msg), nil
}

// Render renders the user message for stage.
func (a *Assembler) Render(ctx context.Context, stage Stage, in Input) (types.Message, error) {
	switch stage {
	case StagePlan:
		return a.RenderPlan(ctx, in)
	case StageEdit:
		return a.RenderEdit(ctx, in)
	case StageRewrite:
		return a.RenderRewrite(ctx, in)
	}
	return types.Message{}, fmt.Errorf("unknown prompt stage %q", stage)
}

// RenderPlan renders the plan-stage user message with the cheatsheet,
// source, selection and instruction. Plan and ReferenceIDs are ignored.
func (a *Assembler) RenderPlan(ctx context.Context, in Input) (types.Message, error) {
	return a.renderUser(ctx, "plan_user.tmpl", in, "", a.planRefs)
}

// RenderEdit renders the edit-stage user message with the referenced
// documentation, source, selection, plan and instruction.
func (a *Assembler) RenderEdit(ctx context.Context, in Input) (types.Message, error) {
	return a.renderUser(ctx, "edit_user.tmpl", in, in.Plan, in.ReferenceIDs)
}

// RenderRewrite renders the rewrite-stage user message.
func (a *Assembler) RenderRewrite(ctx context.Context, in Input) (types.Message, error) {
	return a.renderUser(ctx, "rewrite_user.tmpl", in, in.Plan, in.ReferenceIDs)
}

func (a *Assembler) renderUser(ctx context.Context, name string, in Input, plan string, refs []string) (types.Message, error) {
	var references []docs.Document
	if a.fetcher != nil && len(refs) > 0 {
		references = a.fetcher.FetchAll(ctx, refs)
	}

	content, err := a.execute(name, userData{
		Instruction: in.Instruction,
		Source:      in.Source,
		Selection:   describe(in.Selection),
		Plan:        plan,
		References:  references,
	})
	if err != nil {
		return types.Message{}, err
	}
	return types.Message{Role: types.RoleUser, Content: content}, nil
}

func (a *Assembler) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := a.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing %s: %w", name, err)
	}
	return buf.String(), nil
}

func describe(selection []types.SelectionDescriptor) []string {
	out := make([]string, len(selection))
	for i, s := range selection {
		out[i] = s.String()
	}
	return out
}
