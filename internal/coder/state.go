// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import "github.com/looplab/fsm"

const (
	StateIdle       = "idle"
	StatePlanning   = "planning"
	StatePlanParsed = "plan_parsed"
	StateEditing    = "editing"
	StateRewriting  = "rewriting"
	StateApplying   = "applying"
	StateDone       = "done"
	StateFailed     = "failed"
)

const (
	EventPlan      = "plan"
	EventPlanReady = "plan_ready"
	EventEdit      = "edit"
	EventRewrite   = "rewrite"
	EventApply     = "apply"
	EventFinish    = "finish"
	EventFail      = "fail"
)

// newRunState returns the state machine for one orchestration.
func newRunState() *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventPlan, Src: []string{StateIdle}, Dst: StatePlanning},
			{Name: EventPlanReady, Src: []string{StatePlanning}, Dst: StatePlanParsed},
			{Name: EventEdit, Src: []string{StatePlanParsed}, Dst: StateEditing},
			{Name: EventRewrite, Src: []string{StatePlanParsed}, Dst: StateRewriting},
			{Name: EventApply, Src: []string{StateEditing, StateRewriting}, Dst: StateApplying},
			{Name: EventFinish, Src: []string{StateApplying}, Dst: StateDone},
			{Name: EventFail, Src: []string{StatePlanning, StatePlanParsed, StateEditing, StateRewriting, StateApplying}, Dst: StateFailed},
		},
		fsm.Callbacks{},
	)
}
