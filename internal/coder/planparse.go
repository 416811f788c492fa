// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/petar-djukic/diagram-coder/pkg/types"
)

var (
	planRe      = regexp.MustCompile(`(?s)Plan:\s*(.*?)\s*Relevant Files:`)
	filesRe     = regexp.MustCompile(`(?s)Relevant Files:\s*(.*)`)
	mdLinkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	docSuffixRe = regexp.MustCompile(`\.(mdx|md)$`)
)

// ParsePlan extracts the plan and reference identifiers from a plan-stage
// response. A response without a "Plan:" section ending at "Relevant Files:",
// or without the "Relevant Files:" section, is ErrMalformedPlan.
func ParsePlan(text string) (types.PlanResult, error) {
	planMatch := planRe.FindStringSubmatch(text)
	if planMatch == nil {
		return types.PlanResult{}, fmt.Errorf("%w: plan section not found", ErrMalformedPlan)
	}
	filesMatch := filesRe.FindStringSubmatch(text)
	if filesMatch == nil {
		return types.PlanResult{}, fmt.Errorf("%w: relevant files section not found", ErrMalformedPlan)
	}

	var refs []string
	for _, line := range strings.Split(filesMatch[1], "\n") {
		if ref := referenceID(line); ref != "" {
			refs = append(refs, ref)
		}
	}

	return types.PlanResult{
		Plan:         strings.TrimSpace(planMatch[1]),
		ReferenceIDs: refs,
	}, nil
}

// referenceID reduces one "Relevant Files:" line to a bare document slug:
// "- [graph.mdx](graph.mdx)" becomes "graph".
func referenceID(line string) string {
	ref := strings.TrimSpace(line)
	ref = strings.TrimSpace(strings.TrimPrefix(ref, "- "))
	if loc := mdLinkRe.FindStringSubmatchIndex(ref); loc != nil {
		ref = ref[:loc[0]] + ref[loc[2]:loc[3]] + ref[loc[1]:]
	}
	return docSuffixRe.ReplaceAllString(ref, "")
}
