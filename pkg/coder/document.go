// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package coder

import (
	"context"
	"fmt"

	"github.com/petar-djukic/diagram-coder/internal/feedback"
	"github.com/petar-djukic/diagram-coder/internal/store"
)

// EditDocument loads the document stored under key, runs req against it,
// and writes the updated source back. Nothing is written when the run
// fails or leaves the source unchanged. req.Source is ignored.
func EditDocument(ctx context.Context, c Coder, s Store, key string, req Request) (*Result, error) {
	source, ok, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, key)
	}

	req.Source = source
	result, err := c.GenerateCode(ctx, req)
	if err != nil {
		return result, err
	}
	if result.Content == source {
		return result, nil
	}

	if a, ok := s.(store.Annotated); ok {
		err = a.SetWithInstruction(key, result.Content, req.Instruction)
	} else {
		err = s.Set(key, result.Content)
	}
	if err != nil {
		return result, fmt.Errorf("saving %q: %w", key, err)
	}
	return result, nil
}

// FixInstruction turns a runtime error reported while executing source
// into an instruction asking the model to fix it.
func FixInstruction(runtimeError, source string) string {
	rt := feedback.ParseRuntimeError(runtimeError)
	return feedback.FormatFixInstruction(rt, source, feedback.FormatConfig{})
}
