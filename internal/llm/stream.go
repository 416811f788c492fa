// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/petar-djukic/diagram-coder/pkg/types"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// EventStream abstracts the Bedrock ConverseStream event stream for testing.
type EventStream interface {
	Events() <-chan brtypes.ConverseStreamOutput
	Close() error
	Err() error
}

// consumeStream reads a Bedrock ConverseStream to the end, forwarding text
// deltas on tokenCh and collecting text and usage. A stream that breaks
// off, or a context that ends first, is an error: partial text is never
// returned as a complete answer. The caller owns tokenCh.
func consumeStream(ctx context.Context, stream EventStream, tokenCh chan<- string) (*types.StreamResponse, error) {
	defer stream.Close()

	var text strings.Builder
	response := &types.StreamResponse{}

	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			return nil, interrupted(ctx, text.Len())

		case event, ok := <-events:
			if !ok {
				if err := stream.Err(); err != nil {
					return nil, fmt.Errorf("%w: stream failed after %d bytes: %v", ErrLLMFailure, text.Len(), err)
				}
				response.FullText = text.String()
				return response, nil
			}

			switch v := event.(type) {
			case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
				delta, ok := v.Value.Delta.(*brtypes.ContentBlockDeltaMemberText)
				if !ok {
					continue
				}
				text.WriteString(delta.Value)
				select {
				case tokenCh <- delta.Value:
				case <-ctx.Done():
					return nil, interrupted(ctx, text.Len())
				}

			case *brtypes.ConverseStreamOutputMemberMetadata:
				if u := v.Value.Usage; u != nil {
					if u.InputTokens != nil {
						response.Usage.InputTokens = int(*u.InputTokens)
					}
					if u.OutputTokens != nil {
						response.Usage.OutputTokens = int(*u.OutputTokens)
					}
				}
			}
		}
	}
}

func interrupted(ctx context.Context, received int) error {
	return fmt.Errorf("%w: stream interrupted after %d bytes: %w", ErrLLMFailure, received, ctx.Err())
}
