// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"sync"

	"github.com/petar-djukic/diagram-coder/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// Every message carries a fixed framing overhead.
	tokensPerMessage = 4
	tokensPerName    = 1
	tokensPerRequest = 3
)

var (
	tkmOnce sync.Once
	tkm     *tiktoken.Tiktoken
)

// encoding returns the shared tokenizer, or nil when the encoding tables
// cannot be loaded.
func encoding() *tiktoken.Tiktoken {
	tkmOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel("gpt-4o")
		if err == nil {
			tkm = enc
		}
	})
	return tkm
}

// EstimateTokens estimates the token count of text. Without a tokenizer it
// falls back to four bytes per token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// EstimateMessages estimates the prompt tokens of a conversation.
func EstimateMessages(messages []types.Message) int {
	if len(messages) == 0 {
		return 0
	}
	tokens := tokensPerRequest
	for _, m := range messages {
		tokens += tokensPerMessage + tokensPerName + EstimateTokens(m.Content)
	}
	return tokens
}
