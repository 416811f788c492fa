// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/petar-djukic/diagram-coder/pkg/types"
	"github.com/sashabaranov/go-openai"
)

// OpenAIStrategy sends the conversation unchanged to the chat completions
// endpoint. The credential is the API key.
type OpenAIStrategy struct {
	baseURL string
}

// NewOpenAIStrategy creates an OpenAI strategy. An empty baseURL uses the
// public endpoint.
func NewOpenAIStrategy(baseURL string) *OpenAIStrategy {
	return &OpenAIStrategy{baseURL: baseURL}
}

func (s *OpenAIStrategy) newClient(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		config.BaseURL = s.baseURL
	}
	return openai.NewClientWithConfig(config)
}

// Complete implements Strategy.
func (s *OpenAIStrategy) Complete(ctx context.Context, req Request) (*Completion, error) {
	client := s.newClient(req.Credential)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.ModelID,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, classifyOpenAIError(req.ModelID, err)
	}

	completion := &Completion{
		Usage: types.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	if len(resp.Choices) > 0 {
		completion.Text = resp.Choices[0].Message.Content
	}
	return completion, nil
}

func toOpenAIMessages(messages []types.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case types.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case types.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// classifyOpenAIError wraps API errors into ErrLLMFailure by HTTP status.
func classifyOpenAIError(modelID string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: credential or permission issue: %s", ErrLLMFailure, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: model not found: %s", ErrLLMFailure, modelID)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: rate limited: %s", ErrLLMFailure, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", ErrLLMFailure, apiErr.HTTPStatusCode, apiErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", ErrLLMFailure)
	}
	return fmt.Errorf("%w: %v", ErrLLMFailure, err)
}
