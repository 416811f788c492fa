// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/petar-djukic/diagram-coder/pkg/types"
	"google.golang.org/api/option"
)

// geminiConversation is a conversation in Gemini's shape: an optional
// system instruction, the prior turns, and the final user turn.
type geminiConversation struct {
	system  *genai.Content
	history []*genai.Content
	last    string
}

// geminiSendFunc performs the chat call. It is a field so tests can
// replace the network.
type geminiSendFunc func(ctx context.Context, apiKey, modelID string, temperature float32, maxTokens int, conv geminiConversation) (*genai.GenerateContentResponse, error)

// GoogleStrategy sends the conversation through a Gemini chat session.
// The single system message becomes the system instruction and assistant
// turns take the "model" role.
type GoogleStrategy struct {
	send   geminiSendFunc
	logger *slog.Logger
}

// NewGoogleStrategy creates a Gemini strategy.
func NewGoogleStrategy(logger *slog.Logger) *GoogleStrategy {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GoogleStrategy{send: sendGemini, logger: logger}
}

// Complete implements Strategy.
func (s *GoogleStrategy) Complete(ctx context.Context, req Request) (*Completion, error) {
	conv, err := toGeminiConversation(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, req.Credential, req.ModelID, req.Temperature, req.MaxTokens, conv)
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		// A safety block is an answer without text, not a failed call.
		if s.logger != nil {
			s.logger.Warn("gemini response blocked", "model", req.ModelID, "reason", blocked.Error())
		}
		return &Completion{}, nil
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out", ErrLLMFailure)
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}

	completion := &Completion{Text: geminiText(resp)}
	if resp.UsageMetadata != nil {
		completion.Usage = types.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}

func sendGemini(ctx context.Context, apiKey, modelID string, temperature float32, maxTokens int, conv geminiConversation) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelID)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = conv.system

	session := model.StartChat()
	session.History = conv.history
	return session.SendMessage(ctx, genai.Text(conv.last))
}

// toGeminiConversation splits messages into Gemini's shape. More than one
// system message, or a conversation not ending in a user turn, is
// ErrInvalidConversation.
func toGeminiConversation(messages []types.Message) (geminiConversation, error) {
	var conv geminiConversation
	var turns []types.Message

	for _, m := range messages {
		if m.Role != types.RoleSystem {
			turns = append(turns, m)
			continue
		}
		if conv.system != nil {
			return geminiConversation{}, fmt.Errorf("%w: more than one system message", ErrInvalidConversation)
		}
		conv.system = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != types.RoleUser {
		return geminiConversation{}, fmt.Errorf("%w: conversation must end with a user message", ErrInvalidConversation)
	}

	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "model"
		}
		conv.history = append(conv.history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	conv.last = turns[len(turns)-1].Content
	return conv, nil
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
