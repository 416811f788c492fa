// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIStrategy_Complete(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Plan: add a square"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 31, "completion_tokens": 5, "total_tokens": 36}
		}`))
	}))
	defer srv.Close()

	s := NewOpenAIStrategy(srv.URL + "/v1")
	completion, err := s.Complete(context.Background(), Request{
		Messages:    testConversation,
		Credential:  "sk-test",
		ModelID:     "gpt-4o",
		Temperature: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan: add a square", completion.Text)
	assert.Equal(t, 31, completion.Usage.InputTokens)
	assert.Equal(t, 5, completion.Usage.OutputTokens)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.InDelta(t, 0.4, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "make the circle red", got.Messages[3].Content)
}

func TestOpenAIStrategy_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer srv.Close()

	completion, err := NewOpenAIStrategy(srv.URL+"/v1").Complete(context.Background(), Request{
		Messages: testConversation,
		ModelID:  "gpt-4o",
	})
	require.NoError(t, err)
	assert.Empty(t, completion.Text)
}

func TestOpenAIStrategy_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		contains string
	}{
		{"unauthorized", http.StatusUnauthorized, "credential"},
		{"not found", http.StatusNotFound, "model not found"},
		{"rate limited", http.StatusTooManyRequests, "rate limited"},
		{"server error", http.StatusInternalServerError, "status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "invalid_request_error"}}`))
			}))
			defer srv.Close()

			_, err := NewOpenAIStrategy(srv.URL+"/v1").Complete(context.Background(), Request{
				Messages: testConversation,
				ModelID:  "gpt-4o",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLLMFailure)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
