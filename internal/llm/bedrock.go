// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/petar-djukic/diagram-coder/pkg/types"
)

const (
	maxRetryAttempts = 3
	baseRetryDelay   = 1 * time.Second
)

// BedrockConfig configures the Bedrock strategy.
type BedrockConfig struct {
	Region  string        // AWS region (default us-east-1)
	Profile string        // AWS credential profile (optional)
	Timeout time.Duration // Per-attempt timeout (default 300s)
}

// BedrockAPI abstracts the Bedrock ConverseStream call for testing.
type BedrockAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// BedrockStrategy streams a completion from AWS Bedrock, retrying with
// exponential backoff on throttling. The credential is
// "ACCESS_KEY_ID:SECRET_ACCESS_KEY[:SESSION_TOKEN]"; an empty credential
// uses the default AWS credential chain.
type BedrockStrategy struct {
	region     string
	profile    string
	timeout    time.Duration
	retryDelay time.Duration
	newAPI     func(ctx context.Context, credential string) (BedrockAPI, error)
	streamOf   func(*bedrockruntime.ConverseStreamOutput) EventStream
}

// NewBedrockStrategy creates a Bedrock strategy from the given configuration.
func NewBedrockStrategy(cfg BedrockConfig) *BedrockStrategy {
	s := &BedrockStrategy{
		region:     cfg.Region,
		profile:    cfg.Profile,
		timeout:    cfg.Timeout,
		retryDelay: baseRetryDelay,
		streamOf: func(out *bedrockruntime.ConverseStreamOutput) EventStream {
			return out.GetStream()
		},
	}
	if s.region == "" {
		s.region = "us-east-1"
	}
	if s.timeout == 0 {
		s.timeout = defaultTimeout
	}
	s.newAPI = s.loadAPI
	return s
}

// NewBedrockStrategyWithAPI creates a strategy bound to a pre-configured
// API implementation. Used for testing with mock clients.
func NewBedrockStrategyWithAPI(api BedrockAPI, cfg BedrockConfig) *BedrockStrategy {
	s := NewBedrockStrategy(cfg)
	s.newAPI = func(context.Context, string) (BedrockAPI, error) { return api, nil }
	return s
}

func (s *BedrockStrategy) loadAPI(ctx context.Context, credential string) (BedrockAPI, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.region),
	}
	if s.profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(s.profile))
	}
	if credential != "" {
		provider, err := staticCredentials(credential)
		if err != nil {
			return nil, err
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(provider))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrLLMFailure, err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// staticCredentials parses "ID:SECRET[:TOKEN]".
func staticCredentials(credential string) (credentials.StaticCredentialsProvider, error) {
	parts := strings.SplitN(credential, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return credentials.StaticCredentialsProvider{}, fmt.Errorf("%w: bedrock credential must be ACCESS_KEY_ID:SECRET_ACCESS_KEY[:SESSION_TOKEN]", ErrLLMFailure)
	}
	token := ""
	if len(parts) == 3 {
		token = parts[2]
	}
	return credentials.NewStaticCredentialsProvider(parts[0], parts[1], token), nil
}

// Complete implements Strategy. Streamed tokens are drained; only the
// accumulated text is returned.
func (s *BedrockStrategy) Complete(ctx context.Context, req Request) (*Completion, error) {
	api, err := s.newAPI(ctx, req.Credential)
	if err != nil {
		return nil, err
	}

	system, messages := toBedrockMessages(req.Messages)
	tokenCh, resultCh := s.SendPrompt(ctx, api, req, system, messages)
	for range tokenCh {
	}

	result := <-resultCh
	if result.err != nil {
		return nil, result.err
	}
	return &Completion{
		Text:  result.response.FullText,
		Usage: result.response.Usage,
	}, nil
}

type streamResult struct {
	response *types.StreamResponse
	err      error
}

// SendPrompt sends a prompt to Bedrock via ConverseStream and returns a channel
// that yields response tokens as they arrive. The final response or error
// is delivered on the result channel after streaming completes.
func (s *BedrockStrategy) SendPrompt(ctx context.Context, api BedrockAPI, req Request, system []brtypes.SystemContentBlock, messages []brtypes.Message) (<-chan string, <-chan streamResult) {
	tokenCh := make(chan string, 64)
	resultCh := make(chan streamResult, 1)

	go func() {
		defer close(resultCh)

		response, err := s.sendWithRetry(ctx, api, req, system, messages, tokenCh)
		close(tokenCh)
		resultCh <- streamResult{response: response, err: err}
	}()

	return tokenCh, resultCh
}

// sendWithRetry calls ConverseStream with exponential backoff retry for
// rate limit errors. A stream that fails once tokens have been forwarded
// is not retried.
func (s *BedrockStrategy) sendWithRetry(ctx context.Context, api BedrockAPI, req Request, system []brtypes.SystemContentBlock, messages []brtypes.Message, tokenCh chan<- string) (*types.StreamResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: context cancelled during retry: %v", ErrLLMFailure, ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)

		input := &bedrockruntime.ConverseStreamInput{
			ModelId:  aws.String(req.ModelID),
			System:   system,
			Messages: messages,
			InferenceConfig: &brtypes.InferenceConfiguration{
				MaxTokens:   aws.Int32(int32(req.MaxTokens)),
				Temperature: aws.Float32(req.Temperature),
			},
		}

		output, err := api.ConverseStream(callCtx, input)
		if err != nil {
			cancel()

			var throttle *brtypes.ThrottlingException
			if errors.As(err, &throttle) {
				lastErr = err
				continue
			}

			return nil, s.classifyError(req.ModelID, err)
		}

		response, err := consumeStream(callCtx, s.streamOf(output), tokenCh)
		cancel()
		if err != nil {
			return nil, err
		}
		response.Retries = attempt
		return response, nil
	}

	return nil, fmt.Errorf("%w: rate limited after %d retries: %v", ErrLLMFailure, maxRetryAttempts, lastErr)
}

// classifyError wraps Bedrock errors into ErrLLMFailure with descriptive messages.
func (s *BedrockStrategy) classifyError(modelID string, err error) error {
	var accessDenied *brtypes.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return fmt.Errorf("%w: credential or permission issue: %v", ErrLLMFailure, err)
	}

	var notFound *brtypes.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: model not found: %s", ErrLLMFailure, modelID)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", ErrLLMFailure, s.timeout)
	}

	return fmt.Errorf("%w: %v", ErrLLMFailure, err)
}

// toBedrockMessages moves system messages into the separate system field
// and converts the remaining turns.
func toBedrockMessages(messages []types.Message) ([]brtypes.SystemContentBlock, []brtypes.Message) {
	var system []brtypes.SystemContentBlock
	var out []brtypes.Message

	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
		case types.RoleAssistant:
			out = append(out, textMessage(brtypes.ConversationRoleAssistant, m.Content))
		default:
			out = append(out, textMessage(brtypes.ConversationRoleUser, m.Content))
		}
	}
	return system, out
}

func textMessage(role brtypes.ConversationRole, text string) brtypes.Message {
	return brtypes.Message{
		Role: role,
		Content: []brtypes.ContentBlock{
			&brtypes.ContentBlockMemberText{Value: text},
		},
	}
}
