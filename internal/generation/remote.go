package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/retrieval"
	"github.com/cookassist/backend/pkg/circuitbreaker"
	"github.com/cookassist/backend/pkg/logger"
	"github.com/cookassist/backend/pkg/retry"
)

// Remote invokes the hosted chat model. Used only when the local tier fails
// or is disabled. The timeout is distinct from local inference because the
// network round-trip dominates, and the breaker keeps a dead API from
// stalling every query.
type Remote struct {
	client           *openai.Client
	model            string
	temperature      float32
	maxTokens        int
	timeout          time.Duration
	promptCharBudget int
	cb               *circuitbreaker.CircuitBreaker
	retryConfig      retry.Config
}

func NewRemote(apiKey, model string, temperature float32, maxTokens int, timeout time.Duration, promptCharBudget int) *Remote {
	cb := circuitbreaker.New("remote-model", circuitbreaker.Config{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Remote generator initialized", zap.String("model", model))

	return &Remote{
		client:           openai.NewClient(apiKey),
		model:            model,
		temperature:      temperature,
		maxTokens:        maxTokens,
		timeout:          timeout,
		promptCharBudget: promptCharBudget,
		cb:               cb,
		retryConfig:      retryConfig,
	}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Generate(ctx context.Context, question string, passages retrieval.Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var answer string

	err := r.cb.Execute(ctx, func() error {
		return retry.Do(ctx, r.retryConfig, func() error {
			resp, err := r.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: r.model,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
						{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, passages, r.promptCharBudget)},
					},
					Temperature: r.temperature,
					MaxTokens:   r.maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("chat completion failed: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}
			answer = strings.TrimSpace(resp.Choices[0].Message.Content)
			if answer == "" {
				return fmt.Errorf("completion returned an empty answer")
			}
			return nil
		})
	})
	if err != nil {
		return "", generationErr(r.Name(), err)
	}

	return answer, nil
}
