package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/retrieval"
	"github.com/cookassist/backend/pkg/logger"
)

// Hedging phrases that mark a local answer as unusable. Demoting these to
// errors gives a stronger model a chance at the question.
var lowConfidencePhrases = []string{
	"i don't know",
	"i don't have enough information",
	"i cannot provide",
	"i'm not sure",
	"insufficient information",
}

// Local invokes a co-located OpenAI-compatible completion server (a
// llama.cpp llama-server is the expected deployment). Tried first: it is
// offline-capable and has no usage cost.
type Local struct {
	client           *openai.Client
	modelPath        string
	temperature      float32
	maxTokens        int
	timeout          time.Duration
	promptCharBudget int
}

func NewLocal(endpoint, modelPath string, temperature float32, maxTokens int, timeout time.Duration, promptCharBudget int) *Local {
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = endpoint

	logger.Info("Local generator initialized",
		zap.String("endpoint", endpoint),
		zap.String("model_path", modelPath),
	)

	return &Local{
		client:           openai.NewClientWithConfig(cfg),
		modelPath:        modelPath,
		temperature:      temperature,
		maxTokens:        maxTokens,
		timeout:          timeout,
		promptCharBudget: promptCharBudget,
	}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Generate(ctx context.Context, question string, passages retrieval.Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: l.modelPath,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, passages, l.promptCharBudget)},
			},
			Temperature: l.temperature,
			MaxTokens:   l.maxTokens,
		},
	)
	if err != nil {
		return "", generationErr(l.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", generationErr(l.Name(), fmt.Errorf("completion returned no choices"))
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", generationErr(l.Name(), fmt.Errorf("completion returned an empty answer"))
	}
	if hedged, phrase := isLowConfidence(answer); hedged {
		return "", generationErr(l.Name(), fmt.Errorf("low confidence answer (%q)", phrase))
	}

	return answer, nil
}

func isLowConfidence(answer string) (bool, string) {
	lower := strings.ToLower(answer)
	for _, phrase := range lowConfidencePhrases {
		if strings.Contains(lower, phrase) {
			return true, phrase
		}
	}
	return false, ""
}
