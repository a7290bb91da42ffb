package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cookassist/backend/internal/retrieval"
)

// Generator produces an answer from a question and its retrieved passages.
// Implementations fail with *GenerationError when the underlying model is
// unreachable, times out, or returns unusable output; the pipeline treats
// that as a signal to advance the fallback chain.
type Generator interface {
	Name() string
	Generate(ctx context.Context, question string, passages retrieval.Result) (string, error)
}

// GenerationError wraps any model-side failure.
type GenerationError struct {
	Generator string
	Cause     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generator %s failed: %v", e.Generator, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func generationErr(generator string, cause error) error {
	return &GenerationError{Generator: generator, Cause: cause}
}

const systemPrompt = `You are a friendly cooking assistant helping someone who may be a beginner cook. Always be encouraging, patient, and explain cooking concepts in a simple, easy-to-understand way. Use the relevant pieces of information in the context to answer the question. If the context does not cover the question, say so and answer from general cooking knowledge, stating clearly that you are unsure rather than inventing sourced facts.`

// buildUserPrompt combines the question with the retrieved passages.
// Passages arrive ordered by descending relevance, so when the character
// budget truncates the context the most relevant content survives.
func buildUserPrompt(question string, passages retrieval.Result, charBudget int) string {
	var context strings.Builder
	for _, p := range passages {
		text := p.Document.Text
		if charBudget > 0 && context.Len()+len(text)+2 > charBudget {
			remaining := charBudget - context.Len()
			if remaining <= 0 {
				break
			}
			text = truncateToRuneBoundary(text, remaining)
		}
		context.WriteString(text)
		context.WriteString("\n\n")
		if charBudget > 0 && context.Len() >= charBudget {
			break
		}
	}

	contextBlock := strings.TrimSpace(context.String())
	if contextBlock == "" {
		contextBlock = "(no relevant context found)"
	}

	return fmt.Sprintf("Context:\n%s\n\nUser's question: %s", contextBlock, question)
}

// truncateToRuneBoundary cuts text to at most n bytes without splitting a
// rune; corpus text is not ASCII-only ("100°C", "sauté").
func truncateToRuneBoundary(text string, n int) string {
	if n >= len(text) {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
