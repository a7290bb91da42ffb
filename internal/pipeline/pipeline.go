package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/generation"
	"github.com/cookassist/backend/internal/metrics"
	"github.com/cookassist/backend/internal/retrieval"
	"github.com/cookassist/backend/pkg/logger"
)

// AnsweredBy records which tier of the fallback chain produced the answer.
type AnsweredBy string

const (
	AnsweredByLocal    AnsweredBy = "local"
	AnsweredByRemote   AnsweredBy = "remote"
	AnsweredByFallback AnsweredBy = "fallback"
)

// State names the pipeline's position in the chain, mostly for logs.
type State int

const (
	StateIdle State = iota
	StateRetrieving
	StateGeneratingLocal
	StateGeneratingRemote
	StateFallbackStatic
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRetrieving:
		return "retrieving"
	case StateGeneratingLocal:
		return "generating_local"
	case StateGeneratingRemote:
		return "generating_remote"
	case StateFallbackStatic:
		return "fallback_static"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ValidationError means the request itself was unusable. It is surfaced to
// the caller immediately; no retrieval or generation is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

type Request struct {
	Question string
}

// Response carries the answer plus mandatory provenance, so degraded-mode
// operation is diagnosable and testable.
type Response struct {
	ID                   string     `json:"id"`
	AnswerText           string     `json:"answerText"`
	AnsweredBy           AnsweredBy `json:"answeredBy"`
	RetrievedDocumentIDs []string   `json:"retrievedDocumentIds"`
	LatencyMS            int        `json:"latencyMs"`
}

// Retriever is what the pipeline needs from the retrieval layer.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (retrieval.Result, error)
}

// Options holds the per-stage budgets and routing knobs.
type Options struct {
	RetrievalK        int
	RetrievalTimeout  time.Duration
	LocalTimeout      time.Duration
	RemoteTimeout     time.Duration
	LongQuestionWords int
}

// Pipeline runs one question through retrieval and the generator chain:
// local, then remote, then the static responder. Each stage has its own
// timeout; a timed-out or failed stage advances the chain, it never aborts
// the query. The caller is never blocked past the sum of the stage budgets.
type Pipeline struct {
	retriever Retriever
	local     generation.Generator // nil when disabled
	remote    generation.Generator // nil when disabled
	static    generation.Generator
	cache     *AnswerCache // nil when disabled
	opts      Options
}

func New(retriever Retriever, local, remote, static generation.Generator, cache *AnswerCache, opts Options) *Pipeline {
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = 3
	}
	return &Pipeline{
		retriever: retriever,
		local:     local,
		remote:    remote,
		static:    static,
		cache:     cache,
		opts:      opts,
	}
}

// LocalEnabled reports whether the local tier is wired, for the startup
// component status frame.
func (p *Pipeline) LocalEnabled() bool { return p.local != nil }

func (p *Pipeline) RemoteEnabled() bool { return p.remote != nil }

// Process answers a single query synchronously. The only error conditions
// are validation failures; everything past validation degrades instead.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		metrics.QueryTotal.WithLabelValues("validation_error", "").Inc()
		return nil, &ValidationError{Reason: "question is empty"}
	}

	startTime := time.Now()
	queryID := uuid.New().String()
	log := logger.GetLogger().With(zap.String("query_id", queryID))

	log.Info("Processing query", zap.Int("question_chars", len(question)))

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, question); ok {
			log.Info("Answer served from cache", zap.String("answered_by", string(cached.AnsweredBy)))
			cached.ID = queryID
			cached.LatencyMS = int(time.Since(startTime).Milliseconds())
			metrics.QueryTotal.WithLabelValues("ok", string(cached.AnsweredBy)).Inc()
			return cached, nil
		}
	}

	passages := p.retrieve(ctx, log, question)

	resp := &Response{
		ID:                   queryID,
		RetrievedDocumentIDs: passages.DocumentIDs(),
	}

	answer, answeredBy := p.generate(ctx, log, question, passages)
	resp.AnswerText = answer
	resp.AnsweredBy = answeredBy
	resp.LatencyMS = int(time.Since(startTime).Milliseconds())

	if p.cache != nil {
		p.cache.Set(ctx, question, resp)
	}

	metrics.QueryTotal.WithLabelValues("ok", string(answeredBy)).Inc()
	metrics.QueryDuration.WithLabelValues(string(answeredBy)).Observe(time.Since(startTime).Seconds())
	log.Info("Query processed",
		zap.String("state", StateDone.String()),
		zap.String("answered_by", string(answeredBy)),
		zap.Int("retrieved", len(passages)),
		zap.Int("latency_ms", resp.LatencyMS),
	)

	return resp, nil
}

// retrieve runs the retrieval stage. Any failure, including a blown stage
// deadline, degrades to an empty result; the generators are built to handle
// "no relevant context".
func (p *Pipeline) retrieve(ctx context.Context, log *zap.Logger, question string) retrieval.Result {
	stageStart := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, p.opts.RetrievalTimeout)
	defer cancel()

	passages, err := p.retriever.Retrieve(stageCtx, question, p.opts.RetrievalK)
	metrics.StageDuration.WithLabelValues(StateRetrieving.String()).Observe(time.Since(stageStart).Seconds())
	if err != nil {
		metrics.StageFailures.WithLabelValues(StateRetrieving.String(), cause(err)).Inc()
		log.Warn("Retrieval failed, continuing with empty context",
			zap.String("state", StateRetrieving.String()),
			zap.Error(err),
		)
		return nil
	}
	return passages
}

// generate walks the generator chain until a tier answers. The static tier
// is total, so this always produces an answer.
func (p *Pipeline) generate(ctx context.Context, log *zap.Logger, question string, passages retrieval.Result) (string, AnsweredBy) {
	type tier struct {
		state      State
		generator  generation.Generator
		timeout    time.Duration
		provenance AnsweredBy
	}

	tiers := make([]tier, 0, 2)
	if p.local != nil && !p.isLongQuestion(question) {
		tiers = append(tiers, tier{StateGeneratingLocal, p.local, p.opts.LocalTimeout, AnsweredByLocal})
	}
	if p.remote != nil {
		tiers = append(tiers, tier{StateGeneratingRemote, p.remote, p.opts.RemoteTimeout, AnsweredByRemote})
	}

	for _, t := range tiers {
		stageStart := time.Now()
		stageCtx, cancel := context.WithTimeout(ctx, t.timeout)
		answer, err := t.generator.Generate(stageCtx, question, passages)
		cancel()
		metrics.StageDuration.WithLabelValues(t.state.String()).Observe(time.Since(stageStart).Seconds())
		if err == nil {
			return answer, t.provenance
		}
		metrics.StageFailures.WithLabelValues(t.state.String(), cause(err)).Inc()
		log.Warn("Generator failed, advancing fallback chain",
			zap.String("state", t.state.String()),
			zap.Error(err),
		)
	}

	// The static responder never fails over non-empty input; the error
	// return exists only to satisfy the Generator contract.
	answer, err := p.static.Generate(ctx, question, passages)
	if err != nil {
		log.Error("Static responder failed", zap.String("state", StateFallbackStatic.String()), zap.Error(err))
		answer = "I'm sorry, there was an error processing your question. Please try again."
	}
	return answer, AnsweredByFallback
}

// isLongQuestion routes questions over the word limit straight to the
// hosted model. Returns false when the heuristic is disabled or no remote
// tier exists to route to.
func (p *Pipeline) isLongQuestion(question string) bool {
	if p.opts.LongQuestionWords <= 0 || p.remote == nil {
		return false
	}
	return len(strings.Fields(question)) > p.opts.LongQuestionWords
}

func cause(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
