package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/pipeline"
	"github.com/cookassist/backend/pkg/logger"
)

// QueryProcessor is what the bridge needs from the pipeline.
type QueryProcessor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// request is one inbound frame from the GUI: a single JSON object per line.
type request struct {
	Question string `json:"question"`
}

// response is one outbound frame. Exactly one JSON object per line, so the
// caller's line-buffered parser can detect completion without reparsing an
// accumulating buffer.
type response struct {
	Status               string              `json:"status"`
	Answer               string              `json:"answer,omitempty"`
	Error                string              `json:"error,omitempty"`
	AnsweredBy           pipeline.AnsweredBy `json:"answeredBy,omitempty"`
	RetrievedDocumentIDs []string            `json:"retrievedDocumentIds,omitempty"`
	ID                   string              `json:"id,omitempty"`
	LatencyMS            int                 `json:"latencyMs,omitempty"`
	Components           map[string]bool     `json:"components,omitempty"`
}

// Bridge runs the line-delimited JSON request/response loop between the GUI
// process and the query pipeline. stdout carries only protocol frames;
// everything else goes to the logger on stderr.
type Bridge struct {
	processor  QueryProcessor
	components map[string]bool
}

func New(processor QueryProcessor, components map[string]bool) *Bridge {
	return &Bridge{processor: processor, components: components}
}

// Run announces readiness, then serves requests until the input closes or
// ctx is cancelled. A malformed line produces an error frame and the loop
// continues; the GUI never waits on a swallowed request.
//
// Reading happens in its own goroutine so cancellation unblocks Run even
// while stdin is idle; a blocking read here would keep the process alive
// past SIGTERM until the GUI sent another line. The reader goroutine itself
// may stay parked on the final read, which is fine: the process is exiting.
func (b *Bridge) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)

	if err := enc.Encode(response{Status: "ready", Components: b.components}); err != nil {
		return fmt.Errorf("failed to write startup frame: %w", err)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// On EOF the error send precedes the channel close; on
				// cancellation nothing is sent and ctx.Done is ready.
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read request stream: %w", err)
					}
					logger.Info("Request stream closed")
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if len(line) == 0 {
				continue
			}
			frame := b.handleLine(ctx, line)
			if err := enc.Encode(frame); err != nil {
				return fmt.Errorf("failed to write response frame: %w", err)
			}
		}
	}
}

func (b *Bridge) handleLine(ctx context.Context, line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Warn("Dropping malformed request line", zap.Error(err))
		return response{Status: "error", Error: "invalid JSON"}
	}

	if req.Question == "" {
		return response{Status: "error", Error: "no question provided"}
	}

	resp, err := b.processor.Process(ctx, pipeline.Request{Question: req.Question})
	if err != nil {
		var vErr *pipeline.ValidationError
		if errors.As(err, &vErr) {
			return response{Status: "validation_error", Error: vErr.Reason}
		}
		// The pipeline degrades rather than fails past validation; anything
		// else here is a programming error worth surfacing loudly.
		logger.Error("Pipeline returned unexpected error", zap.Error(err))
		return response{Status: "error", Error: "internal error"}
	}

	return response{
		Status:               "ok",
		Answer:               resp.AnswerText,
		AnsweredBy:           resp.AnsweredBy,
		RetrievedDocumentIDs: resp.RetrievedDocumentIDs,
		ID:                   resp.ID,
		LatencyMS:            resp.LatencyMS,
	}
}
