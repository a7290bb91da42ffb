package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookassist/backend/internal/pipeline"
)

type fakeProcessor struct {
	resp  *pipeline.Response
	err   error
	calls int
}

func (f *fakeProcessor) Process(_ context.Context, _ pipeline.Request) (*pipeline.Response, error) {
	f.calls++
	return f.resp, f.err
}

// runBridge feeds input through a bridge and decodes every output line.
func runBridge(t *testing.T, proc QueryProcessor, components map[string]bool, input string) []map[string]any {
	t.Helper()

	var out bytes.Buffer
	b := New(proc, components)
	require.NoError(t, b.Run(context.Background(), strings.NewReader(input), &out))

	var frames []map[string]any
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var frame map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &frame), "every output line must be a JSON object")
		frames = append(frames, frame)
	}
	require.NoError(t, sc.Err())
	return frames
}

func TestRunStartupFrame(t *testing.T) {
	frames := runBridge(t, &fakeProcessor{}, map[string]bool{"local_model": true, "vector_index": true}, "")

	require.Len(t, frames, 1)
	assert.Equal(t, "ready", frames[0]["status"])
	components, ok := frames[0]["components"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, components["local_model"])
	assert.Equal(t, true, components["vector_index"])
}

func TestRunAnswerFrame(t *testing.T) {
	proc := &fakeProcessor{resp: &pipeline.Response{
		ID:                   "q-1",
		AnswerText:           "Bring the water to a rolling boil.",
		AnsweredBy:           pipeline.AnsweredByLocal,
		RetrievedDocumentIDs: []string{"boil"},
		LatencyMS:            12,
	}}

	frames := runBridge(t, proc, nil, `{"question":"how do I boil water"}`+"\n")

	require.Len(t, frames, 2)
	frame := frames[1]
	assert.Equal(t, "ok", frame["status"])
	assert.Equal(t, "Bring the water to a rolling boil.", frame["answer"])
	assert.Equal(t, "local", frame["answeredBy"])
	assert.Equal(t, []any{"boil"}, frame["retrievedDocumentIds"])
	assert.Equal(t, "q-1", frame["id"])
}

func TestRunMalformedLine(t *testing.T) {
	proc := &fakeProcessor{resp: &pipeline.Response{AnswerText: "ok", AnsweredBy: pipeline.AnsweredByFallback}}

	input := "this is not json\n" + `{"question":"still alive?"}` + "\n"
	frames := runBridge(t, proc, nil, input)

	require.Len(t, frames, 3)
	assert.Equal(t, "error", frames[1]["status"])
	assert.Equal(t, "invalid JSON", frames[1]["error"])
	assert.Equal(t, "ok", frames[2]["status"], "the loop must survive a malformed line")
	assert.Equal(t, 1, proc.calls, "the malformed line must not reach the pipeline")
}

func TestRunMissingQuestion(t *testing.T) {
	proc := &fakeProcessor{}
	frames := runBridge(t, proc, nil, `{"other":"field"}`+"\n")

	require.Len(t, frames, 2)
	assert.Equal(t, "error", frames[1]["status"])
	assert.Equal(t, "no question provided", frames[1]["error"])
	assert.Zero(t, proc.calls)
}

func TestRunValidationError(t *testing.T) {
	proc := &fakeProcessor{err: &pipeline.ValidationError{Reason: "question is empty"}}
	frames := runBridge(t, proc, nil, `{"question":"   "}`+"\n")

	require.Len(t, frames, 2)
	assert.Equal(t, "validation_error", frames[1]["status"])
	assert.Equal(t, "question is empty", frames[1]["error"])
}

func TestRunUnblocksOnCancelWithIdleInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- New(&fakeProcessor{}, nil).Run(ctx, pr, &out)
	}()

	// Cancellation must end the loop even though no line ever arrives on
	// the input; shutdown cannot wait on the GUI typing something.
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run still blocked after context cancellation with idle input")
	}
}

func TestRunSkipsBlankLines(t *testing.T) {
	proc := &fakeProcessor{resp: &pipeline.Response{AnswerText: "ok", AnsweredBy: pipeline.AnsweredByLocal}}
	frames := runBridge(t, proc, nil, "\n\n"+`{"question":"hi"}`+"\n\n")

	require.Len(t, frames, 2, "blank lines must not produce frames")
	assert.Equal(t, "ok", frames[1]["status"])
}
