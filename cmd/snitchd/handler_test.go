package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/engine"
	"github.com/nemanjakrstic/snitch/internal/types"
)

// mockProcessor records handled events.
type mockProcessor struct {
	mu      sync.Mutex
	events  []*types.PipelineEvent
	delay   time.Duration
	sawDone bool
	handled chan struct{}
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{handled: make(chan struct{}, 16)}
}

func (m *mockProcessor) Handle(ctx context.Context, e *types.PipelineEvent) engine.Result {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	m.events = append(m.events, e)
	m.sawDone = ctx.Err() != nil
	m.mu.Unlock()
	m.handled <- struct{}{}
	return engine.Result{Pipeline: e.Name}
}

func (m *mockProcessor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

const validBody = `{"pipeline":{"name":"build-linux","counter":3,"status":"Failed","committer":{"email":"dev@co.com"}}}`

func post(h http.HandlerFunc, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/pipeline", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func waitHandled(t *testing.T, p *mockProcessor) {
	t.Helper()
	select {
	case <-p.handled:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not processed")
	}
}

// ---------------------------------------------------------------------------
// Handle
// ---------------------------------------------------------------------------

func TestHandle_Accepted(t *testing.T) {
	p := newMockProcessor()
	h := NewPipelineHandler(p, "", time.Minute, zap.NewNop())

	w := post(h.Handle, validBody, nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp acceptedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	assert.Equal(t, "build-linux", resp.Pipeline)

	waitHandled(t, p)
	assert.Equal(t, 1, p.count())
	assert.Equal(t, types.StatusFailed, p.events[0].Status)
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	h := NewPipelineHandler(newMockProcessor(), "", time.Minute, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/webhook/pipeline", nil)
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandle_WrongContentType(t *testing.T) {
	h := NewPipelineHandler(newMockProcessor(), "", time.Minute, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/webhook/pipeline", strings.NewReader(validBody))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	h.Handle(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestHandle_MalformedEvent(t *testing.T) {
	p := newMockProcessor()
	h := NewPipelineHandler(p, "", time.Minute, zap.NewNop())

	w := post(h.Handle, `{"pipeline":{"name":"x","committer":{"email":"a@b.c"}}}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pipeline.status", resp.Field)
	require.NoError(t, h.Wait(context.Background()))
	assert.Equal(t, 0, p.count())
}

func TestHandle_InvalidJSON(t *testing.T) {
	h := NewPipelineHandler(newMockProcessor(), "", time.Minute, zap.NewNop())
	w := post(h.Handle, `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandle_BodyTooLarge(t *testing.T) {
	h := NewPipelineHandler(newMockProcessor(), "", time.Minute, zap.NewNop())
	big := `{"pipeline":{"name":"` + strings.Repeat("x", maxBodySize) + `"}}`

	w := post(h.Handle, big, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandle_SharedSecret(t *testing.T) {
	p := newMockProcessor()
	h := NewPipelineHandler(p, "s3cret", time.Minute, zap.NewNop())

	assert.Equal(t, http.StatusUnauthorized, post(h.Handle, validBody, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, post(h.Handle, validBody, map[string]string{tokenHeader: "wrong"}).Code)

	w := post(h.Handle, validBody, map[string]string{tokenHeader: "s3cret"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	waitHandled(t, p)
}

func TestHandle_ProcessingOutlivesRequest(t *testing.T) {
	p := newMockProcessor()
	p.delay = 50 * time.Millisecond
	h := NewPipelineHandler(p, "", time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/webhook/pipeline", strings.NewReader(validBody)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Handle(w, req)
	cancel()

	require.NoError(t, h.Wait(context.Background()))
	assert.Equal(t, 1, p.count())
	assert.False(t, p.sawDone, "processing context must not inherit request cancellation")
}

func TestWait_Timeout(t *testing.T) {
	p := newMockProcessor()
	p.delay = 500 * time.Millisecond
	h := NewPipelineHandler(p, "", time.Minute, zap.NewNop())
	post(h.Handle, validBody, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded)

	require.NoError(t, h.Wait(context.Background()))
}

// panicProcessor panics on every event.
type panicProcessor struct{}

func (panicProcessor) Handle(context.Context, *types.PipelineEvent) engine.Result {
	panic("boom")
}

func TestHandle_PanicIsContained(t *testing.T) {
	h := NewPipelineHandler(panicProcessor{}, "", time.Minute, zap.NewNop())
	assert.Equal(t, http.StatusAccepted, post(h.Handle, validBody, nil).Code)
	require.NoError(t, h.Wait(context.Background()))
}
