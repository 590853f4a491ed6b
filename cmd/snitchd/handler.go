package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/engine"
	"github.com/nemanjakrstic/snitch/internal/ingest"
	"github.com/nemanjakrstic/snitch/internal/types"
)

const (
	maxBodySize = 1 << 20 // 1MB
	tokenHeader = "X-Snitch-Token"
)

// EventProcessor handles one parsed pipeline event.
type EventProcessor interface {
	Handle(ctx context.Context, e *types.PipelineEvent) engine.Result
}

// PipelineHandler accepts pipeline webhooks and processes them in the
// background, detached from the request.
type PipelineHandler struct {
	processor EventProcessor
	secret    string
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewPipelineHandler creates a PipelineHandler. An empty secret disables
// the token check.
func NewPipelineHandler(processor EventProcessor, secret string, timeout time.Duration, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		processor: processor,
		secret:    secret,
		timeout:   timeout,
		logger:    logger.Named("pipeline-handler"),
	}
}

type acceptedResponse struct {
	Accepted bool   `json:"accepted"`
	Pipeline string `json:"pipeline"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Handle handles POST /webhook/pipeline.
func (h *PipelineHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	if h.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(tokenHeader)), []byte(h.secret)) != 1 {
		h.logger.Warn("Rejected webhook with invalid token", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "body too large"})
			return
		}
		h.logger.Error("Failed to read request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	event, err := ingest.ParseEvent(body)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			resp.Field = ve.Field
		}
		h.logger.Warn("Rejected malformed pipeline event", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	h.wg.Add(1)
	go h.process(event)

	writeJSON(w, http.StatusAccepted, acceptedResponse{Accepted: true, Pipeline: event.Name})
}

func (h *PipelineHandler) process(e *types.PipelineEvent) {
	defer h.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic while processing pipeline event",
				zap.String("pipeline", e.Name), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.processor.Handle(ctx, e)
}

// Wait blocks until all in-flight events are processed or ctx is done.
func (h *PipelineHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
