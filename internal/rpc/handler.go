package rpc

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/jsonrpc"
)

// Executor runs the calls of one operation
type Executor interface {
	Execute(ctx context.Context, requests []*jsonrpc.Request) []*jsonrpc.Response
}

// Handler handles HTTP JSON-RPC requests. Each request body is one operation.
type Handler struct {
	executor       Executor
	maxBodySize    int64
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(executor Executor, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		executor:       executor,
		maxBodySize:    cfg.MaxBodySize,
		requestTimeout: cfg.GetRequestTimeoutDuration(),
		logger:         logger.With().Str("component", "rpc").Logger(),
	}
}

// ServeHTTP handles HTTP requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only accept POST requests
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, rpcErr := h.readBody(r)
	if rpcErr != nil {
		h.writeJSONRPCError(w, jsonrpc.NewIDNull(), rpcErr)
		return
	}

	// Parse JSON-RPC request(s)
	requests, isBatch, err := jsonrpc.ParseBatchRequest(body)
	if err != nil {
		h.writeJSONRPCError(w, jsonrpc.NewIDNull(), jsonrpc.ErrParse)
		return
	}

	// Validate requests. Null batch elements are answered per item by the executor.
	for _, req := range requests {
		if req == nil {
			continue
		}
		if err := req.Validate(); err != nil {
			h.writeJSONRPCError(w, req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error()))
			return
		}
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	responses := h.executor.Execute(ctx, requests)

	if isBatch {
		h.writeBatchResponse(w, responses)
	} else {
		h.writeResponse(w, responses[0])
	}
}

// readBody reads the request body, enforcing the configured size limit
func (h *Handler) readBody(r *http.Request) ([]byte, *jsonrpc.Error) {
	reader := io.Reader(r.Body)
	if h.maxBodySize > 0 {
		reader = io.LimitReader(r.Body, h.maxBodySize+1)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.CodeParseError, "failed to read request body")
	}
	if h.maxBodySize > 0 && int64(len(body)) > h.maxBodySize {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "request body too large")
	}
	return body, nil
}

// writeResponse writes a JSON-RPC response
func (h *Handler) writeResponse(w http.ResponseWriter, resp *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	data, err := resp.Bytes()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal response")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Write(data)
}

// writeBatchResponse writes a batch of JSON-RPC responses
func (h *Handler) writeBatchResponse(w http.ResponseWriter, responses []*jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	data, err := jsonrpc.MarshalBatchResponse(responses)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal batch response")
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Write(data)
}

// writeJSONRPCError writes a JSON-RPC error response
func (h *Handler) writeJSONRPCError(w http.ResponseWriter, id jsonrpc.ID, rpcErr *jsonrpc.Error) {
	resp := jsonrpc.NewErrorResponse(id, rpcErr)
	h.writeResponse(w, resp)
}

// writeError writes a plain HTTP error
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	http.Error(w, message, status)
}
