// Package resolver executes JSON-RPC calls against the store, resolving
// related rows through per-operation data loaders.
package resolver

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nplusone/internal/config"
	"nplusone/internal/jsonrpc"
	"nplusone/internal/store"
)

// Executor runs operations. Every call to Execute is one operation with its
// own loaders, so rows cached for one client request never leak into another.
type Executor struct {
	store  *store.Store
	cfg    config.LoaderConfig
	logger zerolog.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(st *store.Store, cfg config.LoaderConfig, logger zerolog.Logger) *Executor {
	return &Executor{
		store:  st,
		cfg:    cfg,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// operation is the state shared by the calls of one Execute
type operation struct {
	store   *store.Store
	loaders *Loaders
	window  *Window
	logger  zerolog.Logger
}

// Execute runs requests as one operation and returns one response per
// request, in request order. Consecutive queries run concurrently and share
// loader batches; a mutation runs alone after everything before it.
func (e *Executor) Execute(ctx context.Context, requests []*jsonrpc.Request) []*jsonrpc.Response {
	logger := e.logger.With().Str("operation", uuid.NewString()).Logger()
	responses := make([]*jsonrpc.Response, len(requests))

	loaders, err := NewLoaders(e.store, e.cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create loaders")
		for i, req := range requests {
			id := jsonrpc.NewIDNull()
			if req != nil {
				id = req.ID
			}
			responses[i] = jsonrpc.NewErrorResponse(id, jsonrpc.ErrInternal)
		}
		return responses
	}

	op := &operation{
		store:   e.store,
		loaders: loaders,
		window:  NewWindow(loaders.Flush),
		logger:  logger,
	}

	for start := 0; start < len(requests); {
		end := start + 1
		if !isMutation(requests[start]) {
			for end < len(requests) && !isMutation(requests[end]) {
				end++
			}
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			op.window.Go(&g, func() error {
				responses[i] = op.call(ctx, requests[i])
				return nil
			})
		}
		op.window.Wait(&g)

		start = end
	}

	logger.Debug().Int("calls", len(requests)).Msg("operation completed")
	return responses
}

func (op *operation) call(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	// a null element of a batch array
	if req == nil {
		return jsonrpc.NewErrorResponse(jsonrpc.NewIDNull(), jsonrpc.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, err.Error()))
	}

	m, ok := methods[req.Method]
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrMethodNotFound)
	}
	if err := ctx.Err(); err != nil {
		return jsonrpc.NewErrorResponse(req.ID, toRPCError(err))
	}

	result, err := m.handle(ctx, op, req)
	if err != nil {
		op.logger.Debug().Err(err).Str("method", req.Method).Msg("call failed")
		return jsonrpc.NewErrorResponse(req.ID, toRPCError(err))
	}

	resp, err := jsonrpc.NewResponse(req.ID, result)
	if err != nil {
		op.logger.Error().Err(err).Str("method", req.Method).Msg("failed to marshal result")
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrInternal)
	}
	return resp
}

// resolveTweet loads the author of t through the operation's user loader
func (op *operation) resolveTweet(ctx context.Context, t *store.Tweet) (*TweetView, error) {
	author, err := Await(ctx, op.window, op.loaders.Users.Load(ctx, t.AuthorID))
	if err != nil {
		return nil, err
	}
	return newTweetView(t, author), nil
}
