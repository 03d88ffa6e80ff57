package resolver

import (
	"context"
	"errors"

	"nplusone/internal/dataloader"
	"nplusone/internal/jsonrpc"
	"nplusone/internal/store"
)

func invalidParams(err error) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error())
}

// toRPCError maps a call error to its JSON-RPC form
func toRPCError(err error) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, dataloader.ErrFetchFunction):
		return loaderError("fetch", err)
	case errors.Is(err, dataloader.ErrBatchSizeMismatch):
		return loaderError("batchSize", err)
	case errors.Is(err, dataloader.ErrPerKey):
		return loaderError("key", err)
	case errors.Is(err, dataloader.ErrCacheKey):
		return loaderError("cacheKey", err)
	case errors.Is(err, store.ErrNotFound):
		return jsonrpc.NewError(jsonrpc.CodeNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidSort), errors.Is(err, store.ErrInvalidLimit):
		return invalidParams(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return jsonrpc.NewError(jsonrpc.CodeServerError, "request timed out")
	default:
		return jsonrpc.NewError(jsonrpc.CodeInternalError, err.Error())
	}
}

func loaderError(kind string, err error) *jsonrpc.Error {
	return jsonrpc.NewErrorWithData(jsonrpc.CodeServerError, err.Error(), map[string]string{"kind": kind})
}
