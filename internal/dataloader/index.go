// Package dataloader provides request coalescing and per-operation caching
// for batched key lookups.
//
// A Loader collects every key requested during one scheduling window,
// deduplicates them and calls the BatchFunc once with the distinct keys in
// first-occurrence order. Results are distributed back to every caller and
// memoized for the lifetime of the Loader, which is meant to live for one
// logical operation (one request) and then be discarded.
//
// The end of a window is one of:
//
//   - a short timer armed by the first miss (WithWait, the default),
//   - an explicit call to Flush (WithManualDispatch),
//   - a caller supplied hook (WithScheduleFunc),
//   - the batch reaching MaxBatchSize distinct keys.
//
// Example:
//
//	users, err := dataloader.New(func(ctx context.Context, ids []int) ([]*dataloader.Result[*User], error) {
//	    return store.UsersByID(ctx, ids)
//	}, dataloader.WithMaxBatchSize[int, *User](100))
//
//	u, err := users.Load(ctx, 10).Wait(ctx)
package dataloader
