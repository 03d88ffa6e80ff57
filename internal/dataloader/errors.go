package dataloader

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below
var (
	ErrBatchSizeMismatch = errors.New("batch size mismatch")
	ErrFetchFunction     = errors.New("fetch function failed")
	ErrPerKey            = errors.New("key failed")
	ErrCacheKey          = errors.New("invalid cache key")
)

// BatchSizeMismatchError is returned to every waiter of a batch whose fetch
// function returned a different number of results than keys.
type BatchSizeMismatchError struct {
	Expected int
	Got      int
}

func (e *BatchSizeMismatchError) Error() string {
	return fmt.Sprintf("fetch function implementation error: %d values returned for %d keys", e.Got, e.Expected)
}

func (e *BatchSizeMismatchError) Is(target error) bool {
	return target == ErrBatchSizeMismatch
}

// FetchFunctionError is returned to every waiter of a batch whose fetch call
// itself failed, panicked or timed out.
type FetchFunctionError struct {
	Err error
}

func (e *FetchFunctionError) Error() string {
	return fmt.Sprintf("fetch function failed: %v", e.Err)
}

func (e *FetchFunctionError) Unwrap() error {
	return e.Err
}

func (e *FetchFunctionError) Is(target error) bool {
	return target == ErrFetchFunction
}

// PerKeyError is returned only to the waiters of a key the fetch function
// explicitly marked as failed.
type PerKeyError struct {
	Key any
	Err error
}

func (e *PerKeyError) Error() string {
	return fmt.Sprintf("key %v: %v", e.Key, e.Err)
}

func (e *PerKeyError) Unwrap() error {
	return e.Err
}

func (e *PerKeyError) Is(target error) bool {
	return target == ErrPerKey
}

// CacheKeyError is returned when a key cannot be used for deduplication and
// caching. The batch is never involved.
type CacheKeyError struct {
	Key any
	Err error
}

func (e *CacheKeyError) Error() string {
	return fmt.Sprintf("invalid cache key %#v: %v", e.Key, e.Err)
}

func (e *CacheKeyError) Unwrap() error {
	return e.Err
}

func (e *CacheKeyError) Is(target error) bool {
	return target == ErrCacheKey
}
