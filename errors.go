package numdb

import "errors"

// Construction-time errors. Find/Insert on a well-formed cache are total
// operations and never return one of these; only constructors do.
var (
	// ErrInsufficientMemory is returned when a computed capacity is zero —
	// the memory budget was too small to fit even one entry or bucket.
	ErrInsufficientMemory = errors.New("numdb: memory budget too small for a single entry")

	// ErrCapacityExceeded is returned when the computed capacity exceeds the
	// int32 index space every container uses (math.MaxInt32 - 1 entries).
	ErrCapacityExceeded = errors.New("numdb: capacity exceeds 32-bit index range")

	// ErrInvalidShardCount is returned by the sharded wrapper when asked
	// for zero shards.
	ErrInvalidShardCount = errors.New("numdb: shard count must be positive")
)

// UserFunctionError wraps a failure returned by the cached user function.
// It is never wrapped further or translated: Invoke surfaces it unchanged
// to the caller, and no entry is inserted.
type UserFunctionError struct {
	Err error
}

func (e *UserFunctionError) Error() string {
	return "numdb: user function failed: " + e.Err.Error()
}

func (e *UserFunctionError) Unwrap() error {
	return e.Err
}
