// Package sequence implements named, atomically incremented counters.
//
// A counter is created on first use. Values handed out are never reclaimed, so an
// aborted registration leaves a gap. Allocators run outside the caller's
// transaction on purpose: a rolled back product must not roll back its id.
package sequence

import (
	"context"
)

// Allocator mints strictly increasing values per counter name.
type Allocator interface {
	// NextValue increments the counter by one and returns the new value.
	// A missing counter starts at 1.
	NextValue(ctx context.Context, name string) (int64, error)

	// NextValues reserves n consecutive values and returns the last one;
	// the block is last-n+1 .. last.
	NextValues(ctx context.Context, name string, n int64) (int64, error)

	// Floor raises the counter to at least min. It never lowers a counter.
	Floor(ctx context.Context, name string, min int64) error

	// Current returns the last value handed out, 0 for an unknown counter.
	Current(ctx context.Context, name string) (int64, error)
}
