package sequence

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/pkrm0306/gp-backend/internal/apperr"
)

// MemoryAllocator keeps counters in process memory. Used by the memory
// database mode and by tests.
type MemoryAllocator struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{values: make(map[string]int64)}
}

func (a *MemoryAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	return a.NextValues(ctx, name, 1)
}

func (a *MemoryAllocator) NextValues(ctx context.Context, name string, n int64) (int64, error) {
	if err := checkRequest(ctx, name, n); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[name] += n
	return a.values[name], nil
}

func (a *MemoryAllocator) Floor(ctx context.Context, name string, min int64) error {
	if err := checkRequest(ctx, name, 1); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.values[name] < min {
		a.values[name] = min
	}
	return nil
}

func (a *MemoryAllocator) Current(_ context.Context, name string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.values[name], nil
}

func checkRequest(ctx context.Context, name string, n int64) error {
	if err := ctx.Err(); err != nil {
		return apperr.Allocation(err, name)
	}
	if name == "" {
		return apperr.Allocation(errors.New("empty counter name"), name)
	}
	if n < 1 {
		return apperr.Allocation(errors.Errorf("invalid block size %d", n), name)
	}
	return nil
}
