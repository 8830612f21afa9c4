package sequence

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
)

type allocatorFactory func(t *testing.T) Allocator

func newMemory(t *testing.T) Allocator {
	t.Helper()
	return NewMemoryAllocator()
}

func newBolt(t *testing.T) Allocator {
	t.Helper()
	a, err := OpenBolt(filepath.Join(t.TempDir(), "seq", "sequences.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newGorm(t *testing.T) Allocator {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "seq.db") + "?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.SequenceCounter{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormAllocator(db)
}

func backends() map[string]allocatorFactory {
	return map[string]allocatorFactory{
		"memory": newMemory,
		"bolt":   newBolt,
		"gorm":   newGorm,
	}
}

func TestAllocator_StartsAtOneAndIncrements(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			a := factory(t)
			ctx := context.Background()

			v, err := a.NextValue(ctx, domain.SequenceProduct)
			require.NoError(t, err)
			require.Equal(t, int64(1), v)

			v, err = a.NextValue(ctx, domain.SequenceProduct)
			require.NoError(t, err)
			require.Equal(t, int64(2), v)

			// counters are independent
			v, err = a.NextValue(ctx, domain.SequencePlant)
			require.NoError(t, err)
			require.Equal(t, int64(1), v)

			cur, err := a.Current(ctx, domain.SequenceProduct)
			require.NoError(t, err)
			require.Equal(t, int64(2), cur)
		})
	}
}

func TestAllocator_NextValuesReservesBlock(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			a := factory(t)
			ctx := context.Background()

			last, err := a.NextValues(ctx, "eoi:m1", 3)
			require.NoError(t, err)
			require.Equal(t, int64(3), last)

			next, err := a.NextValue(ctx, "eoi:m1")
			require.NoError(t, err)
			require.Equal(t, int64(4), next)
		})
	}
}

func TestAllocator_FloorNeverLowers(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			a := factory(t)
			ctx := context.Background()

			require.NoError(t, a.Floor(ctx, "eoi:m1", 5))
			v, err := a.NextValue(ctx, "eoi:m1")
			require.NoError(t, err)
			require.Equal(t, int64(6), v)

			require.NoError(t, a.Floor(ctx, "eoi:m1", 2))
			v, err = a.NextValue(ctx, "eoi:m1")
			require.NoError(t, err)
			require.Equal(t, int64(7), v)
		})
	}
}

func TestAllocator_RejectsBadRequests(t *testing.T) {
	a := NewMemoryAllocator()

	_, err := a.NextValue(context.Background(), "")
	require.Equal(t, apperr.KindAllocation, apperr.KindOf(err))

	_, err = a.NextValues(context.Background(), "product", 0)
	require.Equal(t, apperr.KindAllocation, apperr.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.NextValue(ctx, "product")
	require.Equal(t, apperr.KindAllocation, apperr.KindOf(err))
}

func TestAllocator_ConcurrentCallersGetDistinctValues(t *testing.T) {
	const callers = 32
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			a := factory(t)
			ctx := context.Background()

			var mu sync.Mutex
			got := make([]int64, 0, callers)
			g, gctx := errgroup.WithContext(ctx)
			for i := 0; i < callers; i++ {
				g.Go(func() error {
					v, err := a.NextValue(gctx, domain.SequenceProduct)
					if err != nil {
						return err
					}
					mu.Lock()
					got = append(got, v)
					mu.Unlock()
					return nil
				})
			}
			require.NoError(t, g.Wait())

			require.Len(t, got, callers)
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			for i, v := range got {
				require.Equal(t, int64(i+1), v, "values must be pairwise distinct")
			}
		})
	}
}

func TestBoltAllocator_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequences.db")
	ctx := context.Background()

	a, err := OpenBolt(path)
	require.NoError(t, err)
	_, err = a.NextValues(ctx, domain.SequencePlant, 10)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = OpenBolt(path)
	require.NoError(t, err)
	defer a.Close()
	v, err := a.NextValue(ctx, domain.SequencePlant)
	require.NoError(t, err)
	require.Equal(t, int64(11), v)
}

func TestGormAllocator_ClosedDatabaseIsAllocationFailure(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seq.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.SequenceCounter{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = NewGormAllocator(db).NextValue(context.Background(), domain.SequenceProduct)
	require.Error(t, err)
	require.Equal(t, apperr.KindAllocation, apperr.KindOf(err))
}
