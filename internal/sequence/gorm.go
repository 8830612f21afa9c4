package sequence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
)

// Both postgres and sqlite (3.35+) accept ON CONFLICT ... RETURNING.
const (
	incrementSQL = `INSERT INTO sequences (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + excluded.value, updated_at = excluded.updated_at
RETURNING value`

	floorSQL = `INSERT INTO sequences (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET value = CASE WHEN sequences.value < excluded.value THEN excluded.value ELSE sequences.value END`
)

// GormAllocator keeps counters in the "sequences" table. It must be given the
// base handle, never a transaction handle, so values survive rollbacks. Each
// call runs in its own short transaction; with sqlite opened using
// _txlock=immediate that takes the write lock at BEGIN, so concurrent callers
// queue on the busy timeout instead of failing a lock upgrade.
type GormAllocator struct {
	db *gorm.DB
}

func NewGormAllocator(db *gorm.DB) *GormAllocator {
	return &GormAllocator{db: db}
}

func (a *GormAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	return a.NextValues(ctx, name, 1)
}

func (a *GormAllocator) NextValues(ctx context.Context, name string, n int64) (int64, error) {
	if err := checkRequest(ctx, name, n); err != nil {
		return 0, err
	}
	var value int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Raw(incrementSQL, name, n, time.Now()).Scan(&value).Error
	})
	if err != nil {
		return 0, apperr.Allocation(err, name)
	}
	if value < n {
		return 0, apperr.Allocation(errors.New("upsert returned no value"), name)
	}
	return value, nil
}

func (a *GormAllocator) Floor(ctx context.Context, name string, min int64) error {
	if err := checkRequest(ctx, name, 1); err != nil {
		return err
	}
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Exec(floorSQL, name, min, time.Now()).Error
	})
	if err != nil {
		return apperr.Allocation(err, name)
	}
	return nil
}

func (a *GormAllocator) Current(ctx context.Context, name string) (int64, error) {
	var counter domain.SequenceCounter
	err := a.db.WithContext(ctx).Where("name = ?", name).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apperr.Allocation(err, name)
	}
	return counter.Value, nil
}
