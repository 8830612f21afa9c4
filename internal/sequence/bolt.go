package sequence

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/pkrm0306/gp-backend/internal/apperr"
)

var sequencesBucket = []byte("sequences")

// BoltAllocator stores counters in an embedded bbolt file. bbolt serializes
// writers, so every Update is an atomic increment-and-read.
type BoltAllocator struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the counter file at path.
func OpenBolt(path string) (*BoltAllocator, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create sequence directory")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open sequence store %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sequencesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create sequences bucket")
	}
	return &BoltAllocator{db: db}, nil
}

func (a *BoltAllocator) Close() error {
	return a.db.Close()
}

func (a *BoltAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	return a.NextValues(ctx, name, 1)
}

func (a *BoltAllocator) NextValues(ctx context.Context, name string, n int64) (int64, error) {
	if err := checkRequest(ctx, name, n); err != nil {
		return 0, err
	}
	var value int64
	err := a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sequencesBucket)
		value = decodeValue(b.Get([]byte(name))) + n
		return b.Put([]byte(name), encodeValue(value))
	})
	if err != nil {
		return 0, apperr.Allocation(err, name)
	}
	return value, nil
}

func (a *BoltAllocator) Floor(ctx context.Context, name string, min int64) error {
	if err := checkRequest(ctx, name, 1); err != nil {
		return err
	}
	err := a.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sequencesBucket)
		if decodeValue(b.Get([]byte(name))) >= min {
			return nil
		}
		return b.Put([]byte(name), encodeValue(min))
	})
	if err != nil {
		return apperr.Allocation(err, name)
	}
	return nil
}

func (a *BoltAllocator) Current(_ context.Context, name string) (int64, error) {
	var value int64
	err := a.db.View(func(tx *bolt.Tx) error {
		value = decodeValue(tx.Bucket(sequencesBucket).Get([]byte(name)))
		return nil
	})
	if err != nil {
		return 0, apperr.Allocation(err, name)
	}
	return value, nil
}

func encodeValue(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decodeValue(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}
