// Package repository holds the storage implementations behind the registration
// core: gorm (postgres/sqlite) and an in-memory store, plus reference lookups.
package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/identifier"
	"github.com/pkrm0306/gp-backend/internal/location"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

// ErrConflict is returned at commit when another transaction already wrote a
// record with the same unique key.
var ErrConflict = errors.New("write conflict")

// ReferenceLookup resolves manufacturers, countries and states.
type ReferenceLookup interface {
	identifier.ManufacturerLookup
	location.Lookup
}

// ReferenceWriter is used by startup seeding only; the core never writes
// reference data.
type ReferenceWriter interface {
	UpsertManufacturer(ctx context.Context, m *domain.Manufacturer) error
	UpsertCountry(ctx context.Context, c *domain.Country) error
	UpsertState(ctx context.Context, s *domain.State) error
}

// SequenceSource reports the highest numeric ids already stored, used to
// reconcile the product and plant counters.
type SequenceSource interface {
	MaxProductID(ctx context.Context) (int64, error)
	MaxPlantID(ctx context.Context) (int64, error)
}

// Backend bundles everything one storage engine provides.
type Backend interface {
	registration.Store
	ReferenceLookup
	ReferenceWriter
	SequenceSource
}

var (
	_ Backend = (*GormStore)(nil)
	_ Backend = (*MemoryStore)(nil)

	_ registration.Tx = (*gormTx)(nil)
	_ registration.Tx = (*memoryTx)(nil)
	_ ReferenceLookup = (*CachedLookup)(nil)
)
