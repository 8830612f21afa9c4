package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "gp.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestGormStore_RegisterAndRead(t *testing.T) {
	s := NewGormStore(openSQLite(t))
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		if err := tx.CreateProduct(ctx, sampleProduct(productA, 7)); err != nil {
			return err
		}
		if err := tx.CreatePlant(ctx, samplePlant(plantA2, productA, 12)); err != nil {
			return err
		}
		return tx.CreatePlant(ctx, samplePlant(plantA1, productA, 11))
	}))

	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		n, err := tx.CountProductsByManufacturer(ctx, mfr)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		p, err := tx.FindProduct(ctx, productA)
		require.NoError(t, err)
		require.Equal(t, int64(7), p.ProductID)
		require.Equal(t, "GPABC312001", p.EoiNo)

		plants, err := tx.ListPlants(ctx, productA)
		require.NoError(t, err)
		require.Len(t, plants, 2)
		require.Equal(t, int64(11), plants[0].ProductPlantID)
		return nil
	}))

	maxProduct, err := s.MaxProductID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(7), maxProduct)
	maxPlant, err := s.MaxPlantID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12), maxPlant)
}

func TestGormStore_RollbackDiscardsWrites(t *testing.T) {
	s := NewGormStore(openSQLite(t))
	ctx := context.Background()

	boom := errors.New("state mismatch")
	err := s.InTx(ctx, func(tx registration.Tx) error {
		if err := tx.CreateProduct(ctx, sampleProduct(productA, 1)); err != nil {
			return err
		}
		if err := tx.CreatePlant(ctx, samplePlant(plantA1, productA, 1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		_, err := tx.FindProduct(ctx, productA)
		require.ErrorIs(t, err, domain.ErrNotFound)
		plants, err := tx.ListPlants(ctx, productA)
		require.NoError(t, err)
		require.Empty(t, plants)
		return nil
	}))
}

func TestGormStore_UpdateProductWritesOnlySetColumns(t *testing.T) {
	s := NewGormStore(openSQLite(t))
	ctx := context.Background()

	p := sampleProduct(productA, 1)
	p.ProductStatus = 2
	p.UrnStatus = 1
	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error { return tx.CreateProduct(ctx, p) }))

	// rename committed by someone else after our copy was read
	stale := *p
	name := "Renamed"
	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		return tx.UpdateProduct(ctx, productA, registration.ProductChanges{ProductName: &name})
	}))

	zero := 0
	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		locked, err := tx.FindProductForUpdate(ctx, productA)
		require.NoError(t, err)
		require.Equal(t, "Renamed", locked.ProductName)
		return tx.UpdateProduct(ctx, stale.ID, registration.ProductChanges{
			ProductStatus: &zero,
			UpdatedDate:   stale.UpdatedDate.Add(time.Hour),
		})
	}))

	require.NoError(t, s.InTx(ctx, func(tx registration.Tx) error {
		got, err := tx.FindProduct(ctx, productA)
		require.NoError(t, err)
		require.Zero(t, got.ProductStatus)
		require.Equal(t, 1, got.UrnStatus)
		require.Equal(t, "Renamed", got.ProductName)
		require.Equal(t, "GPABC312001", got.EoiNo)
		require.True(t, got.UpdatedDate.Equal(stale.UpdatedDate.Add(time.Hour)))
		return nil
	}))

	err := s.InTx(ctx, func(tx registration.Tx) error {
		return tx.UpdateProduct(ctx, productB, registration.ProductChanges{ProductStatus: &zero})
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.InTx(ctx, func(tx registration.Tx) error {
		_, err := tx.FindProductForUpdate(ctx, productB)
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGormStore_ReferenceUpsertAndFind(t *testing.T) {
	s := NewGormStore(openSQLite(t))
	ctx := context.Background()

	legacy := int64(101)
	require.NoError(t, s.UpsertManufacturer(ctx, &domain.Manufacturer{ID: mfr, ManufacturerInitial: "AB", GpInternalID: "GP-1"}))
	require.NoError(t, s.UpsertManufacturer(ctx, &domain.Manufacturer{ID: mfr, ManufacturerInitial: "ABC", GpInternalID: "GP-1"}))
	require.NoError(t, s.UpsertCountry(ctx, &domain.Country{ID: productA, LegacyID: &legacy, CountryName: "India"}))
	require.NoError(t, s.UpsertState(ctx, &domain.State{ID: productB, LegacyCountryID: &legacy, StateName: "Kerala"}))

	m, err := s.FindManufacturer(ctx, mfr)
	require.NoError(t, err)
	require.Equal(t, "ABC", m.ManufacturerInitial)

	c, err := s.FindCountry(ctx, productA)
	require.NoError(t, err)
	require.Equal(t, int64(101), *c.LegacyID)

	st, err := s.FindState(ctx, productB)
	require.NoError(t, err)
	require.Equal(t, int64(101), *st.LegacyCountryID)

	_, err = s.FindState(ctx, plantA1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
