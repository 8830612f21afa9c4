package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkrm0306/gp-backend/config"
	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/internal/repository"
	"github.com/pkrm0306/gp-backend/pkg/metrics"
)

const seedYAML = `
manufacturers:
  - id: 65F1A2B3C4D5E6F708192A3B
    name: Acme Boards
    gp_internal_id: GPSC-312
    initial: ABC
countries:
  - id: 65f1a2b3c4d5e6f708192a01
    name: India
    legacy_id: 101
    legacy_code: IN
states:
  - id: 65f1a2b3c4d5e6f708192b01
    name: Karnataka
    country_id: 65F1A2B3C4D5E6F708192A01
  - id: 65f1a2b3c4d5e6f708192b02
    name: Kerala
    legacy_country_id: 101
`

func testConfig(t *testing.T, dbType string) *config.AppConfig {
	t.Helper()
	workdir := t.TempDir()
	seed := filepath.Join(workdir, "seed.yml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(workdir, "data"), 0o755))

	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = workdir
	cfg.System.Location = "UTC"
	cfg.Logger.FileEnable = false
	cfg.Database = config.DBConfig{Type: dbType, Name: "gp.db"}
	cfg.Sequence.Backend = ""
	cfg.Reference.SeedFile = seed
	return &cfg
}

func sampleInput() registration.ProductInput {
	return registration.ProductInput{
		ManufacturerID: "65f1a2b3c4d5e6f708192a3b",
		VendorID:       "65f1a2b3c4d5e6f708192a3c",
		CategoryID:     "65f1a2b3c4d5e6f708192a3d",
		ProductName:    "Bamboo board",
		Plants: []registration.PlantInput{
			{PlantName: "Peenya", PlantLocation: "Plot 4", CountryID: "65f1a2b3c4d5e6f708192a01", StateID: "65f1a2b3c4d5e6f708192b01", City: "Bengaluru"},
			{PlantName: "Kochi", PlantLocation: "SEZ", CountryID: "65f1a2b3c4d5e6f708192a01", StateID: "65f1a2b3c4d5e6f708192b02", City: "Kochi"},
		},
	}
}

func TestApplication_MemoryBackendEndToEnd(t *testing.T) {
	a := NewApplication(testConfig(t, "memory"))
	require.NoError(t, a.Init())
	t.Cleanup(a.Release)

	require.Nil(t, a.DB())
	require.Equal(t, "memory", a.Config().SequenceBackend())

	p, err := a.Registration().RegisterSingle(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, "GPABC312001", p.EoiNo)
	require.Len(t, p.Plants, 2)

	n, err := metrics.Sum(metrics.RegistrationSucceeded, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	n, err = metrics.Sum(metrics.PlantsRegistered, time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestApplication_SQLiteBackendUsesBolt(t *testing.T) {
	a := NewApplication(testConfig(t, "sqlite"))
	require.NoError(t, a.Init())
	t.Cleanup(a.Release)

	require.NotNil(t, a.DB())
	require.FileExists(t, filepath.Join(a.Config().GetDataDir(), "sequences.db"))

	ctx := context.Background()
	first, err := a.Registration().RegisterSingle(ctx, sampleInput())
	require.NoError(t, err)
	second, err := a.Registration().RegisterSingle(ctx, sampleInput())
	require.NoError(t, err)
	require.Equal(t, "GPABC312002", second.EoiNo)

	got, err := a.Registration().GetProduct(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Plants, 2)
}

func TestApplication_ReconcileSequences(t *testing.T) {
	a := NewApplication(testConfig(t, "memory"))
	require.NoError(t, a.Init())
	t.Cleanup(a.Release)
	ctx := context.Background()

	// rows restored from elsewhere carry ids the counters have never issued
	store := a.Backend().(*repository.MemoryStore)
	require.NoError(t, store.InTx(ctx, func(tx registration.Tx) error {
		if err := tx.CreateProduct(ctx, &domain.Product{ID: "65f1a2b3c4d5e6f708192c01", ProductID: 40}); err != nil {
			return err
		}
		return tx.CreatePlant(ctx, &domain.ProductPlant{ID: "65f1a2b3c4d5e6f708192d01", ProductPlantID: 90, ProductID: "65f1a2b3c4d5e6f708192c01"})
	}))

	require.NoError(t, a.ReconcileSequences(ctx))
	v, err := a.Allocator().NextValue(ctx, domain.SequenceProduct)
	require.NoError(t, err)
	require.Equal(t, int64(41), v)
	v, err = a.Allocator().NextValue(ctx, domain.SequencePlant)
	require.NoError(t, err)
	require.Equal(t, int64(91), v)
}

func TestSeedReferenceData_RejectsBadIDs(t *testing.T) {
	a := NewApplication(testConfig(t, "memory"))
	require.NoError(t, a.Init())
	t.Cleanup(a.Release)

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("countries:\n  - id: 12\n    name: X\n"), 0o600))
	err := a.SeedReferenceData(context.Background(), bad)
	require.ErrorContains(t, err, "country #1")
}
