package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/identifier"
	"github.com/pkrm0306/gp-backend/internal/location"
	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/internal/repository"
	"github.com/pkrm0306/gp-backend/internal/sequence"
)

const header = "product_ref,manufacturer_id,vendor_id,category_id,product_name,product_details,product_type,plant_name,plant_location,country_id,state_id,city\n"

const sampleCSV = header +
	",65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3c,65f1a2b3c4d5e6f708192a3d,Bamboo board,,1,Peenya,Plot 4,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,Bengaluru\n" +
	",65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3c,65f1a2b3c4d5e6f708192a3d,Bamboo board,,1,Hosur,Plot 9,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,Hosur\n" +
	",65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3c,65f1a2b3c4d5e6f708192a3d,Jute panel,Eco grade,,Peenya,Plot 4,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,Bengaluru\n"

type captureRegistrar struct {
	mid, vid string
	items    []registration.ProductInput
}

func (c *captureRegistrar) RegisterBulk(_ context.Context, mid, vid string, items []registration.ProductInput) ([]*domain.Product, error) {
	c.mid, c.vid, c.items = mid, vid, items
	out := make([]*domain.Product, len(items))
	for i := range items {
		out[i] = &domain.Product{ProductName: items[i].ProductName}
	}
	return out, nil
}

func TestGroup_FoldsPlantsIntoProducts(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	mid, vid, items, err := Group(rows)
	require.NoError(t, err)
	require.Equal(t, "65f1a2b3c4d5e6f708192a3b", mid)
	require.Equal(t, "65f1a2b3c4d5e6f708192a3c", vid)
	require.Len(t, items, 2)
	require.Equal(t, "Bamboo board", items[0].ProductName)
	require.Equal(t, 1, items[0].ProductType)
	require.Len(t, items[0].Plants, 2)
	require.Equal(t, "Hosur", items[0].Plants[1].PlantName)
	require.Equal(t, "Jute panel", items[1].ProductName)
	require.Equal(t, "Eco grade", items[1].ProductDetails)
	require.Len(t, items[1].Plants, 1)
}

func TestGroup_ProductRefSplitsSameName(t *testing.T) {
	csv := header +
		"a,65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3c,65f1a2b3c4d5e6f708192a3d,Board,,,P1,L,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,C\n" +
		"b,65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3c,65f1a2b3c4d5e6f708192a3d,Board,,,P2,L,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,C\n"
	rows, err := ReadRows(strings.NewReader(csv))
	require.NoError(t, err)
	_, _, items, err := Group(rows)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestGroup_RejectsMixedOwners(t *testing.T) {
	csv := sampleCSV +
		",65f1a2b3c4d5e6f708192a3b,65f1a2b3c4d5e6f708192a3e,65f1a2b3c4d5e6f708192a3d,Other,,,P,L,65f1a2b3c4d5e6f708192a01,65f1a2b3c4d5e6f708192b01,C\n"
	rows, err := ReadRows(strings.NewReader(csv))
	require.NoError(t, err)
	_, _, _, err = Group(rows)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Contains(t, err.Error(), "Line 5")
}

func TestReadRows_Empty(t *testing.T) {
	_, err := ReadRows(strings.NewReader(header))
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestImport_SingleBatch(t *testing.T) {
	reg := &captureRegistrar{}
	products, err := Import(context.Background(), reg, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Len(t, reg.items, 2)
	require.Equal(t, "65f1a2b3c4d5e6f708192a3b", reg.mid)
}

func TestImport_EndToEndAgainstMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.UpsertManufacturer(ctx, &domain.Manufacturer{
		ID: "65f1a2b3c4d5e6f708192a3b", ManufacturerInitial: "ABC", GpInternalID: "GPSC-312",
	}))
	require.NoError(t, store.UpsertCountry(ctx, &domain.Country{ID: "65f1a2b3c4d5e6f708192a01", CountryName: "India"}))
	require.NoError(t, store.UpsertState(ctx, &domain.State{ID: "65f1a2b3c4d5e6f708192b01", CountryRef: "65f1a2b3c4d5e6f708192a01"}))

	orch := registration.NewOrchestrator(store, sequence.NewMemoryAllocator(),
		identifier.NewGenerator(store), location.NewValidator(store))

	products, err := Import(ctx, orch, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, "GPABC312001", products[0].EoiNo)
	require.Equal(t, "GPABC312002", products[1].EoiNo)
	require.Equal(t, 3, store.PlantCount())

	// an unknown state aborts the whole file
	bad := strings.Replace(sampleCSV, "65f1a2b3c4d5e6f708192b01,Hosur", "65f1a2b3c4d5e6f708192bff,Hosur", 1)
	_, err = Import(ctx, orch, strings.NewReader(bad))
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.Len(t, store.Snapshot(), 2)
}
