package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

// referenceSeed is the layout of the reference data YAML file.
type referenceSeed struct {
	Manufacturers []domain.Manufacturer `yaml:"manufacturers"`
	Countries     []domain.Country      `yaml:"countries"`
	States        []domain.State        `yaml:"states"`
}

// SeedReferenceData upserts every record of the seed file. Ids must be
// 24-character hex object ids; they are stored lower-cased.
func (a *Application) SeedReferenceData(ctx context.Context, file string) error {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return errors.Wrap(err, "read reference seed")
	}
	var seed referenceSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrapf(err, "parse reference seed %s", file)
	}

	for i := range seed.Manufacturers {
		m := &seed.Manufacturers[i]
		if m.ID, err = registration.NormalizeID(m.ID, "manufacturer id"); err != nil {
			return errors.Wrapf(err, "manufacturer #%d", i+1)
		}
		if m.ManufacturerStatus == 0 {
			m.ManufacturerStatus = 1
		}
		if err := a.backend.UpsertManufacturer(ctx, m); err != nil {
			return err
		}
	}
	for i := range seed.Countries {
		c := &seed.Countries[i]
		if c.ID, err = registration.NormalizeID(c.ID, "country id"); err != nil {
			return errors.Wrapf(err, "country #%d", i+1)
		}
		if err := a.backend.UpsertCountry(ctx, c); err != nil {
			return err
		}
	}
	for i := range seed.States {
		s := &seed.States[i]
		if s.ID, err = registration.NormalizeID(s.ID, "state id"); err != nil {
			return errors.Wrapf(err, "state #%d", i+1)
		}
		s.CountryRef = strings.ToLower(strings.TrimSpace(s.CountryRef))
		if err := a.backend.UpsertState(ctx, s); err != nil {
			return err
		}
	}

	if a.lookup != nil {
		a.lookup.Flush()
	}
	zap.L().Info("reference data seeded",
		zap.String("namespace", "app"),
		zap.String("file", file),
		zap.Int("manufacturers", len(seed.Manufacturers)),
		zap.Int("countries", len(seed.Countries)),
		zap.Int("states", len(seed.States)))
	return nil
}

// ReconcileSequences raises the product and plant counters to at least the
// highest stored id, so rows written by imports or restores never collide
// with newly minted ids.
func (a *Application) ReconcileSequences(ctx context.Context) error {
	maxProduct, err := a.backend.MaxProductID(ctx)
	if err != nil {
		return err
	}
	if err := a.allocator.Floor(ctx, domain.SequenceProduct, maxProduct); err != nil {
		return err
	}
	maxPlant, err := a.backend.MaxPlantID(ctx)
	if err != nil {
		return err
	}
	return a.allocator.Floor(ctx, domain.SequencePlant, maxPlant)
}

func (a *Application) checkSequences(ctx context.Context) {
	if err := a.ReconcileSequences(ctx); err != nil {
		zap.L().Error("sequence reconciliation failed", zap.String("namespace", "app"), zap.Error(err))
		return
	}
	product, _ := a.allocator.Current(ctx, domain.SequenceProduct)
	plant, _ := a.allocator.Current(ctx, domain.SequencePlant)
	zap.L().Info("sequences reconciled",
		zap.String("namespace", "app"),
		zap.Int64("product", product),
		zap.Int64("plant", plant))
}
