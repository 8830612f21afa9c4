// Package registration runs the transactional product registration workflow:
// identifier synthesis, plant location checks and persistence in one unit of work.
package registration

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/identifier"
	"github.com/pkrm0306/gp-backend/internal/location"
	"github.com/pkrm0306/gp-backend/internal/sequence"
)

const (
	opRegister     = "register"
	opRegisterBulk = "register_bulk"
	opUpdate       = "update"
	opGet          = "get"
)

type Orchestrator struct {
	store      Store
	allocator  sequence.Allocator
	identifier *identifier.Generator
	locations  *location.Validator
	publisher  Publisher
	now        func() time.Time
	newID      func() string
}

type Option func(*Orchestrator)

func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(
	store Store,
	allocator sequence.Allocator,
	generator *identifier.Generator,
	locations *location.Validator,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		allocator:  allocator,
		identifier: generator,
		locations:  locations,
		publisher:  nopPublisher{},
		now:        time.Now,
		newID:      func() string { return primitive.NewObjectID().Hex() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterSingle persists one product with its plants, or nothing.
func (o *Orchestrator) RegisterSingle(ctx context.Context, in ProductInput) (*domain.Product, error) {
	item, err := in.normalize("", "")
	if err != nil {
		return nil, o.fail(opRegister, err)
	}

	var saved *domain.Product
	err = o.store.InTx(ctx, func(tx Tx) error {
		first, err := o.reserveEOISequence(ctx, tx, item.ManufacturerID, 1)
		if err != nil {
			return err
		}
		saved, err = o.register(ctx, tx, item, first)
		return err
	})
	if err != nil {
		return nil, o.fail(opRegister, err)
	}

	o.publisher.Publish(TopicProductRegistered, saved)
	return saved, nil
}

// RegisterBulk persists every item in one transaction. Non-empty
// manufacturerID and vendorID override the items' own; after that every item
// must name the same manufacturer and vendor.
func (o *Orchestrator) RegisterBulk(ctx context.Context, manufacturerID, vendorID string, items []ProductInput) ([]*domain.Product, error) {
	if len(items) == 0 {
		return nil, o.fail(opRegisterBulk, apperr.BadRequest("At least one product is required"))
	}
	normalized := make([]ProductInput, len(items))
	for i, item := range items {
		n, err := item.normalize(manufacturerID, vendorID)
		if err != nil {
			return nil, o.fail(opRegisterBulk, err)
		}
		normalized[i] = n
	}
	mid, vid := normalized[0].ManufacturerID, normalized[0].VendorID
	for _, item := range normalized[1:] {
		if item.ManufacturerID != mid || item.VendorID != vid {
			return nil, o.fail(opRegisterBulk, apperr.BadRequest(
				"All products in a batch must share the same manufacturerId and vendorId"))
		}
	}

	results := make([]*domain.Product, 0, len(normalized))
	err := o.store.InTx(ctx, func(tx Tx) error {
		results = results[:0]
		seq, err := o.reserveEOISequence(ctx, tx, mid, int64(len(normalized)))
		if err != nil {
			return err
		}
		for _, item := range normalized {
			saved, err := o.register(ctx, tx, item, seq)
			if err != nil {
				return err
			}
			results = append(results, saved)
			seq++
		}
		return nil
	})
	if err != nil {
		return nil, o.fail(opRegisterBulk, err)
	}

	for _, p := range results {
		o.publisher.Publish(TopicProductRegistered, p)
	}
	return results, nil
}

// UpdateProduct applies a partial update. A changed name regenerates the URN
// and EOI of the product and its plants.
func (o *Orchestrator) UpdateProduct(ctx context.Context, id string, in UpdateInput) (*domain.Product, error) {
	pid, err := NormalizeID(id, "productId")
	if err != nil {
		return nil, o.fail(opUpdate, err)
	}
	if in.ProductName != nil && strings.TrimSpace(*in.ProductName) == "" {
		return nil, o.fail(opUpdate, apperr.BadRequest("productName must not be empty"))
	}

	var (
		updated *domain.Product
		renamed bool
	)
	err = o.store.InTx(ctx, func(tx Tx) error {
		product, err := tx.FindProductForUpdate(ctx, pid)
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		if err != nil {
			return errors.Wrapf(err, "load product %s", pid)
		}

		now := o.now()
		changes := in.changes(now)
		renamed = in.ProductName != nil && *in.ProductName != product.ProductName
		if renamed {
			seq, err := o.reserveEOISequence(ctx, tx, product.ManufacturerID, 1)
			if err != nil {
				return err
			}
			eoi, err := o.identifier.EOI(ctx, product.ManufacturerID, seq)
			if err != nil {
				return err
			}
			urn := o.identifier.RegistrationNumber(now)
			changes.UrnNo, changes.EoiNo = &urn, &eoi
			if err := tx.UpdatePlantIdentifiers(ctx, product.ID, urn, eoi); err != nil {
				return errors.Wrap(err, "update plant identifiers")
			}
		}

		if err := tx.UpdateProduct(ctx, product.ID, changes); err != nil {
			return errors.Wrap(err, "update product")
		}
		changes.Apply(product)
		plants, err := tx.ListPlants(ctx, product.ID)
		if err != nil {
			return errors.Wrap(err, "list plants")
		}
		product.Plants = plants
		updated = product
		return nil
	})
	if err != nil {
		return nil, o.fail(opUpdate, err)
	}

	o.publisher.Publish(TopicProductUpdated, updated, renamed)
	return updated, nil
}

// GetProduct returns a product with its plants.
func (o *Orchestrator) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	pid, err := NormalizeID(id, "productId")
	if err != nil {
		return nil, classify(opGet, err)
	}
	var product *domain.Product
	err = o.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.FindProduct(ctx, pid)
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.NotFound("Product not found")
		}
		if err != nil {
			return err
		}
		if p.Plants, err = tx.ListPlants(ctx, pid); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, classify(opGet, err)
	}
	return product, nil
}

func (in UpdateInput) changes(now time.Time) ProductChanges {
	return ProductChanges{
		ProductName:        in.ProductName,
		ProductImage:       in.ProductImage,
		ProductDetails:     in.ProductDetails,
		ProductType:        in.ProductType,
		ProductStatus:      in.ProductStatus,
		ProductRenewStatus: in.ProductRenewStatus,
		UrnStatus:          in.UrnStatus,
		UpdatedDate:        now,
	}
}

// register writes one product and its plants. eoiSeq is already reserved.
func (o *Orchestrator) register(ctx context.Context, tx Tx, in ProductInput, eoiSeq int64) (*domain.Product, error) {
	now := o.now()
	urn := o.identifier.RegistrationNumber(now)
	eoi, err := o.identifier.EOI(ctx, in.ManufacturerID, eoiSeq)
	if err != nil {
		return nil, err
	}

	productID, err := o.allocator.NextValue(ctx, domain.SequenceProduct)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:             o.newID(),
		ProductID:      productID,
		CategoryID:     in.CategoryID,
		VendorID:       in.VendorID,
		ManufacturerID: in.ManufacturerID,
		EoiNo:          eoi,
		UrnNo:          urn,
		ProductName:    in.ProductName,
		ProductImage:   in.ProductImage,
		PlantCount:     len(in.Plants),
		ProductDetails: in.ProductDetails,
		ProductType:    in.ProductType,
		CreatedDate:    now,
		UpdatedDate:    now,
	}
	if err := tx.CreateProduct(ctx, product); err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	plants := make([]domain.ProductPlant, 0, len(in.Plants))
	for _, p := range in.Plants {
		plantID, err := o.allocator.NextValue(ctx, domain.SequencePlant)
		if err != nil {
			return nil, err
		}
		if err := o.locations.ValidateCountry(ctx, p.CountryID); err != nil {
			return nil, err
		}
		if err := o.locations.ValidateState(ctx, p.StateID, p.CountryID); err != nil {
			return nil, err
		}

		plant := domain.ProductPlant{
			ID:             o.newID(),
			ProductPlantID: plantID,
			ProductID:      product.ID,
			VendorID:       in.VendorID,
			CategoryID:     in.CategoryID,
			ManufacturerID: in.ManufacturerID,
			UrnNo:          urn,
			EoiNo:          eoi,
			PlantName:      p.PlantName,
			PlantLocation:  p.PlantLocation,
			CountryID:      p.CountryID,
			StateID:        p.StateID,
			City:           p.City,
			PlantStatus:    1,
			CreatedDate:    now,
		}
		if err := tx.CreatePlant(ctx, &plant); err != nil {
			return nil, errors.Wrap(err, "create plant")
		}
		plants = append(plants, plant)
	}
	product.Plants = plants
	return product, nil
}

// reserveEOISequence reserves n consecutive EOI sequence numbers for a
// manufacturer and returns the first. The per-manufacturer counter is floored
// to the stored product count so it never trails data written before it existed.
func (o *Orchestrator) reserveEOISequence(ctx context.Context, tx Tx, manufacturerID string, n int64) (int64, error) {
	count, err := tx.CountProductsByManufacturer(ctx, manufacturerID)
	if err != nil {
		return 0, errors.Wrap(err, "count manufacturer products")
	}
	name := domain.EOISequenceName(manufacturerID)
	if err := o.allocator.Floor(ctx, name, count); err != nil {
		return 0, err
	}
	last, err := o.allocator.NextValues(ctx, name, n)
	if err != nil {
		return 0, err
	}
	return last - n + 1, nil
}

// fail reports a failed write and classifies err for the caller.
func (o *Orchestrator) fail(op string, err error) error {
	o.publisher.Publish(TopicRegistrationFailed, op, err)
	return classify(op, err)
}

// classify logs err at the orchestrator boundary. Validation and NotFound
// pass through unchanged, allocation failures keep their kind, and anything
// else becomes Internal.
func classify(op string, err error) error {
	if apperr.IsRecognized(err) {
		zap.L().Info("registration rejected",
			zap.String("namespace", "registration"),
			zap.String("operation", op),
			zap.String("reason", err.Error()))
		return err
	}
	zap.L().Error("registration failed",
		zap.String("namespace", "registration"),
		zap.String("operation", op),
		zap.Error(err))
	if apperr.KindOf(err) == apperr.KindAllocation {
		return err
	}
	return apperr.Internal(err, "%s. Check server logs for details.", err.Error())
}
