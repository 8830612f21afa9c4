package registration

import (
	"context"
	"time"

	"github.com/pkrm0306/gp-backend/internal/domain"
)

// Store opens the atomic unit of work every registration call runs in.
// InTx commits when fn returns nil and rolls back otherwise; nothing written
// through tx is visible to other callers before commit.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the product/plant persistence surface available inside a transaction.
// Finders return domain.ErrNotFound for missing rows.
type Tx interface {
	CountProductsByManufacturer(ctx context.Context, manufacturerID string) (int64, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	CreatePlant(ctx context.Context, plant *domain.ProductPlant) error
	FindProduct(ctx context.Context, id string) (*domain.Product, error)
	// FindProductForUpdate is FindProduct that also holds the row against
	// concurrent writers until the transaction ends. Stores without row locks
	// reject the later of two conflicting commits instead.
	FindProductForUpdate(ctx context.Context, id string) (*domain.Product, error)
	// UpdateProduct writes only the columns set in changes.
	UpdateProduct(ctx context.Context, id string, changes ProductChanges) error
	ListPlants(ctx context.Context, productID string) ([]domain.ProductPlant, error)
	// UpdatePlantIdentifiers rewrites the denormalized URN/EOI of a product's plants.
	UpdatePlantIdentifiers(ctx context.Context, productID, urnNo, eoiNo string) error
}

// ProductChanges is a partial product update. Nil fields are left as stored.
type ProductChanges struct {
	ProductName        *string
	ProductImage       *string
	ProductDetails     *string
	ProductType        *int
	ProductStatus      *int
	ProductRenewStatus *int
	UrnStatus          *int
	UrnNo              *string
	EoiNo              *string
	UpdatedDate        time.Time
}

// Apply copies the set fields onto p.
func (c ProductChanges) Apply(p *domain.Product) {
	if c.ProductName != nil {
		p.ProductName = *c.ProductName
	}
	if c.ProductImage != nil {
		p.ProductImage = *c.ProductImage
	}
	if c.ProductDetails != nil {
		p.ProductDetails = *c.ProductDetails
	}
	if c.ProductType != nil {
		p.ProductType = *c.ProductType
	}
	if c.ProductStatus != nil {
		p.ProductStatus = *c.ProductStatus
	}
	if c.ProductRenewStatus != nil {
		p.ProductRenewStatus = *c.ProductRenewStatus
	}
	if c.UrnStatus != nil {
		p.UrnStatus = *c.UrnStatus
	}
	if c.UrnNo != nil {
		p.UrnNo = *c.UrnNo
	}
	if c.EoiNo != nil {
		p.EoiNo = *c.EoiNo
	}
	if !c.UpdatedDate.IsZero() {
		p.UpdatedDate = c.UpdatedDate
	}
}

// Publisher receives post-commit events. asaskevich/EventBus satisfies it.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

const (
	TopicProductRegistered  = "product.registered"  // args: *domain.Product
	TopicProductUpdated     = "product.updated"     // args: *domain.Product, renamed bool
	TopicRegistrationFailed = "registration.failed" // args: operation string, err error
)

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) {}
