package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

// GormStore is the gorm-backed Backend used with postgres and sqlite.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx registration.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

func (s *GormStore) MaxProductID(ctx context.Context) (int64, error) {
	return maxColumn(ctx, s.db, &domain.Product{}, "product_id")
}

func (s *GormStore) MaxPlantID(ctx context.Context) (int64, error) {
	return maxColumn(ctx, s.db, &domain.ProductPlant{}, "product_plant_id")
}

func maxColumn(ctx context.Context, db *gorm.DB, model interface{}, column string) (int64, error) {
	var max int64
	err := db.WithContext(ctx).Model(model).Select("COALESCE(MAX(" + column + "), 0)").Scan(&max).Error
	return max, errors.Wrapf(err, "max %s", column)
}

func (s *GormStore) FindManufacturer(ctx context.Context, id string) (*domain.Manufacturer, error) {
	var m domain.Manufacturer
	if err := first(ctx, s.db, &m, id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) FindCountry(ctx context.Context, id string) (*domain.Country, error) {
	var c domain.Country
	if err := first(ctx, s.db, &c, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GormStore) FindState(ctx context.Context, id string) (*domain.State, error) {
	var st domain.State
	if err := first(ctx, s.db, &st, id); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) UpsertManufacturer(ctx context.Context, m *domain.Manufacturer) error {
	return upsert(ctx, s.db, m)
}

func (s *GormStore) UpsertCountry(ctx context.Context, c *domain.Country) error {
	return upsert(ctx, s.db, c)
}

func (s *GormStore) UpsertState(ctx context.Context, st *domain.State) error {
	return upsert(ctx, s.db, st)
}

func first(ctx context.Context, db *gorm.DB, dest interface{}, id string) error {
	err := db.WithContext(ctx).Where("id = ?", id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return errors.Wrapf(err, "find %s", id)
}

func upsert(ctx context.Context, db *gorm.DB, value interface{}) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
	return errors.Wrap(err, "upsert reference record")
}

type gormTx struct {
	db *gorm.DB
}

func (tx *gormTx) CountProductsByManufacturer(ctx context.Context, manufacturerID string) (int64, error) {
	var n int64
	err := tx.db.WithContext(ctx).Model(&domain.Product{}).
		Where("manufacturer_id = ?", manufacturerID).
		Count(&n).Error
	return n, errors.Wrap(err, "count products")
}

func (tx *gormTx) CreateProduct(ctx context.Context, product *domain.Product) error {
	return tx.db.WithContext(ctx).Create(product).Error
}

func (tx *gormTx) CreatePlant(ctx context.Context, plant *domain.ProductPlant) error {
	return tx.db.WithContext(ctx).Create(plant).Error
}

func (tx *gormTx) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := first(ctx, tx.db, &p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProductForUpdate issues SELECT ... FOR UPDATE. The sqlite dialect drops
// the locking clause; there the immediate transaction already holds the
// database write lock.
func (tx *gormTx) FindProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := first(ctx, tx.db.Clauses(clause.Locking{Strength: "UPDATE"}), &p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (tx *gormTx) UpdateProduct(ctx context.Context, id string, changes registration.ProductChanges) error {
	cols := productColumns(changes)
	if len(cols) == 0 {
		var p domain.Product
		return first(ctx, tx.db, &p, id)
	}
	res := tx.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// productColumns maps the set fields of c to column values. A map keeps zero
// values such as status 0.
func productColumns(c registration.ProductChanges) map[string]interface{} {
	cols := map[string]interface{}{}
	if c.ProductName != nil {
		cols["product_name"] = *c.ProductName
	}
	if c.ProductImage != nil {
		cols["product_image"] = *c.ProductImage
	}
	if c.ProductDetails != nil {
		cols["product_details"] = *c.ProductDetails
	}
	if c.ProductType != nil {
		cols["product_type"] = *c.ProductType
	}
	if c.ProductStatus != nil {
		cols["product_status"] = *c.ProductStatus
	}
	if c.ProductRenewStatus != nil {
		cols["product_renew_status"] = *c.ProductRenewStatus
	}
	if c.UrnStatus != nil {
		cols["urn_status"] = *c.UrnStatus
	}
	if c.UrnNo != nil {
		cols["urn_no"] = *c.UrnNo
	}
	if c.EoiNo != nil {
		cols["eoi_no"] = *c.EoiNo
	}
	if !c.UpdatedDate.IsZero() {
		cols["updated_date"] = c.UpdatedDate
	}
	return cols
}

func (tx *gormTx) ListPlants(ctx context.Context, productID string) ([]domain.ProductPlant, error) {
	var plants []domain.ProductPlant
	err := tx.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("product_plant_id").
		Find(&plants).Error
	return plants, errors.Wrap(err, "list plants")
}

func (tx *gormTx) UpdatePlantIdentifiers(ctx context.Context, productID, urnNo, eoiNo string) error {
	return tx.db.WithContext(ctx).Model(&domain.ProductPlant{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{"urn_no": urnNo, "eoi_no": eoiNo}).Error
}
