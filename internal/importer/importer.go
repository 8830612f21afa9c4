// Package importer loads product registrations from CSV. Each row is one
// plant; rows with the same product_ref (or, when blank, the same category and
// product name) form one product. A file is registered as a single batch.
package importer

import (
	"context"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

// Registrar is the part of the orchestrator the importer drives.
type Registrar interface {
	RegisterBulk(ctx context.Context, manufacturerID, vendorID string, items []registration.ProductInput) ([]*domain.Product, error)
}

// Row is one CSV line.
type Row struct {
	ProductRef     string `csv:"product_ref"`
	ManufacturerID string `csv:"manufacturer_id"`
	VendorID       string `csv:"vendor_id"`
	CategoryID     string `csv:"category_id"`
	ProductName    string `csv:"product_name"`
	ProductImage   string `csv:"product_image"`
	ProductDetails string `csv:"product_details"`
	ProductType    int    `csv:"product_type"`
	registration.PlantInput
}

func (r *Row) groupKey() string {
	if ref := strings.TrimSpace(r.ProductRef); ref != "" {
		return "ref:" + ref
	}
	return strings.ToLower(strings.TrimSpace(r.CategoryID)) + "|" + strings.ToLower(strings.TrimSpace(r.ProductName))
}

// ReadRows decodes every row of r.
func ReadRows(r io.Reader) ([]*Row, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, apperr.BadRequest("Invalid CSV: %s", err.Error())
	}
	if len(rows) == 0 {
		return nil, apperr.BadRequest("CSV contains no rows")
	}
	return rows, nil
}

// Group folds rows into products in order of first appearance and returns
// the manufacturer and vendor shared by the whole file.
func Group(rows []*Row) (string, string, []registration.ProductInput, error) {
	if len(rows) == 0 {
		return "", "", nil, apperr.BadRequest("CSV contains no rows")
	}
	mid := strings.TrimSpace(rows[0].ManufacturerID)
	vid := strings.TrimSpace(rows[0].VendorID)

	index := make(map[string]int)
	var items []registration.ProductInput
	for i, row := range rows {
		line := i + 2 // header is line 1
		if !strings.EqualFold(strings.TrimSpace(row.ManufacturerID), mid) ||
			!strings.EqualFold(strings.TrimSpace(row.VendorID), vid) {
			return "", "", nil, apperr.BadRequest(
				"Line %d: all rows must share manufacturer_id %s and vendor_id %s", line, mid, vid)
		}
		key := row.groupKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(items)
			items = append(items, registration.ProductInput{
				ManufacturerID: mid,
				VendorID:       vid,
				CategoryID:     row.CategoryID,
				ProductName:    row.ProductName,
				ProductImage:   row.ProductImage,
				ProductDetails: row.ProductDetails,
				ProductType:    row.ProductType,
			})
			pos = len(items) - 1
		}
		items[pos].Plants = append(items[pos].Plants, row.PlantInput)
	}
	return mid, vid, items, nil
}

// Import reads r and registers its products in one batch. Nothing is stored
// when any row fails.
func Import(ctx context.Context, reg Registrar, r io.Reader) ([]*domain.Product, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	mid, vid, items, err := Group(rows)
	if err != nil {
		return nil, err
	}
	products, err := reg.RegisterBulk(ctx, mid, vid, items)
	if err != nil {
		return nil, errors.WithMessage(err, "import")
	}
	zap.L().Info("csv import finished",
		zap.String("namespace", "importer"),
		zap.Int("rows", len(rows)),
		zap.Int("products", len(products)))
	return products, nil
}
