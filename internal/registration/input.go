package registration

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pkrm0306/gp-backend/internal/apperr"
)

type PlantInput struct {
	PlantName     string `json:"plantName" csv:"plant_name" validate:"required"`
	PlantLocation string `json:"plantLocation" csv:"plant_location" validate:"required"`
	CountryID     string `json:"countryId" csv:"country_id" validate:"required"`
	StateID       string `json:"stateId" csv:"state_id" validate:"required"`
	City          string `json:"city" csv:"city" validate:"required"`
}

type ProductInput struct {
	ManufacturerID string       `json:"manufacturerId" validate:"required"`
	VendorID       string       `json:"vendorId" validate:"required"`
	CategoryID     string       `json:"categoryId" validate:"required"`
	ProductName    string       `json:"productName" validate:"required"`
	ProductImage   string       `json:"productImage"`
	ProductDetails string       `json:"productDetails"`
	ProductType    int          `json:"productType"`
	Plants         []PlantInput `json:"plants" validate:"required,min=1,dive"`
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	ProductName        *string `json:"productName"`
	ProductImage       *string `json:"productImage"`
	ProductDetails     *string `json:"productDetails"`
	ProductType        *int    `json:"productType"`
	ProductStatus      *int    `json:"productStatus"`
	ProductRenewStatus *int    `json:"productRenewStatus"`
	UrnStatus          *int    `json:"urnStatus"`
}

// NormalizeID checks that raw is a 24-character hex object id and returns its
// canonical lower-case form.
func NormalizeID(raw, field string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", apperr.BadRequest("%s is required", field)
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return "", apperr.BadRequest("Invalid %s format. Must be a valid 24-character hex object id.", field)
	}
	return oid.Hex(), nil
}

// normalize returns a copy with every id canonicalized. manufacturerID and
// vendorID, when non-empty, override the item's own values.
func (in ProductInput) normalize(manufacturerID, vendorID string) (ProductInput, error) {
	out := in
	if manufacturerID != "" {
		out.ManufacturerID = manufacturerID
	}
	if vendorID != "" {
		out.VendorID = vendorID
	}

	var err error
	if out.ManufacturerID, err = NormalizeID(out.ManufacturerID, "manufacturerId"); err != nil {
		return out, err
	}
	if out.VendorID, err = NormalizeID(out.VendorID, "vendorId"); err != nil {
		return out, err
	}
	if out.CategoryID, err = NormalizeID(out.CategoryID, "categoryId"); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.ProductName) == "" {
		return out, apperr.BadRequest("productName is required")
	}
	if len(out.Plants) == 0 {
		return out, apperr.BadRequest("At least one plant is required")
	}

	out.Plants = make([]PlantInput, len(in.Plants))
	for i, p := range in.Plants {
		if p.CountryID, err = NormalizeID(p.CountryID, "countryId"); err != nil {
			return out, err
		}
		if p.StateID, err = NormalizeID(p.StateID, "stateId"); err != nil {
			return out, err
		}
		out.Plants[i] = p
	}
	return out, nil
}
