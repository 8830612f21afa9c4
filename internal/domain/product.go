package domain

import "time"

// Product is a registered item. ID is the 24-hex object id exposed to clients,
// ProductID the numeric id minted by the "product" sequence.
type Product struct {
	ID                  string         `gorm:"primaryKey;size:24" json:"_id"`
	ProductID           int64          `gorm:"uniqueIndex" json:"productId"`
	CategoryID          string         `gorm:"size:24;index" json:"categoryId"`
	VendorID            string         `gorm:"size:24;index" json:"vendorId"`
	ManufacturerID      string         `gorm:"size:24;index" json:"manufacturerId"`
	EoiNo               string         `gorm:"size:64;index" json:"eoiNo"`
	UrnNo               string         `gorm:"size:64;index" json:"urnNo"`
	ProductName         string         `gorm:"size:255" json:"productName"`
	ProductImage        string         `gorm:"size:1024" json:"productImage,omitempty"`
	PlantCount          int            `gorm:"default:0" json:"plantCount"`
	ProductDetails      string         `gorm:"type:text" json:"productDetails,omitempty"`
	ProductType         int            `gorm:"default:0" json:"productType"`
	ProductStatus       int            `gorm:"default:0" json:"productStatus"`
	ProductRenewStatus  int            `gorm:"default:0" json:"productRenewStatus"`
	UrnStatus           int            `gorm:"default:0" json:"urnStatus"`
	RenewedDate         *time.Time     `json:"renewedDate,omitempty"`
	AssessmentReportURL string         `gorm:"size:1024" json:"assessmentReportUrl,omitempty"`
	RejectedDetails     string         `gorm:"type:text" json:"rejectedDetails,omitempty"`
	CertifiedDate       *time.Time     `json:"certifiedDate,omitempty"`
	ValidTillDate       *time.Time     `json:"validtillDate,omitempty"`
	CreatedDate         time.Time      `json:"createdDate"`
	UpdatedDate         time.Time      `json:"updatedDate"`
	Plants              []ProductPlant `gorm:"-" json:"plants,omitempty"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

// ProductPlant is one manufacturing site of a product. URN and EOI are copies of
// the owning product's identifiers.
type ProductPlant struct {
	ID             string    `gorm:"primaryKey;size:24" json:"_id"`
	ProductPlantID int64     `gorm:"uniqueIndex" json:"productPlantId"`
	ProductID      string    `gorm:"size:24;index" json:"productId"` // owning Product.ID
	VendorID       string    `gorm:"size:24" json:"vendorId"`
	CategoryID     string    `gorm:"size:24" json:"categoryId"`
	ManufacturerID string    `gorm:"size:24;index" json:"manufacturerId"`
	UrnNo          string    `gorm:"size:64" json:"urnNo"`
	EoiNo          string    `gorm:"size:64" json:"eoiNo"`
	PlantName      string    `gorm:"size:255" json:"plantName"`
	PlantLocation  string    `gorm:"size:512" json:"plantLocation"`
	CountryID      string    `gorm:"size:24" json:"countryId"`
	StateID        string    `gorm:"size:24" json:"stateId"`
	City           string    `gorm:"size:255" json:"city"`
	PlantStatus    int       `gorm:"default:1" json:"plantStatus"`
	CreatedDate    time.Time `json:"createdDate"`
}

// TableName Specify table name
func (ProductPlant) TableName() string {
	return "product_plants"
}

// Clone returns a deep copy, plants included.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Plants != nil {
		cp.Plants = append([]ProductPlant(nil), p.Plants...)
	}
	if p.RenewedDate != nil {
		t := *p.RenewedDate
		cp.RenewedDate = &t
	}
	if p.CertifiedDate != nil {
		t := *p.CertifiedDate
		cp.CertifiedDate = &t
	}
	if p.ValidTillDate != nil {
		t := *p.ValidTillDate
		cp.ValidTillDate = &t
	}
	return &cp
}
