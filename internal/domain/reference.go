package domain

import "time"

// Reference data read by the registration core. The core never writes these;
// they are maintained by the admin side and seeded by app.SeedReferenceData.

// Manufacturer carries the metadata EOI synthesis needs
type Manufacturer struct {
	ID                  string    `gorm:"primaryKey;size:24" json:"_id" yaml:"id"`
	ManufacturerName    string    `gorm:"size:255" json:"manufacturerName" yaml:"name"`
	GpInternalID        string    `gorm:"size:64;uniqueIndex" json:"gpInternalId" yaml:"gp_internal_id"` // e.g. "GP-12", "GPSC-312"
	ManufacturerInitial string    `gorm:"size:32" json:"manufacturerInitial" yaml:"initial"`
	ManufacturerStatus  int       `gorm:"default:1" json:"manufacturerStatus" yaml:"status"`
	ManufacturerImage   string    `gorm:"size:1024" json:"manufacturerImage,omitempty" yaml:"image"`
	CreatedAt           time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt           time.Time `json:"updatedAt" yaml:"-"`
}

// TableName Specify table name
func (Manufacturer) TableName() string {
	return "manufacturers"
}

// Country supports both the modern shape (object id + countryCode) and the
// imported legacy shape (numeric id + country_code).
type Country struct {
	ID                string    `gorm:"primaryKey;size:24" json:"_id" yaml:"id"`
	LegacyID          *int64    `gorm:"column:legacy_id;index" json:"id,omitempty" yaml:"legacy_id"`
	CountryName       string    `gorm:"size:255" json:"countryName" yaml:"name"`
	CountryCode       string    `gorm:"size:16" json:"countryCode,omitempty" yaml:"code"`
	LegacyCountryCode string    `gorm:"column:legacy_country_code;size:16" json:"country_code,omitempty" yaml:"legacy_code"`
	CreatedAt         time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt         time.Time `json:"updatedAt" yaml:"-"`
}

// TableName Specify table name
func (Country) TableName() string {
	return "countries"
}

// State references its country in up to three ways depending on data vintage.
type State struct {
	ID                string    `gorm:"primaryKey;size:24" json:"_id" yaml:"id"`
	CountryRef        string    `gorm:"column:country_ref;size:24;index" json:"countryId,omitempty" yaml:"country_id"`
	LegacyCountryID   *int64    `gorm:"column:legacy_country_id;index" json:"country_id,omitempty" yaml:"legacy_country_id"`
	LegacyCountryCode string    `gorm:"column:legacy_country_code;size:16" json:"country_code,omitempty" yaml:"legacy_country_code"`
	CountryName       string    `gorm:"size:255" json:"country_name,omitempty" yaml:"country_name"`
	StateName         string    `gorm:"size:255" json:"stateName" yaml:"name"`
	StateCode         string    `gorm:"size:16" json:"stateCode,omitempty" yaml:"code"`
	CreatedAt         time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt         time.Time `json:"updatedAt" yaml:"-"`
}

// TableName Specify table name
func (State) TableName() string {
	return "states"
}
