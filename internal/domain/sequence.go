package domain

import (
	"errors"
	"time"
)

// Counter names
const (
	SequenceProduct = "product"
	SequencePlant   = "plant"
	// eoi counters are scoped per manufacturer: "eoi:<manufacturerId>"
	sequenceEOIPrefix = "eoi:"
)

// ErrNotFound is returned by stores and lookups when a record does not exist.
var ErrNotFound = errors.New("record not found")

// SequenceCounter is a named, monotonically increasing counter
type SequenceCounter struct {
	Name      string    `gorm:"primaryKey;size:64" json:"name"`
	Value     int64     `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SequenceCounter) TableName() string {
	return "sequences"
}

// EOISequenceName returns the counter backing EOI sequence numbers of a manufacturer.
func EOISequenceName(manufacturerID string) string {
	return sequenceEOIPrefix + manufacturerID
}
