// Package identifier synthesizes the two product identifiers: the time-derived
// registration number (URN) and the manufacturer-derived EOI code.
package identifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
)

const (
	URNPrefix = "URN-"
	EOIPrefix = "GP"

	urnLayout = "20060102150405"
)

// ManufacturerLookup resolves the manufacturer record behind an EOI.
// Implementations return domain.ErrNotFound for unknown ids.
type ManufacturerLookup interface {
	FindManufacturer(ctx context.Context, id string) (*domain.Manufacturer, error)
}

type Generator struct {
	manufacturers ManufacturerLookup
}

func NewGenerator(manufacturers ManufacturerLookup) *Generator {
	return &Generator{manufacturers: manufacturers}
}

// RegistrationNumber formats "URN-YYYYMMDDHHMMSS" in t's location.
// Two registrations within the same second share a number; nothing checks for it.
func (g *Generator) RegistrationNumber(t time.Time) string {
	return URNPrefix + t.Format(urnLayout)
}

// EOI builds "GP" + initial + 3-digit internal id + 3-digit sequence. The
// sequence is supplied by the caller.
func (g *Generator) EOI(ctx context.Context, manufacturerID string, sequence int64) (string, error) {
	m, err := g.manufacturers.FindManufacturer(ctx, manufacturerID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", apperr.NotFound("Manufacturer not found")
	}
	if err != nil {
		return "", errors.Wrapf(err, "load manufacturer %s", manufacturerID)
	}

	if strings.TrimSpace(m.ManufacturerInitial) == "" {
		return "", apperr.BadRequest(
			"Manufacturer %s does not have manufacturerInitial set. Please update the manufacturer record with manufacturerInitial field.",
			manufacturerID)
	}
	if strings.TrimSpace(m.GpInternalID) == "" {
		return "", apperr.BadRequest(
			"Manufacturer %s does not have gpInternalId set. Please update the manufacturer record with gpInternalId field (format: \"GP-12\" or \"GPSC-312\").",
			manufacturerID)
	}

	internalID, ok := ParseInternalID(m.GpInternalID)
	if !ok {
		zap.L().Warn("no internal id pattern found in gpInternalId, using fallback",
			zap.String("namespace", "identifier"),
			zap.String("manufacturer_id", manufacturerID),
			zap.String("gp_internal_id", m.GpInternalID),
			zap.String("fallback", string(FallbackInternalID)))
	}

	return ComposeEOI(m.ManufacturerInitial, internalID, sequence), nil
}

// ComposeEOI joins the parts. Values wider than three digits are kept whole.
func ComposeEOI(initial string, internalID InternalID, sequence int64) string {
	return fmt.Sprintf("%s%s%s%03d", EOIPrefix, initial, internalID, sequence)
}
