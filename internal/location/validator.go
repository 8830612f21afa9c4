// Package location checks plant addresses against country and state reference data.
package location

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
)

// Lookup is the read-only reference store. Both finders return
// domain.ErrNotFound for unknown ids.
type Lookup interface {
	FindCountry(ctx context.Context, id string) (*domain.Country, error)
	FindState(ctx context.Context, id string) (*domain.State, error)
}

// Matcher decides whether a state record points at a country.
type Matcher struct {
	Name  string
	Match func(state *domain.State, countryID string, country *domain.Country) bool
}

// DefaultMatchers lists the association checks in evaluation order.
var DefaultMatchers = []Matcher{
	{Name: "reference_id", Match: matchReferenceID},
	{Name: "legacy_numeric_id", Match: matchLegacyNumericID},
	{Name: "legacy_country_code", Match: matchLegacyCountryCode},
}

func matchReferenceID(state *domain.State, countryID string, _ *domain.Country) bool {
	return state.CountryRef != "" && strings.EqualFold(state.CountryRef, countryID)
}

func matchLegacyNumericID(state *domain.State, _ string, country *domain.Country) bool {
	return state.LegacyCountryID != nil && country.LegacyID != nil &&
		*state.LegacyCountryID != 0 && *state.LegacyCountryID == *country.LegacyID
}

// The country side accepts either its legacy code or the modern one.
func matchLegacyCountryCode(state *domain.State, _ string, country *domain.Country) bool {
	code := country.LegacyCountryCode
	if code == "" {
		code = country.CountryCode
	}
	return state.LegacyCountryCode != "" && code != "" && state.LegacyCountryCode == code
}

type Validator struct {
	lookup   Lookup
	matchers []Matcher
}

// NewValidator uses DefaultMatchers when none are given.
func NewValidator(lookup Lookup, matchers ...Matcher) *Validator {
	if len(matchers) == 0 {
		matchers = DefaultMatchers
	}
	return &Validator{lookup: lookup, matchers: matchers}
}

// ValidateCountry fails with NotFound when countryID is unknown.
func (v *Validator) ValidateCountry(ctx context.Context, countryID string) error {
	_, err := v.country(ctx, countryID)
	return err
}

// ValidateState fails with NotFound when either record is missing, and with
// BadRequest when no matcher links the state to the country.
func (v *Validator) ValidateState(ctx context.Context, stateID, countryID string) error {
	state, err := v.lookup.FindState(ctx, stateID)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("State with ID %s not found", stateID)
	}
	if err != nil {
		return errors.Wrapf(err, "load state %s", stateID)
	}

	country, err := v.country(ctx, countryID)
	if err != nil {
		return err
	}

	for _, m := range v.matchers {
		if m.Match(state, countryID, country) {
			return nil
		}
	}
	return apperr.BadRequest("State with ID %s does not belong to country with ID %s", stateID, countryID)
}

func (v *Validator) country(ctx context.Context, countryID string) (*domain.Country, error) {
	country, err := v.lookup.FindCountry(ctx, countryID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Country with ID %s not found", countryID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load country %s", countryID)
	}
	return country, nil
}
