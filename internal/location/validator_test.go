package location

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkrm0306/gp-backend/internal/apperr"
	"github.com/pkrm0306/gp-backend/internal/domain"
)

const (
	india    = "65f1a2b3c4d5e6f708192a01"
	germany  = "65f1a2b3c4d5e6f708192a02"
	modern   = "65f1a2b3c4d5e6f708192b01"
	numeric  = "65f1a2b3c4d5e6f708192b02"
	codeOnly = "65f1a2b3c4d5e6f708192b03"
	orphan   = "65f1a2b3c4d5e6f708192b04"
)

type fakeLookup struct {
	countries map[string]*domain.Country
	states    map[string]*domain.State
}

func (f *fakeLookup) FindCountry(_ context.Context, id string) (*domain.Country, error) {
	if c, ok := f.countries[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLookup) FindState(_ context.Context, id string) (*domain.State, error) {
	if s, ok := f.states[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func int64p(v int64) *int64 { return &v }

func newLookup() *fakeLookup {
	return &fakeLookup{
		countries: map[string]*domain.Country{
			india:   {ID: india, LegacyID: int64p(101), CountryName: "India", LegacyCountryCode: "IN"},
			germany: {ID: germany, LegacyID: int64p(82), CountryName: "Germany", CountryCode: "DE"},
		},
		states: map[string]*domain.State{
			modern:   {ID: modern, CountryRef: india, StateName: "Karnataka"},
			numeric:  {ID: numeric, LegacyCountryID: int64p(101), StateName: "Kerala"},
			codeOnly: {ID: codeOnly, LegacyCountryCode: "DE", StateName: "Bavaria"},
			orphan:   {ID: orphan, LegacyCountryID: int64p(7), LegacyCountryCode: "XX", StateName: "Nowhere"},
		},
	}
}

func TestValidateCountry(t *testing.T) {
	v := NewValidator(newLookup())
	require.NoError(t, v.ValidateCountry(context.Background(), india))

	err := v.ValidateCountry(context.Background(), "65f1a2b3c4d5e6f708192aff")
	require.True(t, apperr.IsNotFound(err))
	require.Contains(t, err.Error(), "Country with ID 65f1a2b3c4d5e6f708192aff not found")
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name    string
		state   string
		country string
		kind    apperr.Kind
		ok      bool
	}{
		{name: "reference id", state: modern, country: india, ok: true},
		{name: "legacy numeric id only", state: numeric, country: india, ok: true},
		{name: "legacy code against modern code", state: codeOnly, country: germany, ok: true},
		{name: "reference id of another country", state: modern, country: germany, kind: apperr.KindValidation},
		{name: "no strategy matches", state: orphan, country: india, kind: apperr.KindValidation},
		{name: "unknown state", state: "65f1a2b3c4d5e6f708192bff", country: india, kind: apperr.KindNotFound},
		{name: "unknown country", state: modern, country: "65f1a2b3c4d5e6f708192aff", kind: apperr.KindNotFound},
	}

	v := NewValidator(newLookup())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateState(context.Background(), tt.state, tt.country)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestValidateState_MismatchNamesBothIDs(t *testing.T) {
	err := NewValidator(newLookup()).ValidateState(context.Background(), orphan, india)
	require.EqualError(t, err, "State with ID "+orphan+" does not belong to country with ID "+india)
}

func TestValidateState_FirstMatchWins(t *testing.T) {
	var calls []string
	record := func(name string, result bool) Matcher {
		return Matcher{Name: name, Match: func(*domain.State, string, *domain.Country) bool {
			calls = append(calls, name)
			return result
		}}
	}

	v := NewValidator(newLookup(), record("a", false), record("b", true), record("c", true))
	require.NoError(t, v.ValidateState(context.Background(), modern, india))
	require.Equal(t, []string{"a", "b"}, calls)
}

func TestValidateState_ZeroLegacyIDNeverMatches(t *testing.T) {
	lookup := newLookup()
	lookup.countries[india].LegacyID = int64p(0)
	lookup.states[numeric].LegacyCountryID = int64p(0)

	err := NewValidator(lookup).ValidateState(context.Background(), numeric, india)
	require.True(t, apperr.IsValidation(err))
}
