package repository

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pkrm0306/gp-backend/internal/domain"
)

// CachedLookup memoizes successful reference lookups for ttl. Misses are not
// cached, so newly seeded records become visible immediately.
type CachedLookup struct {
	next  ReferenceLookup
	cache *cache.Cache
}

func NewCachedLookup(next ReferenceLookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *CachedLookup) FindManufacturer(ctx context.Context, id string) (*domain.Manufacturer, error) {
	key := "manufacturer:" + strings.ToLower(id)
	if v, ok := c.cache.Get(key); ok {
		m := v.(domain.Manufacturer)
		return &m, nil
	}
	m, err := c.next.FindManufacturer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, *m)
	return m, nil
}

func (c *CachedLookup) FindCountry(ctx context.Context, id string) (*domain.Country, error) {
	key := "country:" + strings.ToLower(id)
	if v, ok := c.cache.Get(key); ok {
		country := v.(domain.Country)
		return &country, nil
	}
	country, err := c.next.FindCountry(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, *country)
	return country, nil
}

func (c *CachedLookup) FindState(ctx context.Context, id string) (*domain.State, error) {
	key := "state:" + strings.ToLower(id)
	if v, ok := c.cache.Get(key); ok {
		st := v.(domain.State)
		return &st, nil
	}
	st, err := c.next.FindState(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, *st)
	return st, nil
}

// Flush drops every cached record, e.g. after reseeding reference data.
func (c *CachedLookup) Flush() {
	c.cache.Flush()
}

func (c *CachedLookup) ItemCount() int {
	return c.cache.ItemCount()
}
