package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/pkrm0306/gp-backend/internal/domain"
	"github.com/pkrm0306/gp-backend/internal/registration"
)

// memoryState is the committed product/plant data. Values are stored without
// the Plants slice; plants live in their own map. revisions counts the commits
// that wrote each product.
type memoryState struct {
	products  map[string]domain.Product
	plants    map[string]domain.ProductPlant
	revisions map[string]uint64
}

func newMemoryState() memoryState {
	return memoryState{
		products:  map[string]domain.Product{},
		plants:    map[string]domain.ProductPlant{},
		revisions: map[string]uint64{},
	}
}

func (s memoryState) clone() memoryState {
	cp := memoryState{
		products:  make(map[string]domain.Product, len(s.products)),
		plants:    make(map[string]domain.ProductPlant, len(s.plants)),
		revisions: make(map[string]uint64, len(s.revisions)),
	}
	for k, v := range s.products {
		cp.products[k] = *v.Clone()
	}
	for k, v := range s.revisions {
		cp.revisions[k] = v
	}
	for k, v := range s.plants {
		cp.plants[k] = v
	}
	return cp
}

// MemoryStore is a transactional in-memory Backend. Each transaction works on
// a snapshot taken at begin; its writes are applied only on commit, after the
// unique keys of newly created rows are checked against committed data. A
// transaction that modified a product some other transaction committed since
// the snapshot fails with ErrConflict.
type MemoryStore struct {
	mu    sync.RWMutex
	state memoryState

	refMu         sync.RWMutex
	manufacturers map[string]domain.Manufacturer
	countries     map[string]domain.Country
	states        map[string]domain.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state:         newMemoryState(),
		manufacturers: map[string]domain.Manufacturer{},
		countries:     map[string]domain.Country{},
		states:        map[string]domain.State{},
	}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx registration.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	view := s.state.clone()
	s.mu.RUnlock()

	tx := &memoryTx{
		view:            view,
		createdProducts: map[string]bool{},
		dirtyProducts:   map[string]bool{},
		createdPlants:   map[string]bool{},
		dirtyPlants:     map[string]bool{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memoryTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.createdProducts) > 0 {
		used := make(map[int64]bool, len(s.state.products))
		for _, p := range s.state.products {
			used[p.ProductID] = true
		}
		for id := range tx.createdProducts {
			if _, ok := s.state.products[id]; ok || used[tx.view.products[id].ProductID] {
				return errors.Wrapf(ErrConflict, "product %s", id)
			}
		}
	}
	if len(tx.createdPlants) > 0 {
		used := make(map[int64]bool, len(s.state.plants))
		for _, p := range s.state.plants {
			used[p.ProductPlantID] = true
		}
		for id := range tx.createdPlants {
			if _, ok := s.state.plants[id]; ok || used[tx.view.plants[id].ProductPlantID] {
				return errors.Wrapf(ErrConflict, "plant %s", id)
			}
		}
	}

	for id := range tx.dirtyProducts {
		if tx.createdProducts[id] {
			continue
		}
		if s.state.revisions[id] != tx.view.revisions[id] {
			return errors.Wrapf(ErrConflict, "product %s changed since the transaction began", id)
		}
	}

	for id := range tx.dirtyProducts {
		s.state.products[id] = tx.view.products[id]
		s.state.revisions[id]++
	}
	for id := range tx.dirtyPlants {
		s.state.plants[id] = tx.view.plants[id]
	}
	return nil
}

func (s *MemoryStore) MaxProductID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, p := range s.state.products {
		if p.ProductID > max {
			max = p.ProductID
		}
	}
	return max, nil
}

func (s *MemoryStore) MaxPlantID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, p := range s.state.plants {
		if p.ProductPlantID > max {
			max = p.ProductPlantID
		}
	}
	return max, nil
}

func (s *MemoryStore) FindManufacturer(_ context.Context, id string) (*domain.Manufacturer, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	m, ok := s.manufacturers[strings.ToLower(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) FindCountry(_ context.Context, id string) (*domain.Country, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	c, ok := s.countries[strings.ToLower(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) FindState(_ context.Context, id string) (*domain.State, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	st, ok := s.states[strings.ToLower(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &st, nil
}

func (s *MemoryStore) UpsertManufacturer(_ context.Context, m *domain.Manufacturer) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	s.manufacturers[strings.ToLower(m.ID)] = *m
	return nil
}

func (s *MemoryStore) UpsertCountry(_ context.Context, c *domain.Country) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	s.countries[strings.ToLower(c.ID)] = *c
	return nil
}

func (s *MemoryStore) UpsertState(_ context.Context, st *domain.State) error {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	s.states[strings.ToLower(st.ID)] = *st
	return nil
}

// memoryTx mutates its private view and records which keys to publish.
type memoryTx struct {
	view            memoryState
	createdProducts map[string]bool
	dirtyProducts   map[string]bool
	createdPlants   map[string]bool
	dirtyPlants     map[string]bool
}

func (tx *memoryTx) CountProductsByManufacturer(ctx context.Context, manufacturerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range tx.view.products {
		if p.ManufacturerID == manufacturerID {
			n++
		}
	}
	return n, nil
}

func (tx *memoryTx) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := tx.view.products[product.ID]; ok {
		return errors.Wrapf(ErrConflict, "product %s", product.ID)
	}
	for _, p := range tx.view.products {
		if p.ProductID == product.ProductID {
			return errors.Wrapf(ErrConflict, "productId %d", product.ProductID)
		}
	}
	row := *product.Clone()
	row.Plants = nil
	tx.view.products[product.ID] = row
	tx.createdProducts[product.ID] = true
	tx.dirtyProducts[product.ID] = true
	return nil
}

func (tx *memoryTx) CreatePlant(ctx context.Context, plant *domain.ProductPlant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := tx.view.plants[plant.ID]; ok {
		return errors.Wrapf(ErrConflict, "plant %s", plant.ID)
	}
	for _, p := range tx.view.plants {
		if p.ProductPlantID == plant.ProductPlantID {
			return errors.Wrapf(ErrConflict, "productPlantId %d", plant.ProductPlantID)
		}
	}
	tx.view.plants[plant.ID] = *plant
	tx.createdPlants[plant.ID] = true
	tx.dirtyPlants[plant.ID] = true
	return nil
}

func (tx *memoryTx) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := tx.view.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// FindProductForUpdate takes no lock; commit detects the conflict.
func (tx *memoryTx) FindProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return tx.FindProduct(ctx, id)
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, id string, changes registration.ProductChanges) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, ok := tx.view.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	changes.Apply(&row)
	tx.view.products[id] = row
	tx.dirtyProducts[id] = true
	return nil
}

func (tx *memoryTx) ListPlants(ctx context.Context, productID string) ([]domain.ProductPlant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	plants := make([]domain.ProductPlant, 0)
	for _, p := range tx.view.plants {
		if p.ProductID == productID {
			plants = append(plants, p)
		}
	}
	sort.Slice(plants, func(i, j int) bool { return plants[i].ProductPlantID < plants[j].ProductPlantID })
	return plants, nil
}

func (tx *memoryTx) UpdatePlantIdentifiers(ctx context.Context, productID, urnNo, eoiNo string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, p := range tx.view.plants {
		if p.ProductID != productID {
			continue
		}
		p.UrnNo = urnNo
		p.EoiNo = eoiNo
		tx.view.plants[id] = p
		tx.dirtyPlants[id] = true
	}
	return nil
}

// Snapshot returns committed products with their plants attached, ordered by
// productId. Used by tests and the memory-backed CLI.
func (s *MemoryStore) Snapshot() []*domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		cp := p.Clone()
		for _, pl := range s.state.plants {
			if pl.ProductID == p.ID {
				cp.Plants = append(cp.Plants, pl)
			}
		}
		sort.Slice(cp.Plants, func(i, j int) bool { return cp.Plants[i].ProductPlantID < cp.Plants[j].ProductPlantID })
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// PlantCount returns the number of committed plants.
func (s *MemoryStore) PlantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.plants)
}
