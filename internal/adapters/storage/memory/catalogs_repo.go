package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"grooming-service/internal/domain/catalogs"
)

type catalogRepo struct {
	mu   sync.RWMutex
	byID map[string]catalogs.Entry
}

func NewCatalogRepo() catalogs.Repository {
	return &catalogRepo{
		byID: make(map[string]catalogs.Entry),
	}
}

func (r *catalogRepo) Create(ctx context.Context, e catalogs.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("entry id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("entry already exists")
	}

	r.byID[e.ID] = e
	return nil
}

func (r *catalogRepo) Update(ctx context.Context, e catalogs.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[e.ID]
	if !ok || prev.Kind != e.Kind {
		return catalogs.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, kind catalogs.Kind, id string) (catalogs.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok || e.Kind != kind {
		return catalogs.Entry{}, catalogs.ErrNotFound
	}
	return e, nil
}

func (r *catalogRepo) ListByKind(ctx context.Context, kind catalogs.Kind, includeInactive bool) ([]catalogs.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalogs.Entry, 0)
	for _, e := range r.byID {
		if e.Kind != kind {
			continue
		}
		if !includeInactive && !e.Active {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
