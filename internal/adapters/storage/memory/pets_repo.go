package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"grooming-service/internal/domain/pets"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[int64]pets.Pet
	seq  int64
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[int64]pets.Pet),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	p.ID = r.seq
	r.byID[p.ID] = p
	return p, nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; !ok {
		return pets.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) ListByClient(ctx context.Context, clientID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *petRepo) Search(ctx context.Context, query string, limit int) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
