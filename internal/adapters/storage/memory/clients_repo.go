package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"grooming-service/internal/domain/clients"
)

type clientRepo struct {
	mu   sync.RWMutex
	byID map[string]clients.Client
}

func NewClientRepo() clients.Repository {
	return &clientRepo{
		byID: make(map[string]clients.Client),
	}
}

func (r *clientRepo) Create(ctx context.Context, c clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		return errors.New("client id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("client already exists")
	}

	r.byID[c.ID] = c
	return nil
}

func (r *clientRepo) Update(ctx context.Context, c clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; !ok {
		return clients.ErrNotFound
	}
	r.byID[c.ID] = c
	return nil
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return clients.Client{}, clients.ErrNotFound
	}
	return c, nil
}

func (r *clientRepo) List(ctx context.Context, limit int) ([]clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]clients.Client, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *clientRepo) Search(ctx context.Context, query string, limit int) ([]clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	out := make([]clients.Client, 0)
	for _, c := range r.byID {
		hay := strings.ToLower(c.Name + " " + c.Phone)
		if strings.Contains(hay, q) {
			out = append(out, c)
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
