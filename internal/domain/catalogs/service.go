package catalogs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("catalog entry not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) Create(ctx context.Context, kind Kind, name string) (Entry, error) {
	if !ValidKind(kind) {
		return Entry{}, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, ErrInvalidInput
	}

	now := s.now()
	e := Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name   *string
	Active *bool
}

func (s *Service) Update(ctx context.Context, kind Kind, id string, in UpdateInput) (Entry, error) {
	if !ValidKind(kind) {
		return Entry{}, ErrInvalidInput
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrInvalidInput
	}

	e, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return Entry{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Entry{}, ErrInvalidInput
		}
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, kind Kind, includeInactive bool) ([]Entry, error) {
	if !ValidKind(kind) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByKind(ctx, kind, includeInactive)
}
