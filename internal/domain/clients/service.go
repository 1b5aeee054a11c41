package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("client not found")
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

type CreateInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Client, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Client{}, ErrInvalidInput
	}

	now := s.now()
	c := Client{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Address:   strings.TrimSpace(in.Address),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	Notes   *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Client{}, ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Client{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Client{}, ErrInvalidInput
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.Notes != nil {
		c.Notes = strings.TrimSpace(*in.Notes)
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, c); err != nil {
		return Client{}, err
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Client{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]Client, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// Search busca por nombre o teléfono (para encontrar al cliente al reservar).
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Client{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Search(ctx, query, limit)
}
