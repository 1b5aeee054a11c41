package pets

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
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
	ClientID  string
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	Notes     string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	if strings.TrimSpace(in.ClientID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Species) == "" {
		return Pet{}, ErrInvalidInput
	}

	now := s.now()
	p := Pet{
		ClientID:  strings.TrimSpace(in.ClientID),
		Name:      strings.TrimSpace(in.Name),
		Species:   strings.TrimSpace(in.Species),
		Breed:     strings.TrimSpace(in.Breed),
		Sex:       strings.TrimSpace(in.Sex),
		BirthDate: in.BirthDate,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.repo.Create(ctx, p)
}

type UpdateInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string
	Species   *string
	Breed     *string
	Sex       *string
	BirthDate *time.Time
	Notes     *string
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Pet, error) {
	if id <= 0 {
		return Pet{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = strings.TrimSpace(*in.Species)
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = strings.TrimSpace(*in.Sex)
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (Pet, error) {
	if id <= 0 {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]Pet, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByClient(ctx, strings.TrimSpace(clientID))
}

// Search busca por nombre (para el flujo de reserva: encontrar la mascota
// antes de agendar).
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Pet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Pet{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.Search(ctx, query, limit)
}
