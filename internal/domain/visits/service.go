package visits

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("visit conflict")
	ErrNotFound     = errors.New("visit not found")
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
	PetID int64

	// AppointmentID y AutoCreateAppointment son mutuamente excluyentes:
	// o la visita viene de una cita concreta, o se pide sintetizar una.
	AppointmentID         *int64
	AutoCreateAppointment bool

	VisitedAt time.Time
	Notes     string
	Items     []Item
	Payment   *Payment
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Visit, error) {
	if in.PetID <= 0 {
		return Visit{}, ErrInvalidInput
	}
	if in.VisitedAt.IsZero() {
		return Visit{}, ErrInvalidInput
	}
	if in.AppointmentID != nil && in.AutoCreateAppointment {
		return Visit{}, ErrInvalidInput
	}
	if in.AppointmentID != nil && *in.AppointmentID <= 0 {
		return Visit{}, ErrInvalidInput
	}
	if err := validateItems(in.Items); err != nil {
		return Visit{}, err
	}
	if err := validatePayment(in.Payment); err != nil {
		return Visit{}, err
	}

	now := s.now()
	v := Visit{
		PetID:         in.PetID,
		AppointmentID: in.AppointmentID,
		VisitedAt:     in.VisitedAt,
		Notes:         strings.TrimSpace(in.Notes),
		Items:         normalizeItems(in.Items),
		Payment:       in.Payment,
		TotalAmount:   Total(in.Items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.repo.Create(ctx, v, in.AutoCreateAppointment)
}

type UpdateInput struct {
	VisitedAt time.Time
	Notes     string
	Items     []Item
	Payment   *Payment
}

// Update reemplaza la visita completa: items y pago se sustituyen en bloque,
// no hay operación por item.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Visit, error) {
	if id <= 0 {
		return Visit{}, ErrInvalidInput
	}
	if in.VisitedAt.IsZero() {
		return Visit{}, ErrInvalidInput
	}
	if err := validateItems(in.Items); err != nil {
		return Visit{}, err
	}
	if err := validatePayment(in.Payment); err != nil {
		return Visit{}, err
	}

	v := Visit{
		ID:          id,
		VisitedAt:   in.VisitedAt,
		Notes:       strings.TrimSpace(in.Notes),
		Items:       normalizeItems(in.Items),
		Payment:     in.Payment,
		TotalAmount: Total(in.Items),
		UpdatedAt:   s.now(),
	}

	return s.repo.Update(ctx, v)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Visit, error) {
	if id <= 0 {
		return Visit{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// ListFilter: con PetID presente se devuelve el historial completo de la
// mascota (From/To se ignoran por contrato) filtrado por categoría del lado
// del servicio; sin PetID se lista por rango de fechas.
type ListFilter struct {
	PetID    *int64
	Category *ItemCategory
	From     *time.Time
	To       *time.Time
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Visit, error) {
	if f.PetID != nil {
		if *f.PetID <= 0 {
			return nil, ErrInvalidInput
		}
		if f.Category != nil && !ValidCategory(*f.Category) {
			return nil, ErrInvalidInput
		}

		items, err := s.repo.ListByPet(ctx, *f.PetID)
		if err != nil {
			return nil, err
		}
		if f.Category == nil {
			return items, nil
		}

		out := make([]Visit, 0, len(items))
		for _, v := range items {
			if hasCategory(v, *f.Category) {
				out = append(out, v)
			}
		}
		return out, nil
	}

	if f.From == nil || f.To == nil || !f.From.Before(*f.To) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRange(ctx, *f.From, *f.To)
}

func hasCategory(v Visit, c ItemCategory) bool {
	for _, it := range v.Items {
		if it.Category == c {
			return true
		}
	}
	return false
}

// validateItems valida lo detectable localmente: categorías conocidas y
// precios no negativos. Una secuencia vacía es degenerada pero no se prohíbe
// acá; el store puede rechazarla.
func validateItems(items []Item) error {
	for _, it := range items {
		if !ValidCategory(it.Category) {
			return ErrInvalidInput
		}
		if it.Price < 0 {
			return ErrInvalidInput
		}
	}
	return nil
}

// validatePayment valida forma, no coherencia: la relación estado/monto/total
// la decide el store (scenario: un PARTIAL llega como PARTIAL, no se
// recalcula acá).
func validatePayment(p *Payment) error {
	if p == nil {
		return nil
	}
	if !ValidPaymentStatus(p.Status) {
		return ErrInvalidInput
	}
	if p.Method != nil && !ValidPaymentMethod(*p.Method) {
		return ErrInvalidInput
	}
	if p.AmountPaid != nil && *p.AmountPaid < 0 {
		return ErrInvalidInput
	}
	return nil
}

func normalizeItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Treatment != nil {
			t := *it.Treatment
			t.TreatmentTypeText = strings.TrimSpace(t.TreatmentTypeText)
			t.MedicineText = strings.TrimSpace(t.MedicineText)
			it.Treatment = &t
		}
		out = append(out, it)
	}
	return out
}
