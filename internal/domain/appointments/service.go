package appointments

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidInput se detecta localmente, antes de tocar el store.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict lo reporta el store: intervalo solapado sin force, o
	// transición ilegal de estado.
	ErrConflict = errors.New("booking conflict")
	// ErrNotFound: el id no existe o no está en un estado que permita la
	// operación (el store es autoritativo sobre eso).
	ErrNotFound = errors.New("appointment not found")
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
	PetID    int64
	StartsAt time.Time
	EndsAt   time.Time
	Notes    string

	// ForceOverlap instruye al store a aceptar la reserva aunque el
	// intervalo intersecte otra cita.
	ForceOverlap bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	if in.PetID <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	if err := validateInterval(in.StartsAt, in.EndsAt); err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		PetID:     in.PetID,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		Status:    StatusPending,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.repo.Create(ctx, a, in.ForceOverlap)
}

type EditInput struct {
	StartsAt     time.Time
	EndsAt       time.Time
	Notes        string
	ForceOverlap bool
}

// Edit reemplaza los campos mutables de una cita PENDING.
// Aunque el caller crea que no hay solape, el pedido pasa igual por el
// chequeo de conflicto del store: acá no se confía en aritmética de
// intervalos del lado cliente.
func (s *Service) Edit(ctx context.Context, id int64, in EditInput) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	if err := validateInterval(in.StartsAt, in.EndsAt); err != nil {
		return Appointment{}, err
	}
	return s.repo.UpdateSchedule(ctx, id, in.StartsAt, in.EndsAt, strings.TrimSpace(in.Notes), in.ForceOverlap)
}

type RescheduleInput struct {
	StartsAt     time.Time
	EndsAt       time.Time
	Reason       string
	ForceOverlap bool
}

// Reschedule es semánticamente distinto de Edit: exige motivo no vacío y el
// store deja rastro del cambio de horario.
func (s *Service) Reschedule(ctx context.Context, id int64, in RescheduleInput) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	if err := validateInterval(in.StartsAt, in.EndsAt); err != nil {
		return Appointment{}, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.Reschedule(ctx, id, in.StartsAt, in.EndsAt, reason, in.ForceOverlap)
}

type CancelInput struct {
	Reason string

	// Penalidad opcional de cancelación. Van independientes a propósito:
	// el backend acepta cualquiera de los dos solo.
	ChargeMethod *ChargeMethod
	ChargeAmount *float64
}

func (s *Service) Cancel(ctx context.Context, id int64, in CancelInput) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Appointment{}, ErrInvalidInput
	}
	if in.ChargeMethod != nil && !ValidChargeMethod(*in.ChargeMethod) {
		return Appointment{}, ErrInvalidInput
	}
	if in.ChargeAmount != nil && *in.ChargeAmount < 0 {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.Cancel(ctx, id, reason, in.ChargeMethod, in.ChargeAmount)
}

// Attend transiciona a ATTENDED. Sin payload y sin idempotencia: un segundo
// Attend lo rechaza el store.
func (s *Service) Attend(ctx context.Context, id int64) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.Attend(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id int64) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.From.IsZero() || f.To.IsZero() || !f.From.Before(f.To) {
		return nil, ErrInvalidInput
	}
	if f.Status != nil && !ValidStatus(*f.Status) {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ListChanges(ctx context.Context, id int64) ([]Change, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.ListChanges(ctx, id)
}

func validateInterval(startsAt, endsAt time.Time) error {
	if startsAt.IsZero() || endsAt.IsZero() {
		return ErrInvalidInput
	}
	if !startsAt.Before(endsAt) {
		return ErrInvalidInput
	}
	return nil
}
