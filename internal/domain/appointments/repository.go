package appointments

import (
	"context"
	"time"
)

// Repository es el contrato contra el store autoritativo de citas.
//
// El chequeo de solapamiento de intervalos vive del lado del store (es el
// único lugar donde puede hacerse libre de carreras, porque ve el conjunto
// completo de reservas). El dominio solo transporta la intención: force=true
// instruye aceptar la reserva aunque exista intersección.
type Repository interface {
	// Create persiste una cita nueva en PENDING y asigna su ID.
	// Devuelve ErrConflict si el intervalo intersecta una reserva
	// PENDING/ATTENDED existente y force es false.
	Create(ctx context.Context, a Appointment, force bool) (Appointment, error)

	// UpdateSchedule reemplaza intervalo y notas de una cita PENDING.
	// ErrNotFound si no existe o ya no es editable; mismas reglas de
	// conflicto que Create (la propia cita no cuenta como solapada).
	UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, notes string, force bool) (Appointment, error)

	// Reschedule es UpdateSchedule dejando además una entrada de auditoría
	// con el motivo.
	Reschedule(ctx context.Context, id int64, startsAt, endsAt time.Time, reason string, force bool) (Appointment, error)

	// Cancel transiciona PENDING -> CANCELED registrando motivo y penalidad
	// opcional. ErrConflict si la cita ya está en estado terminal.
	Cancel(ctx context.Context, id int64, reason string, method *ChargeMethod, amount *float64) (Appointment, error)

	// Attend transiciona PENDING -> ATTENDED. Un segundo Attend falla con
	// ErrConflict (no es idempotente).
	Attend(ctx context.Context, id int64) (Appointment, error)

	GetByID(ctx context.Context, id int64) (Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, error)
	ListChanges(ctx context.Context, appointmentID int64) ([]Change, error)
}

// ListFilter acota el listado a un rango [From, To] y opcionalmente a un
// estado. Los bordes suelen venir de timewin (día/semana/mes).
type ListFilter struct {
	From   time.Time
	To     time.Time
	Status *Status
	PetID  *int64
}
