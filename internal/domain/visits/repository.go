package visits

import (
	"context"
	"time"
)

// Repository es el contrato contra el store autoritativo de visitas.
//
// Create y Update son atómicos sobre el agregado completo (visita + items +
// pago): el store recalcula total y balance persistidos y valida la
// coherencia del pago (PAID ⇒ balance 0, PARTIAL ⇒ 0 < pagado < total,
// PENDING ⇒ pagado ausente o cero), devolviendo ErrInvalidInput si no cierra.
type Repository interface {
	// Create persiste la visita con sus items y pago en una sola operación.
	// Con autoCreateAppointment, el store sintetiza además la cita de origen
	// ya ATTENDED (caso walk-in que igual necesita registro de agenda).
	Create(ctx context.Context, v Visit, autoCreateAppointment bool) (Visit, error)

	// Update reemplaza el agregado completo; semántica de reemplazo total.
	Update(ctx context.Context, v Visit) (Visit, error)

	GetByID(ctx context.Context, id int64) (Visit, error)

	// ListByPet devuelve el historial completo de la mascota (sin rango,
	// por contrato del backend).
	ListByPet(ctx context.Context, petID int64) ([]Visit, error)

	// ListByRange devuelve visitas con VisitedAt dentro de [from, to].
	ListByRange(ctx context.Context, from, to time.Time) ([]Visit, error)
}
