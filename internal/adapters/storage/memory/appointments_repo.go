package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"grooming-service/internal/domain/appointments"

	"github.com/google/uuid"
)

// AppointmentRepo implementa el store autoritativo de citas en memoria
// (modo dev y tests). El chequeo de solape corre bajo el mismo lock que la
// escritura, igual que la transacción en Postgres.
type AppointmentRepo struct {
	mu      sync.RWMutex
	byID    map[int64]appointments.Appointment
	changes map[int64][]appointments.Change
	seq     int64
}

func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{
		byID:    make(map[int64]appointments.Appointment),
		changes: make(map[int64][]appointments.Change),
	}
}

func (r *AppointmentRepo) Create(ctx context.Context, a appointments.Appointment, force bool) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !force && r.hasOverlap(a.StartsAt, a.EndsAt, 0) {
		return appointments.Appointment{}, appointments.ErrConflict
	}

	r.seq++
	a.ID = r.seq
	a.Status = appointments.StatusPending
	r.byID[a.ID] = a
	return a, nil
}

func (r *AppointmentRepo) UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, notes string, force bool) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reschedule(id, startsAt, endsAt, notes, force)
}

func (r *AppointmentRepo) Reschedule(ctx context.Context, id int64, startsAt, endsAt time.Time, reason string, force bool) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}

	a, err := r.reschedule(id, startsAt, endsAt, prev.Notes, force)
	if err != nil {
		return appointments.Appointment{}, err
	}

	r.changes[id] = append(r.changes[id], appointments.Change{
		ID:            uuid.NewString(),
		AppointmentID: id,
		PrevStartsAt:  prev.StartsAt,
		PrevEndsAt:    prev.EndsAt,
		NewStartsAt:   startsAt,
		NewEndsAt:     endsAt,
		Reason:        reason,
		RecordedAt:    time.Now(),
	})
	return a, nil
}

// reschedule asume el lock tomado.
func (r *AppointmentRepo) reschedule(id int64, startsAt, endsAt time.Time, notes string, force bool) (appointments.Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	// Solo una cita PENDING es editable; para el caller es como si el
	// recurso editable ya no existiera.
	if a.Status != appointments.StatusPending {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	if !force && r.hasOverlap(startsAt, endsAt, id) {
		return appointments.Appointment{}, appointments.ErrConflict
	}

	a.StartsAt = startsAt
	a.EndsAt = endsAt
	a.Notes = notes
	a.UpdatedAt = time.Now()
	r.byID[id] = a
	return a, nil
}

func (r *AppointmentRepo) Cancel(ctx context.Context, id int64, reason string, method *appointments.ChargeMethod, amount *float64) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	if a.Status != appointments.StatusPending {
		return appointments.Appointment{}, appointments.ErrConflict
	}

	a.Status = appointments.StatusCanceled
	a.CancelReason = reason
	a.ChargeMethod = method
	a.ChargeAmount = amount
	a.UpdatedAt = time.Now()
	r.byID[id] = a
	return a, nil
}

func (r *AppointmentRepo) Attend(ctx context.Context, id int64) (appointments.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	if a.Status != appointments.StatusPending {
		return appointments.Appointment{}, appointments.ErrConflict
	}

	a.Status = appointments.StatusAttended
	a.UpdatedAt = time.Now()
	r.byID[id] = a
	return a, nil
}

// insertAttended crea una cita ya ATTENDED sin pasar por el chequeo de
// solape: la usa el store de visitas para sintetizar la cita de un walk-in
// (registra algo que ya ocurrió).
func (r *AppointmentRepo) insertAttended(a appointments.Appointment) appointments.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	a.ID = r.seq
	a.Status = appointments.StatusAttended
	r.byID[a.ID] = a
	return a
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, nil
}

func (r *AppointmentRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.StartsAt.Before(f.From) || a.StartsAt.After(f.To) {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.PetID != nil && a.PetID != *f.PetID {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (r *AppointmentRepo) ListChanges(ctx context.Context, appointmentID int64) ([]appointments.Change, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Change, 0, len(r.changes[appointmentID]))
	out = append(out, r.changes[appointmentID]...)
	return out, nil
}

// hasOverlap asume el lock tomado. Dos intervalos [aStart, aEnd) se
// intersectan cuando cada uno empieza antes de que termine el otro; las
// citas canceladas no bloquean el horario.
func (r *AppointmentRepo) hasOverlap(startsAt, endsAt time.Time, excludeID int64) bool {
	for _, other := range r.byID {
		if other.ID == excludeID {
			continue
		}
		if other.Status == appointments.StatusCanceled {
			continue
		}
		if startsAt.Before(other.EndsAt) && other.StartsAt.Before(endsAt) {
			return true
		}
	}
	return false
}
