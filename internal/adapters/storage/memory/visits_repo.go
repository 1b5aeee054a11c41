package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"grooming-service/internal/domain/appointments"
	"grooming-service/internal/domain/visits"
)

// VisitRepo implementa el store autoritativo de visitas en memoria.
// Como fuente de verdad, recalcula total y balance persistidos y valida la
// coherencia del pago; también sintetiza la cita ATTENDED de un walk-in.
type VisitRepo struct {
	mu    sync.RWMutex
	byID  map[int64]visits.Visit
	seq   int64
	appts *AppointmentRepo
}

func NewVisitRepo(appts *AppointmentRepo) *VisitRepo {
	return &VisitRepo{
		byID:  make(map[int64]visits.Visit),
		appts: appts,
	}
}

func (r *VisitRepo) Create(ctx context.Context, v visits.Visit, autoCreateAppointment bool) (visits.Visit, error) {
	if v.AppointmentID != nil {
		if _, err := r.appts.GetByID(ctx, *v.AppointmentID); err != nil {
			return visits.Visit{}, fmt.Errorf("%w: appointment %d", visits.ErrNotFound, *v.AppointmentID)
		}
	}

	if err := visits.Reconcile(&v); err != nil {
		return visits.Visit{}, err
	}

	if autoCreateAppointment {
		a := r.appts.insertAttended(appointments.Appointment{
			PetID:     v.PetID,
			StartsAt:  v.VisitedAt,
			EndsAt:    v.VisitedAt.Add(30 * time.Minute),
			Notes:     "auto-created from walk-in visit",
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.CreatedAt,
		})
		v.AppointmentID = &a.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	v.ID = r.seq
	r.byID[v.ID] = v
	return v, nil
}

func (r *VisitRepo) Update(ctx context.Context, v visits.Visit) (visits.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[v.ID]
	if !ok {
		return visits.Visit{}, visits.ErrNotFound
	}

	if err := visits.Reconcile(&v); err != nil {
		return visits.Visit{}, err
	}

	// Reemplazo total del agregado; la pertenencia no cambia.
	v.PetID = prev.PetID
	v.AppointmentID = prev.AppointmentID
	v.CreatedAt = prev.CreatedAt
	r.byID[v.ID] = v
	return v, nil
}

func (r *VisitRepo) GetByID(ctx context.Context, id int64) (visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return visits.Visit{}, visits.ErrNotFound
	}
	return v, nil
}

func (r *VisitRepo) ListByPet(ctx context.Context, petID int64) ([]visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visits.Visit, 0)
	for _, v := range r.byID {
		if v.PetID == petID {
			out = append(out, v)
		}
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].VisitedAt.After(out[j].VisitedAt)
	})
	return out, nil
}

func (r *VisitRepo) ListByRange(ctx context.Context, from, to time.Time) ([]visits.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]visits.Visit, 0)
	for _, v := range r.byID {
		if v.VisitedAt.Before(from) || v.VisitedAt.After(to) {
			continue
		}
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].VisitedAt.Before(out[j].VisitedAt)
	})
	return out, nil
}
