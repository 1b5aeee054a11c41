package appointments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID    map[int64]Appointment
	changes map[int64][]Change
	seq     int64
}

func newTestRepo() *testRepo {
	return &testRepo{
		byID:    map[int64]Appointment{},
		changes: map[int64][]Change{},
	}
}

func (r *testRepo) hasOverlap(startsAt, endsAt time.Time, excludeID int64) bool {
	for _, a := range r.byID {
		if a.ID == excludeID || a.Status == StatusCanceled {
			continue
		}
		if a.StartsAt.Before(endsAt) && startsAt.Before(a.EndsAt) {
			return true
		}
	}
	return false
}

func (r *testRepo) Create(ctx context.Context, a Appointment, force bool) (Appointment, error) {
	if !force && r.hasOverlap(a.StartsAt, a.EndsAt, 0) {
		return Appointment{}, ErrConflict
	}
	r.seq++
	a.ID = r.seq
	r.byID[a.ID] = a
	return a, nil
}

func (r *testRepo) UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, notes string, force bool) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok || a.Status != StatusPending {
		return Appointment{}, ErrNotFound
	}
	if !force && r.hasOverlap(startsAt, endsAt, id) {
		return Appointment{}, ErrConflict
	}
	a.StartsAt, a.EndsAt, a.Notes = startsAt, endsAt, notes
	r.byID[id] = a
	return a, nil
}

func (r *testRepo) Reschedule(ctx context.Context, id int64, startsAt, endsAt time.Time, reason string, force bool) (Appointment, error) {
	prev, ok := r.byID[id]
	if !ok || prev.Status != StatusPending {
		return Appointment{}, ErrNotFound
	}
	if !force && r.hasOverlap(startsAt, endsAt, id) {
		return Appointment{}, ErrConflict
	}

	a := prev
	a.StartsAt, a.EndsAt = startsAt, endsAt
	r.byID[id] = a
	r.changes[id] = append(r.changes[id], Change{
		ID:            fmt.Sprintf("chg-%d", len(r.changes[id])+1),
		AppointmentID: id,
		PrevStartsAt:  prev.StartsAt,
		PrevEndsAt:    prev.EndsAt,
		NewStartsAt:   startsAt,
		NewEndsAt:     endsAt,
		Reason:        reason,
	})
	return a, nil
}

func (r *testRepo) Cancel(ctx context.Context, id int64, reason string, method *ChargeMethod, amount *float64) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status != StatusPending {
		return Appointment{}, ErrConflict
	}
	a.Status = StatusCanceled
	a.CancelReason = reason
	a.ChargeMethod = method
	a.ChargeAmount = amount
	r.byID[id] = a
	return a, nil
}

func (r *testRepo) Attend(ctx context.Context, id int64) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status != StatusPending {
		return Appointment{}, ErrConflict
	}
	a.Status = StatusAttended
	r.byID[id] = a
	return a, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	out := make([]Appointment, 0)
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
	return out, nil
}

func (r *testRepo) ListChanges(ctx context.Context, appointmentID int64) ([]Change, error) {
	return r.changes[appointmentID], nil
}

// -------------------------
// Tests
// -------------------------

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestService_Create_StartsPending(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	a, err := svc.Create(context.Background(), CreateInput{
		PetID:    1,
		StartsAt: at(10, 0),
		EndsAt:   at(11, 0),
		Notes:    "  baño completo  ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", a.Status)
	}
	if a.Notes != "baño completo" {
		t.Fatalf("expected trimmed notes, got %q", a.Notes)
	}
	if !a.CreatedAt.Equal(now) || !a.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps from clock, got %v / %v", a.CreatedAt, a.UpdatedAt)
	}
}

func TestService_Create_RejectsBadInterval(t *testing.T) {
	svc := NewService(newTestRepo())

	cases := []struct {
		name     string
		startsAt time.Time
		endsAt   time.Time
	}{
		{"zero start", time.Time{}, at(11, 0)},
		{"zero end", at(10, 0), time.Time{}},
		{"equal", at(10, 0), at(10, 0)},
		{"inverted", at(11, 0), at(10, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateInput{
				PetID:    1,
				StartsAt: tc.startsAt,
				EndsAt:   tc.endsAt,
			})
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Create_OverlapConflict_ForceBypasses(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Intersecta parcialmente
	_, err := svc.Create(context.Background(), CreateInput{
		PetID: 2, StartsAt: at(10, 30), EndsAt: at(11, 30),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Mismo intervalo con force pasa
	a, err := svc.Create(context.Background(), CreateInput{
		PetID: 2, StartsAt: at(10, 30), EndsAt: at(11, 30), ForceOverlap: true,
	})
	if err != nil {
		t.Fatalf("forced booking failed: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", a.Status)
	}
}

func TestService_Create_BackToBack_NoConflict(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// Fin exclusivo: [10,11) y [11,12) no chocan
	if _, err := svc.Create(context.Background(), CreateInput{
		PetID: 2, StartsAt: at(11, 0), EndsAt: at(12, 0),
	}); err != nil {
		t.Fatalf("adjacent booking should not conflict: %v", err)
	}
}

func TestService_Reschedule_RequiresReason_AndRecordsChange(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Reschedule(context.Background(), a.ID, RescheduleInput{
		StartsAt: at(14, 0), EndsAt: at(15, 0), Reason: "   ",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank reason, got %v", err)
	}

	updated, err := svc.Reschedule(context.Background(), a.ID, RescheduleInput{
		StartsAt: at(14, 0), EndsAt: at(15, 0), Reason: "cliente pidió otro horario",
	})
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if !updated.StartsAt.Equal(at(14, 0)) {
		t.Fatalf("expected new start, got %v", updated.StartsAt)
	}

	changes, err := svc.ListChanges(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("list changes failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change record, got %d", len(changes))
	}
	c := changes[0]
	if !c.PrevStartsAt.Equal(at(10, 0)) || !c.NewStartsAt.Equal(at(14, 0)) {
		t.Fatalf("change record has wrong intervals: %+v", c)
	}
	if c.Reason != "cliente pidió otro horario" {
		t.Fatalf("change record has wrong reason: %q", c.Reason)
	}
}

func TestService_Cancel_RequiresReason_ChargeOptional(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	a, _ := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	})

	_, err := svc.Cancel(context.Background(), a.ID, CancelInput{Reason: ""})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty reason, got %v", err)
	}

	method := ChargeCash
	amount := 10.0
	canceled, err := svc.Cancel(context.Background(), a.ID, CancelInput{
		Reason:       "cliente no llegó",
		ChargeMethod: &method,
		ChargeAmount: &amount,
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != StatusCanceled {
		t.Fatalf("expected CANCELED, got %s", canceled.Status)
	}
	if canceled.CancelReason != "cliente no llegó" {
		t.Fatalf("wrong cancel reason: %q", canceled.CancelReason)
	}
	if canceled.ChargeMethod == nil || *canceled.ChargeMethod != ChargeCash {
		t.Fatalf("expected CASH charge method, got %v", canceled.ChargeMethod)
	}
}

func TestService_Cancel_RejectsBadCharge(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	a, _ := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	})

	bad := ChargeMethod("CHECK")
	if _, err := svc.Cancel(context.Background(), a.ID, CancelInput{
		Reason: "x", ChargeMethod: &bad,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown method, got %v", err)
	}

	negative := -5.0
	if _, err := svc.Cancel(context.Background(), a.ID, CancelInput{
		Reason: "x", ChargeAmount: &negative,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}
}

func TestService_TerminalStates_AreFinal(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	a, _ := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	})

	if _, err := svc.Attend(context.Background(), a.ID); err != nil {
		t.Fatalf("attend failed: %v", err)
	}

	if _, err := svc.Attend(context.Background(), a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second attend, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), a.ID, CancelInput{Reason: "tarde"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict canceling attended, got %v", err)
	}

	// Editar una cita atendida es como si no existiera
	if _, err := svc.Edit(context.Background(), a.ID, EditInput{
		StartsAt: at(16, 0), EndsAt: at(17, 0),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound editing attended, got %v", err)
	}
}

func TestService_List_ValidatesFilter(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.List(context.Background(), ListFilter{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero range, got %v", err)
	}

	bad := Status("DONE")
	if _, err := svc.List(context.Background(), ListFilter{
		From: at(0, 0), To: at(23, 0), Status: &bad,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestService_CanceledSlot_IsReusable(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	a, _ := svc.Create(context.Background(), CreateInput{
		PetID: 1, StartsAt: at(10, 0), EndsAt: at(11, 0),
	})
	if _, err := svc.Cancel(context.Background(), a.ID, CancelInput{Reason: "reagenda"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// El hueco liberado se puede volver a reservar sin force
	if _, err := svc.Create(context.Background(), CreateInput{
		PetID: 2, StartsAt: at(10, 0), EndsAt: at(11, 0),
	}); err != nil {
		t.Fatalf("expected canceled slot to be free, got %v", err)
	}
}
