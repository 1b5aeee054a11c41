package visits

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

// testRepo se comporta como un store autoritativo: reconcilia total/balance
// al guardar, igual que los adapters reales.
type testRepo struct {
	byID map[int64]Visit
	seq  int64

	lastAutoCreate bool
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]Visit{}}
}

func (r *testRepo) Create(ctx context.Context, v Visit, autoCreateAppointment bool) (Visit, error) {
	if err := Reconcile(&v); err != nil {
		return Visit{}, err
	}
	r.lastAutoCreate = autoCreateAppointment
	if autoCreateAppointment {
		id := int64(9000 + r.seq)
		v.AppointmentID = &id
	}
	r.seq++
	v.ID = r.seq
	r.byID[v.ID] = v
	return v, nil
}

func (r *testRepo) Update(ctx context.Context, v Visit) (Visit, error) {
	prev, ok := r.byID[v.ID]
	if !ok {
		return Visit{}, ErrNotFound
	}
	if err := Reconcile(&v); err != nil {
		return Visit{}, err
	}
	v.PetID = prev.PetID
	v.AppointmentID = prev.AppointmentID
	v.CreatedAt = prev.CreatedAt
	r.byID[v.ID] = v
	return v, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (Visit, error) {
	v, ok := r.byID[id]
	if !ok {
		return Visit{}, ErrNotFound
	}
	return v, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID int64) ([]Visit, error) {
	out := make([]Visit, 0)
	for _, v := range r.byID {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *testRepo) ListByRange(ctx context.Context, from, to time.Time) ([]Visit, error) {
	out := make([]Visit, 0)
	for _, v := range r.byID {
		if !v.VisitedAt.Before(from) && !v.VisitedAt.After(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func visitedAt() time.Time {
	return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
}

func f64(v float64) *float64 { return &v }

func TestService_Create_DerivesTotal(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	v, err := svc.Create(context.Background(), CreateInput{
		PetID:     1,
		VisitedAt: visitedAt(),
		Items: []Item{
			{Category: CategoryBath, Price: 25},
			{Category: CategoryHaircut, Price: 15},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.TotalAmount != 40 {
		t.Fatalf("expected total 40, got %.2f", v.TotalAmount)
	}
	if v.Payment != nil {
		t.Fatalf("expected no payment, got %+v", v.Payment)
	}
}

func TestService_Create_MutuallyExclusiveOrigin(t *testing.T) {
	svc := NewService(newTestRepo())

	apptID := int64(7)
	_, err := svc.Create(context.Background(), CreateInput{
		PetID:                 1,
		VisitedAt:             visitedAt(),
		AppointmentID:         &apptID,
		AutoCreateAppointment: true,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Create_WalkIn_AutoCreatesAppointment(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	v, err := svc.Create(context.Background(), CreateInput{
		PetID:                 1,
		VisitedAt:             visitedAt(),
		AutoCreateAppointment: true,
		Items:                 []Item{{Category: CategoryBath, Price: 20}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.lastAutoCreate {
		t.Fatal("expected auto-create flag to reach the store")
	}
	if v.AppointmentID == nil {
		t.Fatal("expected synthesized appointment id")
	}
}

func TestService_Create_RejectsBadItems(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		PetID:     1,
		VisitedAt: visitedAt(),
		Items:     []Item{{Category: ItemCategory("MASSAGE"), Price: 10}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{
		PetID:     1,
		VisitedAt: visitedAt(),
		Items:     []Item{{Category: CategoryBath, Price: -1}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative price, got %v", err)
	}
}

func TestService_Create_PaymentCoherence(t *testing.T) {
	method := MethodCash

	cases := []struct {
		name    string
		payment *Payment
		wantErr bool
		balance float64
	}{
		{
			name:    "paid in full",
			payment: &Payment{Status: PaymentPaid, Method: &method, AmountPaid: f64(40)},
			balance: 0,
		},
		{
			name:    "partial leaves balance",
			payment: &Payment{Status: PaymentPartial, Method: &method, AmountPaid: f64(30)},
			balance: 10,
		},
		{
			name:    "pending without amount",
			payment: &Payment{Status: PaymentPending},
			balance: 40,
		},
		{
			name:    "paid but short",
			payment: &Payment{Status: PaymentPaid, Method: &method, AmountPaid: f64(30)},
			wantErr: true,
		},
		{
			name:    "partial covering total",
			payment: &Payment{Status: PaymentPartial, Method: &method, AmountPaid: f64(40)},
			wantErr: true,
		},
		{
			name:    "pending with amount",
			payment: &Payment{Status: PaymentPending, AmountPaid: f64(10)},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(newTestRepo())

			v, err := svc.Create(context.Background(), CreateInput{
				PetID:     1,
				VisitedAt: visitedAt(),
				Items: []Item{
					{Category: CategoryBath, Price: 25},
					{Category: CategoryHaircut, Price: 15},
				},
				Payment: tc.payment,
			})
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Payment == nil {
				t.Fatal("expected payment on visit")
			}
			if v.Payment.Balance != tc.balance {
				t.Fatalf("expected balance %.2f, got %.2f", tc.balance, v.Payment.Balance)
			}
		})
	}
}

func TestService_Update_ReplacesAggregate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		PetID:     1,
		VisitedAt: visitedAt(),
		Items:     []Item{{Category: CategoryBath, Price: 25}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	method := MethodCard
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{
		VisitedAt: visitedAt(),
		Items: []Item{
			{Category: CategoryTreatment, Price: 50, Treatment: &TreatmentDetail{
				TreatmentTypeText: "  antipulgas  ",
			}},
		},
		Payment: &Payment{Status: PaymentPartial, Method: &method, AmountPaid: f64(20)},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.TotalAmount != 50 {
		t.Fatalf("expected total 50, got %.2f", updated.TotalAmount)
	}
	if updated.Payment.Balance != 30 {
		t.Fatalf("expected balance 30, got %.2f", updated.Payment.Balance)
	}
	if updated.PetID != created.PetID {
		t.Fatal("update must not change pet ownership")
	}
	if got := updated.Items[0].Treatment.TreatmentTypeText; got != "antipulgas" {
		t.Fatalf("expected trimmed treatment text, got %q", got)
	}
}

func TestService_List_ByPet_FiltersCategory(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	mustCreate := func(items []Item) {
		t.Helper()
		if _, err := svc.Create(context.Background(), CreateInput{
			PetID: 1, VisitedAt: visitedAt(), Items: items,
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	mustCreate([]Item{{Category: CategoryBath, Price: 20}})
	mustCreate([]Item{{Category: CategoryTreatment, Price: 35}})

	petID := int64(1)
	cat := CategoryTreatment
	out, err := svc.List(context.Background(), ListFilter{PetID: &petID, Category: &cat})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 visit with treatment, got %d", len(out))
	}
}

func TestService_List_RangeRequiresValidWindow(t *testing.T) {
	svc := NewService(newTestRepo())

	from := visitedAt()
	to := from.Add(-time.Hour)
	if _, err := svc.List(context.Background(), ListFilter{From: &from, To: &to}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted range, got %v", err)
	}
	if _, err := svc.List(context.Background(), ListFilter{From: &from}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing To, got %v", err)
	}
}

func TestBalance_FloorsAtZero(t *testing.T) {
	if b := Balance(40, f64(50)); b != 0 {
		t.Fatalf("expected floor at 0, got %.2f", b)
	}
	if b := Balance(40, nil); b != 40 {
		t.Fatalf("expected full balance without payment, got %.2f", b)
	}
}

func TestReconcile_PaidOverTotal_IsPaid(t *testing.T) {
	method := MethodCash
	v := Visit{
		Items:   []Item{{Category: CategoryBath, Price: 40}},
		Payment: &Payment{Status: PaymentPaid, Method: &method, AmountPaid: f64(45)},
	}
	if err := Reconcile(&v); err != nil {
		t.Fatalf("overpayment should still be PAID: %v", err)
	}
	if v.Payment.Balance != 0 {
		t.Fatalf("expected balance 0, got %.2f", v.Payment.Balance)
	}
}
