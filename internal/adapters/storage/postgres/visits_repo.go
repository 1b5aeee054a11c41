package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grooming-service/internal/domain/visits"
)

// VisitsRepo es el store autoritativo de visitas sobre Postgres.
// El agregado completo (visita + items + pago) se escribe en una sola
// transacción; total y balance persistidos salen de visits.Reconcile, que
// además valida la coherencia del pago.
type VisitsRepo struct {
	db *sql.DB
}

func NewVisitsRepo(db *sql.DB) *VisitsRepo {
	return &VisitsRepo{db: db}
}

func (r *VisitsRepo) Create(ctx context.Context, v visits.Visit, autoCreateAppointment bool) (visits.Visit, error) {
	if err := visits.Reconcile(&v); err != nil {
		return visits.Visit{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return visits.Visit{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if v.AppointmentID != nil {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, *v.AppointmentID,
		).Scan(&exists); err != nil {
			return visits.Visit{}, err
		}
		if !exists {
			return visits.Visit{}, fmt.Errorf("%w: appointment %d", visits.ErrNotFound, *v.AppointmentID)
		}
	}

	if autoCreateAppointment {
		// Walk-in: se sintetiza la cita ya ATTENDED para que la agenda
		// tenga registro. No pasa por el chequeo de solape (ya ocurrió).
		var apptID int64
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO appointments (pet_id, starts_at, ends_at, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, 'ATTENDED', 'auto-created from walk-in visit', now(), now())
			RETURNING id
		`, v.PetID, v.VisitedAt, v.VisitedAt.Add(30*time.Minute)).Scan(&apptID); err != nil {
			return visits.Visit{}, err
		}
		v.AppointmentID = &apptID
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO visits (pet_id, appointment_id, visited_at, notes, total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		v.PetID,
		v.AppointmentID,
		v.VisitedAt,
		v.Notes,
		v.TotalAmount,
		v.CreatedAt,
		v.UpdatedAt,
	).Scan(&v.ID); err != nil {
		return visits.Visit{}, err
	}

	if err := insertItems(ctx, tx, v.ID, v.Items); err != nil {
		return visits.Visit{}, err
	}
	if err := insertPayment(ctx, tx, v.ID, v.Payment); err != nil {
		return visits.Visit{}, err
	}

	return v, tx.Commit()
}

func (r *VisitsRepo) Update(ctx context.Context, v visits.Visit) (visits.Visit, error) {
	if err := visits.Reconcile(&v); err != nil {
		return visits.Visit{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return visits.Visit{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Reemplazo total del agregado; la pertenencia (pet, cita) no cambia.
	row := tx.QueryRowContext(ctx, `
		UPDATE visits
		SET visited_at = $2, notes = $3, total_amount = $4, updated_at = $5
		WHERE id = $1
		RETURNING pet_id, appointment_id, created_at
	`, v.ID, v.VisitedAt, v.Notes, v.TotalAmount, v.UpdatedAt)

	var apptID sql.NullInt64
	if err := row.Scan(&v.PetID, &apptID, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return visits.Visit{}, visits.ErrNotFound
		}
		return visits.Visit{}, err
	}
	if apptID.Valid {
		v.AppointmentID = &apptID.Int64
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM visit_items WHERE visit_id = $1`, v.ID); err != nil {
		return visits.Visit{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM visit_payments WHERE visit_id = $1`, v.ID); err != nil {
		return visits.Visit{}, err
	}

	if err := insertItems(ctx, tx, v.ID, v.Items); err != nil {
		return visits.Visit{}, err
	}
	if err := insertPayment(ctx, tx, v.ID, v.Payment); err != nil {
		return visits.Visit{}, err
	}

	return v, tx.Commit()
}

func (r *VisitsRepo) GetByID(ctx context.Context, id int64) (visits.Visit, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, appointment_id, visited_at, notes, total_amount, created_at, updated_at
		FROM visits
		WHERE id = $1
	`, id)

	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return visits.Visit{}, visits.ErrNotFound
	}
	if err != nil {
		return visits.Visit{}, err
	}

	if err := r.loadAggregates(ctx, []*visits.Visit{&v}); err != nil {
		return visits.Visit{}, err
	}
	return v, nil
}

func (r *VisitsRepo) ListByPet(ctx context.Context, petID int64) ([]visits.Visit, error) {
	return r.list(ctx, `
		SELECT id, pet_id, appointment_id, visited_at, notes, total_amount, created_at, updated_at
		FROM visits
		WHERE pet_id = $1
		ORDER BY visited_at DESC
	`, petID)
}

func (r *VisitsRepo) ListByRange(ctx context.Context, from, to time.Time) ([]visits.Visit, error) {
	return r.list(ctx, `
		SELECT id, pet_id, appointment_id, visited_at, notes, total_amount, created_at, updated_at
		FROM visits
		WHERE visited_at >= $1 AND visited_at <= $2
		ORDER BY visited_at ASC
	`, from, to)
}

func (r *VisitsRepo) list(ctx context.Context, query string, args ...any) ([]visits.Visit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*visits.Visit, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.loadAggregates(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// loadAggregates puebla items y pago de cada visita.
// N+1 asumido: los listados son cortos (historial de una mascota o un rango
// de agenda) y mantiene las queries triviales.
func (r *VisitsRepo) loadAggregates(ctx context.Context, vs []*visits.Visit) error {
	for _, v := range vs {
		items, err := r.loadItems(ctx, v.ID)
		if err != nil {
			return err
		}
		v.Items = items

		p, err := r.loadPayment(ctx, v.ID)
		if err != nil {
			return err
		}
		v.Payment = p
	}
	return nil
}

func (r *VisitsRepo) loadItems(ctx context.Context, visitID int64) ([]visits.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, price, treatment_type_id, treatment_type_text, medicine_id, medicine_text, next_visit_date
		FROM visit_items
		WHERE visit_id = $1
		ORDER BY position ASC
	`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]visits.Item, 0)
	for rows.Next() {
		var (
			it            visits.Item
			category      string
			ttID, medID   sql.NullString
			ttText        sql.NullString
			medText       sql.NullString
			nextVisitDate sql.NullTime
		)
		if err := rows.Scan(&category, &it.Price, &ttID, &ttText, &medID, &medText, &nextVisitDate); err != nil {
			return nil, err
		}
		it.Category = visits.ItemCategory(category)

		if ttID.Valid || ttText.Valid || medID.Valid || medText.Valid || nextVisitDate.Valid {
			t := &visits.TreatmentDetail{
				TreatmentTypeText: ttText.String,
				MedicineText:      medText.String,
			}
			if ttID.Valid {
				s := ttID.String
				t.TreatmentTypeID = &s
			}
			if medID.Valid {
				s := medID.String
				t.MedicineID = &s
			}
			if nextVisitDate.Valid {
				d := nextVisitDate.Time
				t.NextVisitDate = &d
			}
			it.Treatment = t
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *VisitsRepo) loadPayment(ctx context.Context, visitID int64) (*visits.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT status, method, amount_paid, balance
		FROM visit_payments
		WHERE visit_id = $1
	`, visitID)

	var (
		p          visits.Payment
		status     string
		method     sql.NullString
		amountPaid sql.NullFloat64
	)
	if err := row.Scan(&status, &method, &amountPaid, &p.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.Status = visits.PaymentStatus(status)
	if method.Valid {
		m := visits.PaymentMethod(method.String)
		p.Method = &m
	}
	if amountPaid.Valid {
		v := amountPaid.Float64
		p.AmountPaid = &v
	}
	return &p, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, visitID int64, items []visits.Item) error {
	for i, it := range items {
		var (
			ttID, ttText, medID, medText any
			nextVisitDate                any
		)
		if it.Treatment != nil {
			if it.Treatment.TreatmentTypeID != nil {
				ttID = *it.Treatment.TreatmentTypeID
			}
			if it.Treatment.TreatmentTypeText != "" {
				ttText = it.Treatment.TreatmentTypeText
			}
			if it.Treatment.MedicineID != nil {
				medID = *it.Treatment.MedicineID
			}
			if it.Treatment.MedicineText != "" {
				medText = it.Treatment.MedicineText
			}
			if it.Treatment.NextVisitDate != nil {
				nextVisitDate = *it.Treatment.NextVisitDate
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO visit_items (
				visit_id, position, category, price,
				treatment_type_id, treatment_type_text, medicine_id, medicine_text, next_visit_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			visitID,
			i,
			string(it.Category),
			it.Price,
			ttID,
			ttText,
			medID,
			medText,
			nextVisitDate,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertPayment(ctx context.Context, tx *sql.Tx, visitID int64, p *visits.Payment) error {
	if p == nil {
		return nil
	}

	var method, amountPaid any
	if p.Method != nil {
		method = string(*p.Method)
	}
	if p.AmountPaid != nil {
		amountPaid = *p.AmountPaid
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO visit_payments (visit_id, status, method, amount_paid, balance)
		VALUES ($1, $2, $3, $4, $5)
	`, visitID, string(p.Status), method, amountPaid, p.Balance)
	return err
}

func scanVisit(row rowScanner) (visits.Visit, error) {
	var (
		v      visits.Visit
		apptID sql.NullInt64
	)
	if err := row.Scan(
		&v.ID,
		&v.PetID,
		&apptID,
		&v.VisitedAt,
		&v.Notes,
		&v.TotalAmount,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return visits.Visit{}, err
	}
	if apptID.Valid {
		v.AppointmentID = &apptID.Int64
	}
	return v, nil
}
