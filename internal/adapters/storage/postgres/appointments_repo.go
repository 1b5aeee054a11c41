package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"grooming-service/internal/domain/appointments"

	"github.com/google/uuid"
)

// AppointmentsRepo es el store autoritativo de citas sobre Postgres.
//
// Todas las escrituras que tocan el intervalo corren en una transacción con
// un advisory lock de agenda: el chequeo de solape y el commit son atómicos,
// así dos reservas concurrentes sobre el mismo hueco no pueden pasar las dos.
type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const apptColumns = `
	id, pet_id, starts_at, ends_at, status, notes,
	cancel_reason, charge_method, charge_amount,
	created_at, updated_at
`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment, force bool) (appointments.Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return appointments.Appointment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkOverlap(ctx, tx, a.StartsAt, a.EndsAt, 0, force); err != nil {
		return appointments.Appointment{}, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO appointments (pet_id, starts_at, ends_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+apptColumns,
		a.PetID,
		a.StartsAt,
		a.EndsAt,
		string(appointments.StatusPending),
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanAppointment(row)
	if err != nil {
		return appointments.Appointment{}, err
	}
	return created, tx.Commit()
}

func (r *AppointmentsRepo) UpdateSchedule(ctx context.Context, id int64, startsAt, endsAt time.Time, notes string, force bool) (appointments.Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return appointments.Appointment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := lockPending(ctx, tx, id); err != nil {
		return appointments.Appointment{}, err
	}
	if err := checkOverlap(ctx, tx, startsAt, endsAt, id, force); err != nil {
		return appointments.Appointment{}, err
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE appointments
		SET starts_at = $2, ends_at = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+apptColumns,
		id, startsAt, endsAt, notes,
	)

	updated, err := scanAppointment(row)
	if err != nil {
		return appointments.Appointment{}, err
	}
	return updated, tx.Commit()
}

func (r *AppointmentsRepo) Reschedule(ctx context.Context, id int64, startsAt, endsAt time.Time, reason string, force bool) (appointments.Appointment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return appointments.Appointment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	prev, err := lockPending(ctx, tx, id)
	if err != nil {
		return appointments.Appointment{}, err
	}
	if err := checkOverlap(ctx, tx, startsAt, endsAt, id, force); err != nil {
		return appointments.Appointment{}, err
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE appointments
		SET starts_at = $2, ends_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+apptColumns,
		id, startsAt, endsAt,
	)

	updated, err := scanAppointment(row)
	if err != nil {
		return appointments.Appointment{}, err
	}

	// Rastro auditable del cambio de horario.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO appointment_changes (
			id, appointment_id,
			prev_starts_at, prev_ends_at, new_starts_at, new_ends_at,
			reason, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	`,
		uuid.NewString(),
		id,
		prev.StartsAt,
		prev.EndsAt,
		startsAt,
		endsAt,
		reason,
	); err != nil {
		return appointments.Appointment{}, err
	}

	return updated, tx.Commit()
}

func (r *AppointmentsRepo) Cancel(ctx context.Context, id int64, reason string, method *appointments.ChargeMethod, amount *float64) (appointments.Appointment, error) {
	var m *string
	if method != nil {
		s := string(*method)
		m = &s
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET status = 'CANCELED', cancel_reason = $2, charge_method = $3, charge_amount = $4, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+apptColumns,
		id, reason, m, amount,
	)

	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Appointment{}, r.terminalOrMissing(ctx, id)
	}
	return a, err
}

func (r *AppointmentsRepo) Attend(ctx context.Context, id int64) (appointments.Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE appointments
		SET status = 'ATTENDED', updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+apptColumns,
		id,
	)

	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Appointment{}, r.terminalOrMissing(ctx, id)
	}
	return a, err
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id int64) (appointments.Appointment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)

	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, err
}

func (r *AppointmentsRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + apptColumns + ` FROM appointments WHERE starts_at >= $1 AND starts_at <= $2`)

	args := []any{f.From, f.To}
	argN := 3

	if f.Status != nil {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(*f.Status))
		argN++
	}
	if f.PetID != nil {
		sb.WriteString(fmt.Sprintf(" AND pet_id = $%d", argN))
		args = append(args, *f.PetID)
		argN++
	}

	sb.WriteString(" ORDER BY starts_at ASC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) ListChanges(ctx context.Context, appointmentID int64) ([]appointments.Change, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, appointment_id, prev_starts_at, prev_ends_at, new_starts_at, new_ends_at, reason, recorded_at
		FROM appointment_changes
		WHERE appointment_id = $1
		ORDER BY recorded_at ASC
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Change, 0)
	for rows.Next() {
		var c appointments.Change
		if err := rows.Scan(
			&c.ID,
			&c.AppointmentID,
			&c.PrevStartsAt,
			&c.PrevEndsAt,
			&c.NewStartsAt,
			&c.NewEndsAt,
			&c.Reason,
			&c.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// terminalOrMissing distingue "no existe" de "ya está en estado terminal"
// cuando un UPDATE condicionado a PENDING no tocó filas.
func (r *AppointmentsRepo) terminalOrMissing(ctx context.Context, id int64) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: appointment already %s", appointments.ErrConflict, status)
}

// checkOverlap toma el advisory lock de agenda y verifica intersección del
// intervalo [startsAt, endsAt) contra reservas PENDING/ATTENDED. Con force
// solo toma el lock (el commit pasa igual aunque haya solape).
func checkOverlap(ctx context.Context, tx *sql.Tx, startsAt, endsAt time.Time, excludeID int64, force bool) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('appointments_schedule'))`); err != nil {
		return err
	}
	if force {
		return nil
	}

	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE id <> $1
			  AND status IN ('PENDING', 'ATTENDED')
			  AND starts_at < $3
			  AND ends_at > $2
		)
	`, excludeID, startsAt, endsAt).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return appointments.ErrConflict
	}
	return nil
}

// lockPending trae la cita con FOR UPDATE y exige que siga PENDING.
// Una cita en estado terminal deja de ser editable: para el caller es como
// si el recurso ya no existiera.
func lockPending(ctx context.Context, tx *sql.Tx, id int64) (appointments.Appointment, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)

	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	if err != nil {
		return appointments.Appointment{}, err
	}
	if a.Status != appointments.StatusPending {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var (
		a            appointments.Appointment
		status       string
		cancelReason sql.NullString
		chargeMethod sql.NullString
		chargeAmount sql.NullFloat64
	)

	if err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.StartsAt,
		&a.EndsAt,
		&status,
		&a.Notes,
		&cancelReason,
		&chargeMethod,
		&chargeAmount,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}

	a.Status = appointments.Status(status)
	if cancelReason.Valid {
		a.CancelReason = cancelReason.String
	}
	if chargeMethod.Valid {
		m := appointments.ChargeMethod(chargeMethod.String)
		a.ChargeMethod = &m
	}
	if chargeAmount.Valid {
		v := chargeAmount.Float64
		a.ChargeAmount = &v
	}
	return a, nil
}
