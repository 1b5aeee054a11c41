package appointments

import "time"

// Appointment representa una reserva de horario para una mascota.
// StartsAt/EndsAt son hora civil local del negocio (naive, sin zona).
type Appointment struct {
	ID    int64
	PetID int64

	StartsAt time.Time
	EndsAt   time.Time

	Status Status
	Notes  string

	// Solo con sentido cuando Status == CANCELED.
	CancelReason string
	ChargeMethod *ChargeMethod
	ChargeAmount *float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Change es una entrada del historial de reprogramaciones de una cita.
// El store la registra al reprogramar, para dejar rastro auditable.
type Change struct {
	ID            string
	AppointmentID int64

	PrevStartsAt time.Time
	PrevEndsAt   time.Time
	NewStartsAt  time.Time
	NewEndsAt    time.Time
	Reason       string

	RecordedAt time.Time
}
