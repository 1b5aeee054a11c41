package visits

import (
	"fmt"
	"time"
)

// Visit es el registro de servicios realizados a una mascota.
// Puede venir de una cita agendada o ser walk-in (AppointmentID nil).
// Items y Payment viven exclusivamente dentro de su visita: se reemplazan
// enteros en cada update, nunca se parchean de a uno.
type Visit struct {
	ID    int64
	PetID int64

	// Cita de origen, si existió.
	AppointmentID *int64

	VisitedAt time.Time
	Notes     string

	Items   []Item
	Payment *Payment

	// TotalAmount = Σ precios de Items. Derivado; el store es la fuente de
	// verdad del valor persistido.
	TotalAmount float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item es una línea de servicio facturable.
type Item struct {
	Category ItemCategory
	Price    float64

	// Solo con sentido en categorías con tratamiento.
	Treatment *TreatmentDetail
}

// TreatmentDetail acompaña a un item de tratamiento. Tipo y medicina pueden
// venir como id de catálogo O como texto libre (ninguno es obligatorio).
type TreatmentDetail struct {
	TreatmentTypeID   *string
	TreatmentTypeText string

	MedicineID   *string
	MedicineText string

	// Fecha sugerida de próxima visita (solo fecha, sin hora).
	NextVisitDate *time.Time
}

// Payment es el cobro (a lo sumo uno) asociado a la visita.
type Payment struct {
	Status PaymentStatus

	// Nil cuando Status es PENDING y no se cobró nada todavía.
	Method     *PaymentMethod
	AmountPaid *float64

	// Balance = max(0, TotalAmount - AmountPaid). Derivado por el store.
	Balance float64
}

// Total suma los precios de los items; secuencia vacía da 0.
func Total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	return sum
}

// Reconcile recalcula el total y el balance persistidos y valida la
// coherencia del pago declarado. Lo invocan los stores autoritativos (no el
// servicio: el estado llega como lo mandó el caller y es el store quien
// decide si cierra):
//   - PAID    ⇒ balance 0 (lo pagado cubre el total)
//   - PARTIAL ⇒ 0 < pagado < total
//   - PENDING ⇒ pagado ausente o cero
func Reconcile(v *Visit) error {
	v.TotalAmount = Total(v.Items)

	if v.Payment == nil {
		return nil
	}

	p := *v.Payment
	p.Balance = Balance(v.TotalAmount, p.AmountPaid)

	paid := 0.0
	if p.AmountPaid != nil {
		paid = *p.AmountPaid
	}

	switch p.Status {
	case PaymentPaid:
		if p.Balance != 0 {
			return fmt.Errorf("%w: PAID payment leaves balance %.2f", ErrInvalidInput, p.Balance)
		}
	case PaymentPartial:
		if paid <= 0 || paid >= v.TotalAmount {
			return fmt.Errorf("%w: PARTIAL requires 0 < amount_paid < total", ErrInvalidInput)
		}
	case PaymentPending:
		if paid != 0 {
			return fmt.Errorf("%w: PENDING payment cannot carry an amount", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown payment status", ErrInvalidInput)
	}

	v.Payment = &p
	return nil
}

// Balance deriva el saldo pendiente, con piso en cero.
func Balance(totalAmount float64, amountPaid *float64) float64 {
	paid := 0.0
	if amountPaid != nil {
		paid = *amountPaid
	}
	b := totalAmount - paid
	if b < 0 {
		return 0
	}
	return b
}
