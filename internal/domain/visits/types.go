package visits

// ItemCategory clasifica una línea de servicio dentro de una visita.
type ItemCategory string

const (
	CategoryBath      ItemCategory = "BATH"
	CategoryHaircut   ItemCategory = "HAIRCUT"
	CategoryTreatment ItemCategory = "TREATMENT"
	CategoryOther     ItemCategory = "OTHER"
)

func ValidCategory(c ItemCategory) bool {
	switch c {
	case CategoryBath, CategoryHaircut, CategoryTreatment, CategoryOther:
		return true
	}
	return false
}

// PaymentStatus es el estado del cobro de la visita.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// PaymentMethod es el medio de pago.
type PaymentMethod string

const (
	MethodCash          PaymentMethod = "CASH"
	MethodCard          PaymentMethod = "CARD"
	MethodMobileBanking PaymentMethod = "MOBILE_BANKING"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodMobileBanking:
		return true
	}
	return false
}
