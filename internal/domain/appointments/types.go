package appointments

// Status es el ciclo de vida de una cita: PENDING es el único estado inicial
// y el único desde el que se permite transicionar; ATTENDED y CANCELED son
// terminales.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAttended Status = "ATTENDED"
	StatusCanceled Status = "CANCELED"
)

// ValidStatus reporta si s es un estado conocido.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAttended, StatusCanceled:
		return true
	}
	return false
}

// ChargeMethod es el método de cobro de una penalidad de cancelación.
type ChargeMethod string

const (
	ChargeCash          ChargeMethod = "CASH"
	ChargeCard          ChargeMethod = "CARD"
	ChargeMobileBanking ChargeMethod = "MOBILE_BANKING"
)

// ValidChargeMethod reporta si m es un método conocido.
func ValidChargeMethod(m ChargeMethod) bool {
	switch m {
	case ChargeCash, ChargeCard, ChargeMobileBanking:
		return true
	}
	return false
}
