// Package catalogs implementa un único catálogo genérico "con nombre",
// parametrizado por tipo de recurso: zonas de atención, tipos de tratamiento
// y medicinas comparten el mismo contrato {list, create, update} en vez de
// duplicar CRUDs casi idénticos por recurso.
package catalogs

import "time"

// Kind identifica cada catálogo por su path de recurso.
type Kind string

const (
	KindZones          Kind = "zones"
	KindTreatmentTypes Kind = "treatment-types"
	KindMedicines      Kind = "medicines"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindZones, KindTreatmentTypes, KindMedicines:
		return true
	}
	return false
}

// Entry es una entrada de catálogo: nombre + flag de activa.
// Las entradas inactivas se conservan (los tratamientos históricos las
// siguen referenciando) pero no se ofrecen para datos nuevos.
type Entry struct {
	ID   string
	Kind Kind

	Name   string
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
