package pets

import "time"

// Species define las especies atendidas por la peluquería.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Pet representa una mascota registrada en el negocio.
// El ID entero lo asigna el store; ClientID es el dueño (cliente).
type Pet struct {
	ID       int64
	ClientID string

	Name    string
	Species string // dog, cat
	Breed   string
	Sex     string // male, female, unknown

	BirthDate *time.Time
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
