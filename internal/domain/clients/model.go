package clients

import "time"

// Client es un cliente del negocio (dueño de una o más mascotas).
type Client struct {
	ID string

	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string

	CreatedAt time.Time
	UpdatedAt time.Time
}
