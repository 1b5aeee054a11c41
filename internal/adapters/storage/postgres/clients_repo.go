package postgres

import (
	"context"
	"database/sql"
	"errors"

	"grooming-service/internal/domain/clients"
)

type ClientsRepo struct {
	db *sql.DB
}

func NewClientsRepo(db *sql.DB) *ClientsRepo {
	return &ClientsRepo{db: db}
}

const clientColumns = `id, name, phone, email, address, notes, created_at, updated_at`

func (r *ClientsRepo) Create(ctx context.Context, c clients.Client) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, phone, email, address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		c.ID,
		c.Name,
		c.Phone,
		c.Email,
		c.Address,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (r *ClientsRepo) Update(ctx context.Context, c clients.Client) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = $2, phone = $3, email = $4, address = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`,
		c.ID,
		c.Name,
		c.Phone,
		c.Email,
		c.Address,
		c.Notes,
		c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return clients.ErrNotFound
	}
	return nil
}

func (r *ClientsRepo) GetByID(ctx context.Context, id string) (clients.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return clients.Client{}, clients.ErrNotFound
	}
	return c, err
}

func (r *ClientsRepo) List(ctx context.Context, limit int) ([]clients.Client, error) {
	return r.list(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name ASC LIMIT $1`, limit)
}

func (r *ClientsRepo) Search(ctx context.Context, query string, limit int) ([]clients.Client, error) {
	return r.list(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%'
		ORDER BY name ASC
		LIMIT $2
	`, query, limit)
}

func (r *ClientsRepo) list(ctx context.Context, query string, args ...any) ([]clients.Client, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]clients.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClient(row rowScanner) (clients.Client, error) {
	var c clients.Client
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.Address,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return clients.Client{}, err
	}
	return c, nil
}
