package postgres

import (
	"context"
	"database/sql"
	"errors"

	"grooming-service/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, client_id, name, species, breed, sex, birth_date, notes,
	created_at, updated_at
`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO pets (client_id, name, species, breed, sex, birth_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+petColumns,
		p.ClientID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		p.BirthDate,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return scanPet(row)
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET name = $2, species = $3, breed = $4, sex = $5, birth_date = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Sex,
		p.BirthDate,
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id int64) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)

	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByClient(ctx context.Context, clientID string) ([]pets.Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets WHERE client_id = $1 ORDER BY name ASC`, clientID)
}

func (r *PetsRepo) Search(ctx context.Context, query string, limit int) ([]pets.Pet, error) {
	return r.list(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name ASC
		LIMIT $2
	`, query, limit)
}

func (r *PetsRepo) list(ctx context.Context, query string, args ...any) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p         pets.Pet
		birthDate sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Sex,
		&birthDate,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	if birthDate.Valid {
		d := birthDate.Time
		p.BirthDate = &d
	}
	return p, nil
}
