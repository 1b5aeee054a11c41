package postgres

import (
	"context"
	"database/sql"
	"errors"

	"grooming-service/internal/domain/catalogs"
)

// CatalogsRepo guarda los tres catálogos en una sola tabla discriminada
// por kind; el mismo contrato sirve para zonas, tipos de tratamiento y
// medicinas.
type CatalogsRepo struct {
	db *sql.DB
}

func NewCatalogsRepo(db *sql.DB) *CatalogsRepo {
	return &CatalogsRepo{db: db}
}

func (r *CatalogsRepo) Create(ctx context.Context, e catalogs.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_entries (id, kind, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		e.ID,
		string(e.Kind),
		e.Name,
		e.Active,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *CatalogsRepo) Update(ctx context.Context, e catalogs.Entry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE catalog_entries
		SET name = $3, active = $4, updated_at = $5
		WHERE id = $1 AND kind = $2
	`,
		e.ID,
		string(e.Kind),
		e.Name,
		e.Active,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalogs.ErrNotFound
	}
	return nil
}

func (r *CatalogsRepo) GetByID(ctx context.Context, kind catalogs.Kind, id string) (catalogs.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, name, active, created_at, updated_at
		FROM catalog_entries
		WHERE id = $1 AND kind = $2
	`, id, string(kind))

	e, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalogs.Entry{}, catalogs.ErrNotFound
	}
	return e, err
}

func (r *CatalogsRepo) ListByKind(ctx context.Context, kind catalogs.Kind, includeInactive bool) ([]catalogs.Entry, error) {
	query := `
		SELECT id, kind, name, active, created_at, updated_at
		FROM catalog_entries
		WHERE kind = $1
	`
	if !includeInactive {
		query += ` AND active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]catalogs.Entry, 0)
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanCatalogEntry(row rowScanner) (catalogs.Entry, error) {
	var (
		e    catalogs.Entry
		kind string
	)
	if err := row.Scan(&e.ID, &kind, &e.Name, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return catalogs.Entry{}, err
	}
	e.Kind = catalogs.Kind(kind)
	return e, nil
}
