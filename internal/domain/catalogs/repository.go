package catalogs

import "context"

type Repository interface {
	Create(ctx context.Context, e Entry) error
	Update(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, kind Kind, id string) (Entry, error)
	ListByKind(ctx context.Context, kind Kind, includeInactive bool) ([]Entry, error)
}
