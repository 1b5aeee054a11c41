package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) (Pet, error)
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id int64) (Pet, error)
	ListByClient(ctx context.Context, clientID string) ([]Pet, error)
	Search(ctx context.Context, query string, limit int) ([]Pet, error)
}
