package clients

import "context"

type Repository interface {
	Create(ctx context.Context, c Client) error
	Update(ctx context.Context, c Client) error
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, limit int) ([]Client, error)
	Search(ctx context.Context, query string, limit int) ([]Client, error)
}
