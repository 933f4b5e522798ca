package ship

import "context"

type Repo interface {
	Create(ctx context.Context, s *Spaceship) error
	GetByID(ctx context.Context, id string) (*Spaceship, error)
	Update(ctx context.Context, s *Spaceship) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, size int) ([]*Spaceship, error)
	SearchByName(ctx context.Context, name string, page, size int) ([]*Spaceship, error)
}
