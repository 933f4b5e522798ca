package ship

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/domain/ship"
)

var ErrInvalidValue = errors.New("missing or invalid value")

// Service is the lookup-and-mutate surface the HTTP layer talks to.
// CachedService decorates it; handlers never see which one they hold.
type Service interface {
	FindByID(ctx context.Context, id string) (*ship.Spaceship, error)
	Create(ctx context.Context, s *ship.Spaceship) error
	Update(ctx context.Context, s *ship.Spaceship) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, size int) ([]*ship.Spaceship, error)
	SearchByName(ctx context.Context, name string, page, size int) ([]*ship.Spaceship, error)
}

type Usecase struct {
	repo ship.Repo
	log  *zap.Logger
}

var _ Service = (*Usecase)(nil)

func NewUsecase(repo ship.Repo, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, log: log}
}

func (u *Usecase) FindByID(ctx context.Context, id string) (*ship.Spaceship, error) {
	u.logNegativeID(id)
	if id == "" {
		return nil, ErrInvalidValue
	}
	return u.repo.GetByID(ctx, id)
}

func (u *Usecase) Create(ctx context.Context, s *ship.Spaceship) error {
	if s.ID == "" || s.Name == "" {
		return ErrInvalidValue
	}
	return u.repo.Create(ctx, s)
}

func (u *Usecase) Update(ctx context.Context, s *ship.Spaceship) error {
	if s.ID == "" || s.Name == "" {
		return ErrInvalidValue
	}
	return u.repo.Update(ctx, s)
}

func (u *Usecase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidValue
	}
	return u.repo.Delete(ctx, id)
}

func (u *Usecase) List(ctx context.Context, page, size int) ([]*ship.Spaceship, error) {
	return u.repo.List(ctx, page, size)
}

func (u *Usecase) SearchByName(ctx context.Context, name string, page, size int) ([]*ship.Spaceship, error) {
	if name == "" {
		return nil, ErrInvalidValue
	}
	return u.repo.SearchByName(ctx, name, page, size)
}

// logNegativeID flags lookups with a negative-looking id. Ids are
// opaque strings, so a leading '-' usually means a caller pushed an
// arithmetic result into the path.
func (u *Usecase) logNegativeID(id string) {
	if strings.HasPrefix(id, "-") {
		u.log.Info("spaceship id is negative", zap.String("id", id))
	}
}
