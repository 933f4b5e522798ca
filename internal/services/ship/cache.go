package ship

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/novadock/hangar/internal/domain/ship"
)

// CachedService is a read-through decorator over Service: FindByID hits
// a bounded expire-after-write cache, mutations evict. Every other call
// passes through.
type CachedService struct {
	Service
	cache *expirable.LRU[string, *ship.Spaceship]
}

var _ Service = (*CachedService)(nil)

func NewCachedService(inner Service, entries int, ttl time.Duration) *CachedService {
	return &CachedService{
		Service: inner,
		cache:   expirable.NewLRU[string, *ship.Spaceship](entries, nil, ttl),
	}
}

func (c *CachedService) FindByID(ctx context.Context, id string) (*ship.Spaceship, error) {
	if s, ok := c.cache.Get(id); ok {
		return s, nil
	}
	s, err := c.Service.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, s)
	return s, nil
}

func (c *CachedService) Update(ctx context.Context, s *ship.Spaceship) error {
	if err := c.Service.Update(ctx, s); err != nil {
		return err
	}
	c.cache.Remove(s.ID)
	return nil
}

func (c *CachedService) Delete(ctx context.Context, id string) error {
	if err := c.Service.Delete(ctx, id); err != nil {
		return err
	}
	c.cache.Remove(id)
	return nil
}
