package properties

import (
	"context"
	"log/slog"
	"time"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/internal/errs"
	"github.com/krisalay/query-cache/internal/logging"
)

// OwnerKey is the cache key of an owner's property listing.
func OwnerKey(ownerID string) string {
	return "properties:owner:" + ownerID
}

/*
Service serves property listings through the query cache.

Reads go through the cache with background refresh, so a fresh listing is
returned immediately and revalidated off the request path. Writes go to the
repository first and then invalidate the owner's listing.
*/
type Service struct {
	repo  Repository
	cache *cache.QueryCache
	ttl   time.Duration
}

func NewService(repo Repository, c *cache.QueryCache) *Service {
	return &Service{repo: repo, cache: c}
}

// WithTTL returns a copy of the service reading with ttl instead of the cache default.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	cp := *s
	cp.ttl = ttl
	return &cp
}

func (s *Service) query(ownerID string) cache.QueryOptions[[]Property] {
	return cache.QueryOptions[[]Property]{
		Key: OwnerKey(ownerID),
		Producer: func(ctx context.Context) ([]Property, error) {
			return s.repo.List(ctx, ownerID)
		},
		TTL:                 s.ttl,
		RefetchInBackground: true,
	}
}

// List returns the owner's properties, from the cache when fresh.
func (s *Service) List(ctx context.Context, ownerID string) ([]Property, error) {
	q := cache.UseCachedQuery(ctx, s.cache, s.query(ownerID))
	if err := q.Err(); err != nil {
		return nil, err
	}
	data, _ := q.Data()
	return data, nil
}

// Refresh reloads the owner's properties from the repository, bypassing freshness.
func (s *Service) Refresh(ctx context.Context, ownerID string) ([]Property, error) {
	q := cache.NewQuery(s.cache, s.query(ownerID))
	if err := q.Refetch(ctx); err != nil {
		return nil, err
	}
	data, _ := q.Data()
	return data, nil
}

func (s *Service) Create(ctx context.Context, p *Property) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return errs.Wrap(err, "create property")
	}
	s.cache.Invalidate(OwnerKey(p.OwnerID))

	logging.Info(ctx, "property created",
		slog.String("owner_id", p.OwnerID),
		slog.String("property_id", p.ID),
	)
	return nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return errs.Wrap(err, "delete property")
	}
	s.cache.Invalidate(OwnerKey(ownerID))

	logging.Info(ctx, "property deleted",
		slog.String("owner_id", ownerID),
		slog.String("property_id", id),
	)
	return nil
}
