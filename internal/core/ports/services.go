package ports

import "context"

// CacheService is a fixed-TTL byte cache used by the HTTP boundary for
// read-through response caching. Get reports a miss as (nil, nil);
// write handlers call DeleteByPrefix to drop responses invalidated by
// a mutation.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}
