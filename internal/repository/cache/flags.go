package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"inhouse-lobby-bot/internal/repository"
)

// FlagStore is a read-through cache in front of a flag repository. Values
// expire after the TTL so operators can flip a flag without restarting.
type FlagStore struct {
	inner repository.FlagRepository
	cache *gocache.Cache
}

// NewFlagStore wraps inner with a TTL cache.
func NewFlagStore(inner repository.FlagRepository, ttl time.Duration) *FlagStore {
	return &FlagStore{
		inner: inner,
		cache: gocache.New(ttl, ttl*10),
	}
}

func (s *FlagStore) GetFlag(ctx context.Context, name, defaultValue string) (string, error) {
	key := name + "\x00" + defaultValue
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	value, err := s.inner.GetFlag(ctx, name, defaultValue)
	if err != nil {
		return "", err
	}
	s.cache.Set(key, value, gocache.DefaultExpiration)
	return value, nil
}
