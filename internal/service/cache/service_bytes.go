package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "SignalDesk/pkg/cache"
)

// ServiceBytes adapts a cache.Service (layered memory+Redis) to the
// BytesCache API used by the market-data client and read handlers. Values
// go through the string path on both layers, which stores the raw bytes.
type ServiceBytes struct {
	svc pkgcache.Service
}

func NewServiceBytes(svc pkgcache.Service) *ServiceBytes {
	return &ServiceBytes{svc: svc}
}

func (c *ServiceBytes) GetBytes(key string) ([]byte, bool, error) {
	var s string
	if err := c.svc.Get(context.Background(), key, &s); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(s), true, nil
}

func (c *ServiceBytes) SetBytes(key string, value []byte, ttl time.Duration) error {
	return c.svc.Set(context.Background(), key, string(value), ttl)
}

var _ BytesCache = (*ServiceBytes)(nil)
