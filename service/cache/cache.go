// Package cache stores serialized values under a key prefix on top of a raw provider.
package cache

import (
	"time"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/service/cache/provider"
)

// ErrNotFound is returned by Get on a miss or an expired entry
var ErrNotFound = provider.ErrNotFound

// Loader fetches the value on a miss. It must return a pointer of the container's type.
type Loader func() (interface{}, error)

type Serializer func(interface{}) ([]byte, error)

type Deserializer func([]byte, interface{}) error

type Service interface {
	// GetByFunc fills container from the cache, or from load on a miss.
	// Concurrent misses on one key share a single load.
	GetByFunc(c ctx.Ctx, key string, container interface{}, load Loader) error
	Get(c ctx.Ctx, key string, container interface{}) error
	Set(c ctx.Ctx, key string, value interface{}) error
	Del(c ctx.Ctx, key string) error
}

type ServiceConfig struct {
	Ttl         time.Duration
	Pfx         string
	Cache       provider.Provider
	Serialize   Serializer
	Deserialize Deserializer
}
