// Package provider defines the byte level caches quotes are stored in.
package provider

import (
	"errors"
	"time"

	"github.com/x-xyz/auction/base/ctx"
)

var ErrNotFound = errors.New("cache miss")

// Provider stores raw bytes. Get returns the remaining ttl with the value and
// ErrNotFound on a miss.
type Provider interface {
	Get(c ctx.Ctx, key string) ([]byte, time.Duration, error)
	Set(c ctx.Ctx, key string, value []byte, ttl time.Duration) error
	Del(c ctx.Ctx, key string) error
}
