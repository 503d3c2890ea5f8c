package ctx

import (
	"context"
	"time"

	"github.com/google/uuid"

	log "github.com/x-xyz/auction/base/log"
)

const (
	// KeyOpId tags every log line of one engine operation
	KeyOpId = "opId"
	// KeyOp is the name of the running engine operation
	KeyOp = "op"
)

type Ctx struct {
	context.Context
	log.Logger
}

func Background() Ctx {
	return Ctx{
		Context: context.Background(),
		Logger:  log.Log(),
	}
}

// From wraps a plain context with the default logger
func From(c context.Context) Ctx {
	return Ctx{
		Context: c,
		Logger:  log.Log(),
	}
}

func WithLogger(parent Ctx, logger log.Logger) Ctx {
	return Ctx{
		Context: parent.Context,
		Logger:  logger,
	}
}

func WithValue(parent Ctx, key string, val interface{}) Ctx {
	return Ctx{
		Context: context.WithValue(parent, key, val),
		Logger:  parent.Logger.WithField(key, val),
	}
}

func WithValues(parent Ctx, kvs map[string]interface{}) Ctx {
	c := parent
	for k, v := range kvs {
		c = WithValue(c, k, v)
	}
	return c
}

// WithOperation tags the context with an operation name and a fresh operation id
func WithOperation(parent Ctx, op string) Ctx {
	return WithValues(parent, map[string]interface{}{
		KeyOp:   op,
		KeyOpId: uuid.NewString(),
	})
}

// OpId returns the operation id set by WithOperation, or empty
func OpId(c Ctx) string {
	if v, ok := c.Value(KeyOpId).(string); ok {
		return v
	}
	return ""
}

func WithCancel(parent Ctx) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}

func WithTimeout(parent Ctx, timeout time.Duration) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}
