package cache

import (
	"encoding/json"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain/keys"
	"github.com/x-xyz/auction/service/cache/provider"
)

type impl struct {
	ttl         time.Duration
	pfx         string
	cache       provider.Provider
	serialize   Serializer
	deserialize Deserializer
	loads       singleflight.Group
}

func New(config ServiceConfig) Service {
	if config.Serialize == nil {
		config.Serialize = json.Marshal
	}
	if config.Deserialize == nil {
		config.Deserialize = json.Unmarshal
	}

	return &impl{
		ttl:         config.Ttl,
		pfx:         config.Pfx,
		cache:       config.Cache,
		serialize:   config.Serialize,
		deserialize: config.Deserialize,
	}
}

func (im *impl) GetByFunc(c ctx.Ctx, key string, container interface{}, load Loader) error {
	if err := im.Get(c, key, container); err == nil {
		return nil
	} else if err != ErrNotFound {
		c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache read failed, loading from source")
	}

	val, err, shared := im.loads.Do(key, func() (interface{}, error) {
		val, err := load()
		if err != nil {
			return nil, err
		}
		if err := im.Set(c, key, val); err != nil {
			c.WithFields(log.Fields{"err": err, "key": key}).Warn("cache write failed")
		}
		return val, nil
	})
	if err != nil {
		return err
	}
	if shared {
		c.WithField("key", key).Debug("load shared")
	}

	reflect.ValueOf(container).Elem().Set(reflect.ValueOf(val).Elem())
	return nil
}

func (im *impl) fullKey(key string) string {
	return keys.RedisKey(im.pfx, key)
}

func (im *impl) Get(c ctx.Ctx, key string, container interface{}) error {
	val, _, err := im.cache.Get(c, im.fullKey(key))
	if err == provider.ErrNotFound {
		return ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "key": im.fullKey(key)}).Error("cache.Get failed")
		return err
	}
	if err := im.deserialize(val, container); err != nil {
		c.WithFields(log.Fields{"err": err, "key": im.fullKey(key)}).Error("deserialize failed")
		return err
	}
	return nil
}

func (im *impl) Set(c ctx.Ctx, key string, value interface{}) error {
	val, err := im.serialize(value)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "key": im.fullKey(key)}).Error("serialize failed")
		return err
	}
	if err := im.cache.Set(c, im.fullKey(key), val, im.ttl); err != nil {
		c.WithFields(log.Fields{"err": err, "key": im.fullKey(key)}).Error("cache.Set failed")
		return err
	}
	return nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	if err := im.cache.Del(c, im.fullKey(key)); err != nil {
		c.WithFields(log.Fields{"err": err, "key": im.fullKey(key)}).Error("cache.Del failed")
		return err
	}
	return nil
}
