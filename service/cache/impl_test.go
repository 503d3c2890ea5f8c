package cache

import (
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain/keys"
	"github.com/x-xyz/auction/service/cache/provider"
	"github.com/x-xyz/auction/service/cache/provider/primitive"
)

var (
	mockCtx = ctx.Background()
)

type quote struct {
	Price    *big.Int `json:"price"`
	Decimals uint8    `json:"decimals"`
}

type testsuite struct {
	suite.Suite
	im    *impl
	cache provider.Provider
}

func (ts *testsuite) SetupTest() {
	ts.cache = primitive.NewPrimitive("test", 1)
	ts.im = New(ServiceConfig{
		Ttl:   time.Minute,
		Pfx:   "testing",
		Cache: ts.cache,
	}).(*impl)
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestGet() {
	var (
		k = "key"
		v = quote{big.NewInt(312345000000), 8}
		c = &quote{}
	)

	ts.Equal(ErrNotFound, ts.im.Get(mockCtx, k, c))

	sv, err := json.Marshal(v)
	ts.NoError(err)
	ts.NoError(ts.cache.Set(mockCtx, keys.RedisKey(ts.im.pfx, k), sv, time.Minute))
	ts.NoError(ts.im.Get(mockCtx, k, c))
	ts.Equal(v, *c)
}

func (ts *testsuite) TestSetDel() {
	var (
		k = "key"
		v = quote{big.NewInt(100000000), 8}
		c = &quote{}
	)

	ts.NoError(ts.im.Set(mockCtx, k, v))

	sv, _, err := ts.cache.Get(mockCtx, keys.RedisKey(ts.im.pfx, k))
	ts.NoError(err)
	ts.NoError(json.Unmarshal(sv, c))
	ts.Equal(v, *c)

	ts.NoError(ts.im.Del(mockCtx, k))
	_, _, err = ts.cache.Get(mockCtx, keys.RedisKey(ts.im.pfx, k))
	ts.Equal(provider.ErrNotFound, err)
}

func (ts *testsuite) TestGetByFunc() {
	var (
		k     = "key"
		v     = quote{big.NewInt(99980000), 8}
		c     = &quote{}
		calls = 0
	)
	getter := func() (interface{}, error) {
		calls++
		return &v, nil
	}

	ts.NoError(ts.im.GetByFunc(mockCtx, k, c, getter))
	ts.Equal(v, *c)

	c = &quote{}
	ts.NoError(ts.im.GetByFunc(mockCtx, k, c, getter))
	ts.Equal(v, *c)
	ts.Equal(1, calls)

	errFeed := errors.New("feed down")
	err := ts.im.GetByFunc(mockCtx, "other", &quote{}, func() (interface{}, error) { return nil, errFeed })
	ts.Equal(errFeed, err)
}

func (ts *testsuite) TestGetByFuncSharesConcurrentLoads() {
	var (
		v     = quote{big.NewInt(312345000000), 8}
		calls int32
		wg    sync.WaitGroup
	)
	getter := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return &v, nil
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &quote{}
			ts.NoError(ts.im.GetByFunc(mockCtx, "feed", c, getter))
			ts.Equal(v, *c)
		}()
	}
	wg.Wait()
	ts.Equal(int32(1), atomic.LoadInt32(&calls))
}
