package ptr

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	assert.Equal(t, "bid", *String("bid"))
	assert.Equal(t, int32(18), *Int32(18))
	assert.Equal(t, uint64(7), *Uint64(7))
	assert.True(t, *Bool(true))
	now := time.Unix(1700000000, 0)
	assert.True(t, now.Equal(*Time(now)))
}

func TestBigCopy(t *testing.T) {
	assert.Nil(t, BigCopy(nil))
	orig := big.NewInt(100)
	cp := BigCopy(orig)
	cp.Add(cp, big.NewInt(1))
	assert.Equal(t, int64(100), orig.Int64())
	assert.Equal(t, int64(101), cp.Int64())
}
