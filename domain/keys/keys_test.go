package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "priceQuote:11155111:0xfeed", RedisKey(PfxPriceQuote, "11155111", "0xfeed"))
	assert.Equal(t, "priceQuote:11155111", GetPrefix(RedisKey(PfxPriceQuote, "11155111", "0xfeed")))
	assert.Equal(t, "feedDecimals", GetPrefix("feedDecimals:0xfeed"))
	assert.Equal(t, "none", GetPrefix("plain"))
}
