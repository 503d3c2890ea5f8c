package keys

import (
	"strings"
)

const (
	// PfxPriceQuote is used for prefixing cached price feed quotes
	PfxPriceQuote = "priceQuote"
	// PfxFeedDecimals is used for prefixing cached price feed decimals
	PfxFeedDecimals = "feedDecimals"
)

// CustomKey is used to join the customized key by componets with specified delimiter
func CustomKey(delimiter string, components ...string) string {
	return strings.Join(components, delimiter)
}

// RedisKey is used to join the redis key by componets
func RedisKey(components ...string) string {
	return CustomKey(":", components...)
}

// GetPrefix extracts the prefix of a key for metric tags
func GetPrefix(key string) string {
	s := strings.Split(key, ":")
	if len(s) > 2 {
		return strings.Join(s[:2], ":")
	} else if len(s) > 1 {
		return s[0]
	}
	return "none"
}
