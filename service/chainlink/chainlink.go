package chainlink

import (
	"errors"
	"time"

	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/service/cache/provider"
)

var (
	// ErrInvalidAnswer is returned when a feed answers with something that is not a price
	ErrInvalidAnswer = errors.New("invalid chainlink answer")
)

type Config struct {
	ChainId domain.ChainId
	// Cache holds quotes and feed decimals, nil keeps everything in process
	Cache provider.Provider
	// QuoteTtl bounds how long a quote is served without asking the feed
	QuoteTtl time.Duration
}
