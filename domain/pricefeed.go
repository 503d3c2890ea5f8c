package domain

import (
	"math/big"
	"time"

	"github.com/x-xyz/auction/base/ctx"
)

// Quote is a price reference answer: Price scaled by 10^Decimals
type Quote struct {
	Price     *big.Int
	Decimals  uint8
	UpdatedAt time.Time
}

// PriceReference reads the latest unit price a feed reports
type PriceReference interface {
	LatestUnitPrice(c ctx.Ctx, feed Address) (Quote, error)
}
