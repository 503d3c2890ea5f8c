package auction

import (
	"math/big"
	"time"

	"github.com/x-xyz/auction/domain"
)

// Bid is an accepted bid, it only lives in events
type Bid struct {
	AuctionId    uint64
	Bidder       domain.Address
	PaymentToken domain.Address
	Amount       *big.Int
	Value        *big.Int
	Time         time.Time
}
