package auction

import (
	"math/big"
	"time"

	"github.com/x-xyz/auction/base/ptr"
	"github.com/x-xyz/auction/domain"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusOpen               Status = "open"
	StatusAwaitingSettlement Status = "awaitingSettlement"
	StatusSettledWon         Status = "settledWon"
	StatusSettledUnsold      Status = "settledUnsold"
	StatusHalted             Status = "halted"
)

// Auction is one listing of a uniquely owned asset held in escrow until it ends.
//
// StartPrice and HighestBidValue are in the common unit, HighestBid is in the
// native units of HighestBidToken.
type Auction struct {
	Id              uint64
	NftAddress      domain.Address
	TokenId         *big.Int
	Seller          domain.Address
	StartPrice      *big.Int
	StartTime       time.Time
	EndTime         time.Time
	Ended           bool
	HighestBidder   domain.Address
	HighestBid      *big.Int
	HighestBidToken domain.Address
	HighestBidValue *big.Int
	BidCount        uint64
	Halted          bool
	Settlement      *Settlement
}

// Settlement records how the funds of an ended auction were split
type Settlement struct {
	Winner       domain.Address
	FinalBid     *big.Int
	PaymentToken domain.Address
	FeeRate      uint32
	FeeValue     *big.Int
	FeeAmount    *big.Int
	SellerAmount *big.Int
	SettledAt    time.Time
	Forced       bool
}

// HasBid reports whether any bid was accepted
func (a *Auction) HasBid() bool {
	return !a.HighestBidder.IsEmpty()
}

func (a *Auction) Status(now time.Time) Status {
	switch {
	case a.Halted:
		return StatusHalted
	case a.Ended && a.HasBid():
		return StatusSettledWon
	case a.Ended:
		return StatusSettledUnsold
	case now.Before(a.StartTime):
		return StatusPending
	case now.Before(a.EndTime):
		return StatusOpen
	default:
		return StatusAwaitingSettlement
	}
}

// MinimumAcceptable is the value a new bid has to exceed
func (a *Auction) MinimumAcceptable() *big.Int {
	if a.HighestBidValue == nil || a.HighestBidValue.Sign() == 0 {
		return a.StartPrice
	}
	return a.HighestBidValue
}

func (a *Auction) Clone() *Auction {
	cp := *a
	cp.TokenId = ptr.BigCopy(a.TokenId)
	cp.StartPrice = ptr.BigCopy(a.StartPrice)
	cp.HighestBid = ptr.BigCopy(a.HighestBid)
	cp.HighestBidValue = ptr.BigCopy(a.HighestBidValue)
	if a.Settlement != nil {
		s := *a.Settlement
		s.FinalBid = ptr.BigCopy(s.FinalBid)
		s.FeeValue = ptr.BigCopy(s.FeeValue)
		s.FeeAmount = ptr.BigCopy(s.FeeAmount)
		s.SellerAmount = ptr.BigCopy(s.SellerAmount)
		cp.Settlement = &s
	}
	return &cp
}

// CreateAuctionParams is the input of CreateAuction
type CreateAuctionParams struct {
	NftAddress domain.Address `validate:"required,address"`
	TokenId    *big.Int       `validate:"required"`
	StartPrice *big.Int       `validate:"required"`
	StartTime  time.Time      `validate:"required"`
	EndTime    time.Time      `validate:"required"`
}
