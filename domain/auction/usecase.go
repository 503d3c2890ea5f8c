package auction

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
)

// StateRepo persists the engine state. Load returns domain.ErrNotFound before the
// first Save. touched lists the auctions changed since the previous Save, nil
// asks for a full write.
type StateRepo interface {
	Load(c ctx.Ctx) (*State, error)
	Save(c ctx.Ctx, s *State, touched []uint64) error
}

type UseCase interface {
	// lifecycle
	CreateAuction(c ctx.Ctx, seller domain.Address, p CreateAuctionParams) (uint64, error)
	PlaceBid(c ctx.Ctx, bidder domain.Address, id uint64, amount *big.Int, paymentToken domain.Address) error
	EndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error
	ForceEndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error

	// reads
	GetAuction(c ctx.Ctx, id uint64) (*Auction, error)
	GetAuctionCount(c ctx.Ctx) (uint64, error)
	GetAuctionsBatch(c ctx.Ctx, start, count uint64) ([]*Auction, error)
	GetAuctionBidCount(c ctx.Ctx, id uint64) (uint64, error)
	GetAuctionStats(c ctx.Ctx) (*Stats, error)
	AwaitingSettlement(c ctx.Ctx, limit int) ([]uint64, error)
	ConvertToUSDValue(c ctx.Ctx, paymentToken domain.Address, amount *big.Int) (*big.Int, error)
	CalculateFeeRate(c ctx.Ctx, value *big.Int) (uint32, error)
	PlatformFee(c ctx.Ctx) (uint32, error)
	UseDynamicFee(c ctx.Ctx) (bool, error)
	BaseFeeRate(c ctx.Ctx) (uint32, error)
	GetFeeTierCount(c ctx.Ctx) (int, error)
	GetAllFeeTiers(c ctx.Ctx) ([]*big.Int, []uint32, error)
	PriceFeed(c ctx.Ctx, paymentToken domain.Address) (domain.Address, error)
	Owner(c ctx.Ctx) (domain.Address, error)
	Paused(c ctx.Ctx) (bool, error)
	Version(c ctx.Ctx) (Version, error)

	// administration
	SetPlatformFee(c ctx.Ctx, caller domain.Address, rate uint32) error
	SetFeeTiers(c ctx.Ctx, caller domain.Address, thresholds []*big.Int, rates []uint32) error
	SetDynamicFeeEnabled(c ctx.Ctx, caller domain.Address, enabled bool) error
	Pause(c ctx.Ctx, caller domain.Address) error
	Unpause(c ctx.Ctx, caller domain.Address) error
	SetPriceFeed(c ctx.Ctx, caller domain.Address, paymentToken, feed domain.Address) error
	TransferOwnership(c ctx.Ctx, caller, newOwner domain.Address) error
	SetTreasury(c ctx.Ctx, caller, treasury domain.Address) error
	Migrate(c ctx.Ctx, caller, engineAddress domain.Address) error
}

// Settler is the part of UseCase the settlement keeper drives
type Settler interface {
	AwaitingSettlement(c ctx.Ctx, limit int) ([]uint64, error)
	EndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error
}

// FeedRegistrar is the part of UseCase pay-token bootstrap drives
type FeedRegistrar interface {
	PriceFeed(c ctx.Ctx, paymentToken domain.Address) (domain.Address, error)
	SetPriceFeed(c ctx.Ctx, caller domain.Address, paymentToken, feed domain.Address) error
}
