package usecase

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
	"github.com/x-xyz/auction/service/sequencer"
)

type serial struct {
	uc  auction.UseCase
	seq sequencer.Sequencer
}

// NewSerial runs every call of uc on seq, making it safe for concurrent callers
func NewSerial(uc auction.UseCase, seq sequencer.Sequencer) auction.UseCase {
	return &serial{uc: uc, seq: seq}
}

func (s *serial) CreateAuction(c ctx.Ctx, seller domain.Address, p auction.CreateAuctionParams) (id uint64, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		id, err = s.uc.CreateAuction(c, seller, p)
		return
	})
	return
}

func (s *serial) PlaceBid(c ctx.Ctx, bidder domain.Address, id uint64, amount *big.Int, paymentToken domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.PlaceBid(c, bidder, id, amount, paymentToken)
	})
}

func (s *serial) EndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.EndAuctionAndClaim(c, caller, id)
	})
}

func (s *serial) ForceEndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.ForceEndAuctionAndClaim(c, caller, id)
	})
}

func (s *serial) GetAuction(c ctx.Ctx, id uint64) (res *auction.Auction, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetAuction(c, id)
		return
	})
	return
}

func (s *serial) GetAuctionCount(c ctx.Ctx) (res uint64, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetAuctionCount(c)
		return
	})
	return
}

func (s *serial) GetAuctionsBatch(c ctx.Ctx, start, count uint64) (res []*auction.Auction, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetAuctionsBatch(c, start, count)
		return
	})
	return
}

func (s *serial) GetAuctionBidCount(c ctx.Ctx, id uint64) (res uint64, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetAuctionBidCount(c, id)
		return
	})
	return
}

func (s *serial) GetAuctionStats(c ctx.Ctx) (res *auction.Stats, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetAuctionStats(c)
		return
	})
	return
}

func (s *serial) AwaitingSettlement(c ctx.Ctx, limit int) (res []uint64, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.AwaitingSettlement(c, limit)
		return
	})
	return
}

func (s *serial) ConvertToUSDValue(c ctx.Ctx, paymentToken domain.Address, amount *big.Int) (res *big.Int, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.ConvertToUSDValue(c, paymentToken, amount)
		return
	})
	return
}

func (s *serial) CalculateFeeRate(c ctx.Ctx, value *big.Int) (res uint32, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.CalculateFeeRate(c, value)
		return
	})
	return
}

func (s *serial) PlatformFee(c ctx.Ctx) (res uint32, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.PlatformFee(c)
		return
	})
	return
}

func (s *serial) UseDynamicFee(c ctx.Ctx) (res bool, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.UseDynamicFee(c)
		return
	})
	return
}

func (s *serial) BaseFeeRate(c ctx.Ctx) (res uint32, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.BaseFeeRate(c)
		return
	})
	return
}

func (s *serial) GetFeeTierCount(c ctx.Ctx) (res int, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.GetFeeTierCount(c)
		return
	})
	return
}

func (s *serial) GetAllFeeTiers(c ctx.Ctx) (thresholds []*big.Int, rates []uint32, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		thresholds, rates, err = s.uc.GetAllFeeTiers(c)
		return
	})
	return
}

func (s *serial) PriceFeed(c ctx.Ctx, paymentToken domain.Address) (res domain.Address, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.PriceFeed(c, paymentToken)
		return
	})
	return
}

func (s *serial) Owner(c ctx.Ctx) (res domain.Address, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.Owner(c)
		return
	})
	return
}

func (s *serial) Paused(c ctx.Ctx) (res bool, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.Paused(c)
		return
	})
	return
}

func (s *serial) Version(c ctx.Ctx) (res auction.Version, err error) {
	err = s.seq.Do(c, func(c ctx.Ctx) (err error) {
		res, err = s.uc.Version(c)
		return
	})
	return
}

func (s *serial) SetPlatformFee(c ctx.Ctx, caller domain.Address, rate uint32) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.SetPlatformFee(c, caller, rate)
	})
}

func (s *serial) SetFeeTiers(c ctx.Ctx, caller domain.Address, thresholds []*big.Int, rates []uint32) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.SetFeeTiers(c, caller, thresholds, rates)
	})
}

func (s *serial) SetDynamicFeeEnabled(c ctx.Ctx, caller domain.Address, enabled bool) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.SetDynamicFeeEnabled(c, caller, enabled)
	})
}

func (s *serial) Pause(c ctx.Ctx, caller domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.Pause(c, caller)
	})
}

func (s *serial) Unpause(c ctx.Ctx, caller domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.Unpause(c, caller)
	})
}

func (s *serial) SetPriceFeed(c ctx.Ctx, caller domain.Address, paymentToken, feed domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.SetPriceFeed(c, caller, paymentToken, feed)
	})
}

func (s *serial) TransferOwnership(c ctx.Ctx, caller, newOwner domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.TransferOwnership(c, caller, newOwner)
	})
}

func (s *serial) SetTreasury(c ctx.Ctx, caller, treasury domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.SetTreasury(c, caller, treasury)
	})
}

func (s *serial) Migrate(c ctx.Ctx, caller, engineAddress domain.Address) error {
	return s.seq.Do(c, func(c ctx.Ctx) error {
		return s.uc.Migrate(c, caller, engineAddress)
	})
}
