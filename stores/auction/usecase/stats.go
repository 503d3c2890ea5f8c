package usecase

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

func (im *impl) requireV2() error {
	if im.state.Version < auction.Version2 {
		return domain.ErrUnsupportedVersion
	}
	return nil
}

func (im *impl) GetAuction(c ctx.Ctx, id uint64) (*auction.Auction, error) {
	a, ok := im.state.Get(id)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

func (im *impl) GetAuctionCount(c ctx.Ctx) (uint64, error) {
	return uint64(len(im.state.Auctions)), nil
}

// GetAuctionsBatch returns up to count auctions from start, clamped to the existing range
func (im *impl) GetAuctionsBatch(c ctx.Ctx, start, count uint64) ([]*auction.Auction, error) {
	if err := im.requireV2(); err != nil {
		return nil, err
	}
	total := uint64(len(im.state.Auctions))
	if start >= total {
		return []*auction.Auction{}, nil
	}
	end := total
	if count < total-start {
		end = start + count
	}
	res := make([]*auction.Auction, 0, end-start)
	for _, a := range im.state.Auctions[start:end] {
		res = append(res, a.Clone())
	}
	return res, nil
}

func (im *impl) GetAuctionBidCount(c ctx.Ctx, id uint64) (uint64, error) {
	if err := im.requireV2(); err != nil {
		return 0, err
	}
	a, ok := im.state.Get(id)
	if !ok {
		return 0, domain.ErrAuctionNotFound
	}
	return a.BidCount, nil
}

func (im *impl) GetAuctionStats(c ctx.Ctx) (*auction.Stats, error) {
	if err := im.requireV2(); err != nil {
		return nil, err
	}
	st := im.state
	res := &auction.Stats{
		TotalAuctions:      st.TotalAuctionsCreated,
		TotalBids:          st.TotalBidsPlaced,
		CurrentPlatformFee: st.Config.PlatformFee,
		IsPaused:           st.Config.Paused,
	}
	for _, a := range st.Auctions {
		if !a.Ended {
			res.ActiveAuctions++
		}
	}
	return res, nil
}

// AwaitingSettlement lists auctions past their end time that nobody claimed yet
func (im *impl) AwaitingSettlement(c ctx.Ctx, limit int) ([]uint64, error) {
	now := im.now()
	res := []uint64{}
	for _, a := range im.state.Auctions {
		if limit > 0 && len(res) >= limit {
			break
		}
		if a.Status(now) == auction.StatusAwaitingSettlement {
			res = append(res, a.Id)
		}
	}
	return res, nil
}

func (im *impl) CalculateFeeRate(c ctx.Ctx, value *big.Int) (uint32, error) {
	if value == nil || value.Sign() < 0 {
		return 0, domain.ErrBadParamInput
	}
	return im.state.Config.FeeRate(value), nil
}

func (im *impl) PlatformFee(c ctx.Ctx) (uint32, error) {
	return im.state.Config.PlatformFee, nil
}

func (im *impl) UseDynamicFee(c ctx.Ctx) (bool, error) {
	return im.state.Config.UseDynamicFee, nil
}

func (im *impl) BaseFeeRate(c ctx.Ctx) (uint32, error) {
	return im.state.Config.FeeSchedule.BaseRate, nil
}

func (im *impl) GetFeeTierCount(c ctx.Ctx) (int, error) {
	return len(im.state.Config.FeeSchedule.Tiers), nil
}

func (im *impl) GetAllFeeTiers(c ctx.Ctx) ([]*big.Int, []uint32, error) {
	s := im.state.Config.FeeSchedule
	return s.Thresholds(), s.Rates(), nil
}

func (im *impl) PriceFeed(c ctx.Ctx, paymentToken domain.Address) (domain.Address, error) {
	feed, ok := im.state.FeedOf(paymentToken)
	if !ok {
		return "", domain.ErrUnsupportedAsset
	}
	return feed, nil
}

func (im *impl) Owner(c ctx.Ctx) (domain.Address, error) {
	return im.state.Config.Owner, nil
}

func (im *impl) Paused(c ctx.Ctx) (bool, error) {
	return im.state.Config.Paused, nil
}

func (im *impl) Version(c ctx.Ctx) (auction.Version, error) {
	return im.state.Version, nil
}
