package usecase

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/base/validator"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

func (im *impl) CreateAuction(c ctx.Ctx, seller domain.Address, p auction.CreateAuctionParams) (uint64, error) {
	var id uint64
	err := im.mutate(c, "createAuction", func(u *unit) error {
		if err := validator.Struct(p); err != nil {
			return xerrors.Errorf("%v: %w", err, domain.ErrBadParamInput)
		}
		if seller.IsEmpty() || p.TokenId.Sign() < 0 || p.StartPrice.Sign() < 0 {
			return domain.ErrBadParamInput
		}
		if !p.EndTime.After(p.StartTime) {
			return domain.ErrInvalidTimeRange
		}
		if p.StartTime.Before(u.now.Add(-u.st.Config.StartTimeTolerance)) {
			return domain.ErrInvalidTimeRange
		}
		if u.st.Config.Paused {
			return domain.ErrPaused
		}

		reg, err := im.registries.Asset(u.c, p.NftAddress)
		if err != nil {
			return xerrors.Errorf("%v: %w", err, domain.ErrBadParamInput)
		}
		owner, err := reg.OwnerOf(u.c, p.TokenId)
		if err != nil {
			u.c.WithFields(log.Fields{"err": err, "nft": p.NftAddress, "tokenId": p.TokenId}).Warn("reg.OwnerOf failed")
			return xerrors.Errorf("%v: %w", err, domain.ErrNotAssetOwner)
		}
		if !owner.Equals(seller) {
			return domain.ErrNotAssetOwner
		}
		engine := u.st.EngineAddress
		approved, err := reg.IsApproved(u.c, seller, engine, p.TokenId)
		if err != nil {
			return transferErr(err)
		}
		if !approved {
			return domain.ErrNotApproved
		}
		if err := u.moveAsset(reg, seller, engine, p.TokenId); err != nil {
			return err
		}

		id = u.st.NextId()
		u.st.Auctions = append(u.st.Auctions, &auction.Auction{
			Id:              id,
			NftAddress:      p.NftAddress.ToLower(),
			TokenId:         new(big.Int).Set(p.TokenId),
			Seller:          seller,
			StartPrice:      new(big.Int).Set(p.StartPrice),
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			HighestBid:      new(big.Int),
			HighestBidValue: new(big.Int),
		})
		u.touched = append(u.touched, id)
		u.markChanged()
		u.st.TotalAuctionsCreated++

		u.emit(auction.NewEvent(auction.EventAuctionCreated, seller, u.now, map[string]interface{}{
			"nftAddress": p.NftAddress.ToLowerStr(),
			"tokenId":    p.TokenId.String(),
			"startPrice": p.StartPrice.String(),
			"startTime":  p.StartTime,
			"endTime":    p.EndTime,
		}).For(id))
		im.met.BumpSum("auction.created", 1)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (im *impl) EndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error {
	return im.mutate(c, "endAuctionAndClaim", func(u *unit) error {
		if u.st.Config.Paused {
			return domain.ErrPaused
		}
		a, err := u.auction(id)
		if err != nil {
			return err
		}
		if a.Ended {
			return domain.ErrAuctionAlreadyEnded
		}
		if u.now.Before(a.EndTime) && !u.canCloseEarly(caller, a) {
			return domain.ErrAuctionNotYetEnded
		}
		return u.settle(id, caller, false)
	})
}

// canCloseEarly allows the seller or the owner to close an auction nobody bid on
func (u *unit) canCloseEarly(caller domain.Address, a *auction.Auction) bool {
	if !u.st.Config.AllowEarlyClose || a.HasBid() {
		return false
	}
	return caller.Equals(a.Seller) || caller.Equals(u.st.Config.Owner)
}

func (im *impl) ForceEndAuctionAndClaim(c ctx.Ctx, caller domain.Address, id uint64) error {
	return im.mutate(c, "forceEndAuctionAndClaim", func(u *unit) error {
		if err := u.requireV2(); err != nil {
			return err
		}
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		a, err := u.auction(id)
		if err != nil {
			return err
		}
		if a.Ended {
			return domain.ErrAuctionAlreadyEnded
		}
		// a pending auction keeps its times so EndTime stays after StartTime
		if u.now.After(a.StartTime) && u.now.Before(a.EndTime) {
			u.touch(id).EndTime = u.now
		}
		u.emit(auction.NewEvent(auction.EventAuctionForceEnded, caller, u.now, map[string]interface{}{
			"endedBy": caller.ToLowerStr(),
		}).For(id))
		return u.settle(id, caller, true)
	})
}

// settle ends auction id: the asset goes to the winner and the final bid is
// split between treasury and seller, or the asset returns to the seller.
func (u *unit) settle(id uint64, caller domain.Address, forced bool) error {
	a := u.touch(id)
	engine := u.st.EngineAddress
	reg, err := u.im.registries.Asset(u.c, a.NftAddress)
	if err != nil {
		return transferErr(err)
	}

	s := &auction.Settlement{
		PaymentToken: a.HighestBidToken,
		FinalBid:     new(big.Int),
		FeeValue:     new(big.Int),
		FeeAmount:    new(big.Int),
		SellerAmount: new(big.Int),
		SettledAt:    u.now,
		Forced:       forced,
	}
	outcome := "unsold"
	if !a.HasBid() {
		if err := u.moveAsset(reg, engine, a.Seller, a.TokenId); err != nil {
			return err
		}
	} else {
		rate := u.st.Config.FeeRate(a.HighestBidValue)
		fee := auction.ComputeFee(rate, a.HighestBid, a.HighestBidValue)
		if err := u.payout(a.HighestBidToken, u.st.Config.Treasury, fee.FeeAmount); err != nil {
			return err
		}
		if err := u.payout(a.HighestBidToken, a.Seller, fee.SellerAmount); err != nil {
			return err
		}
		if err := u.moveAsset(reg, engine, a.HighestBidder, a.TokenId); err != nil {
			return err
		}
		s.Winner = a.HighestBidder
		s.FinalBid.Set(a.HighestBid)
		s.FeeRate = fee.Rate
		s.FeeValue = fee.FeeValue
		s.FeeAmount = fee.FeeAmount
		s.SellerAmount = fee.SellerAmount
		outcome = "won"
	}
	a.Ended = true
	a.Settlement = s

	u.emit(auction.NewEvent(auction.EventAuctionEnded, caller, u.now, map[string]interface{}{
		"winner":       s.Winner.ToLowerStr(),
		"finalBid":     s.FinalBid.String(),
		"paymentToken": s.PaymentToken.ToLowerStr(),
		"feeRate":      s.FeeRate,
		"feeRatePct":   auction.FormatRate(s.FeeRate),
		"feeValueUsd":  auction.FormatUSD(s.FeeValue),
		"feeAmount":    s.FeeAmount.String(),
		"sellerAmount": s.SellerAmount.String(),
		"forced":       forced,
	}).For(id))
	u.im.met.BumpSum("auction.settled", 1, "outcome", outcome)
	return nil
}
