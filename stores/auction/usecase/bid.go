package usecase

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

func (im *impl) PlaceBid(c ctx.Ctx, bidder domain.Address, id uint64, amount *big.Int, paymentToken domain.Address) error {
	return im.mutate(c, "placeBid", func(u *unit) error {
		a, err := u.auction(id)
		if err != nil {
			return err
		}
		switch {
		case a.Ended:
			return domain.ErrAuctionAlreadyEnded
		case u.now.Before(a.StartTime):
			return domain.ErrAuctionNotStarted
		case !u.now.Before(a.EndTime):
			return domain.ErrAuctionExpired
		case u.st.Config.Paused:
			return domain.ErrPaused
		case amount == nil || amount.Sign() <= 0:
			return domain.ErrZeroAmount
		case bidder.Equals(a.Seller):
			return domain.ErrSellerCannotBid
		}

		value, err := im.toUSD(u.c, u.st, u.now, paymentToken, amount)
		if err != nil {
			return err
		}
		if value.Cmp(a.MinimumAcceptable()) <= 0 {
			u.c.WithFields(log.Fields{
				"valueUsd":   auction.FormatUSD(value),
				"minimumUsd": auction.FormatUSD(a.MinimumAcceptable()),
			}).Info("bid too low")
			return domain.ErrBidTooLow
		}

		// collect runs last so nothing after it needs compensating
		prev := a
		if prev.HasBid() {
			if err := u.payout(prev.HighestBidToken, prev.HighestBidder, prev.HighestBid); err != nil {
				u.c.WithFields(log.Fields{"err": err, "bidder": prev.HighestBidder}).Error("refund failed")
				return domain.ErrTransferFailed
			}
		}
		if err := u.collect(bidder, paymentToken, amount); err != nil {
			return err
		}

		next := u.touch(id)
		next.HighestBidder = bidder
		next.HighestBid = new(big.Int).Set(amount)
		next.HighestBidToken = paymentToken.ToLower()
		next.HighestBidValue = value
		next.BidCount++
		u.st.TotalBidsPlaced++

		u.emit(auction.NewEvent(auction.EventBidPlaced, bidder, u.now, map[string]interface{}{
			"amount":       amount.String(),
			"paymentToken": paymentToken.ToLowerStr(),
			"value":        value.String(),
			"valueUsd":     auction.FormatUSD(value),
		}).For(id))
		if prev.HasBid() {
			u.emit(auction.NewEvent(auction.EventBidRefunded, prev.HighestBidder, u.now, map[string]interface{}{
				"amount":       prev.HighestBid.String(),
				"paymentToken": prev.HighestBidToken.ToLowerStr(),
			}).For(id))
		}
		im.met.BumpSum("bid.placed", 1, "paymentToken", paymentToken.ToLowerStr())
		return nil
	})
}

// collect moves a bid into engine custody
func (u *unit) collect(bidder, paymentToken domain.Address, amount *big.Int) error {
	if paymentToken.IsNative() {
		return u.moveNative(bidder, u.st.EngineAddress, amount)
	}
	reg, err := u.im.registries.Fungible(u.c, paymentToken)
	if err != nil {
		return domain.ErrUnsupportedAsset
	}
	return u.pullToken(reg, bidder, amount)
}
