package usecase

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

func (im *impl) SetPlatformFee(c ctx.Ctx, caller domain.Address, rate uint32) error {
	return im.mutate(c, "setPlatformFee", func(u *unit) error {
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if rate > auction.MaxFeeRate {
			return domain.ErrInvalidFeeRate
		}
		old := u.st.Config.PlatformFee
		u.st.Config.PlatformFee = rate
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventPlatformFeeUpdated, caller, u.now, map[string]interface{}{
			"old": old,
			"new": rate,
		}))
		return nil
	})
}

func (im *impl) SetFeeTiers(c ctx.Ctx, caller domain.Address, thresholds []*big.Int, rates []uint32) error {
	return im.mutate(c, "setFeeTiers", func(u *unit) error {
		if err := u.requireV2(); err != nil {
			return err
		}
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		schedule, err := auction.NewFeeSchedule(thresholds, rates)
		if err != nil {
			u.c.WithFields(log.Fields{"thresholds": thresholds, "rates": rates}).Info("invalid fee schedule")
			return err
		}
		u.st.Config.FeeSchedule = schedule
		u.markChanged()

		ts := make([]string, len(thresholds))
		tiers := []string{"base=" + auction.FormatRate(schedule.BaseRate)}
		for i, t := range schedule.Tiers {
			ts[i] = t.Threshold.String()
			tiers = append(tiers, "$"+auction.FormatUSD(t.Threshold)+"="+auction.FormatRate(t.FeeRate))
		}
		u.c.WithField("tiers", tiers).Info("fee tiers updated")
		u.emit(auction.NewEvent(auction.EventFeeTiersUpdated, caller, u.now, map[string]interface{}{
			"thresholds": ts,
			"rates":      rates,
		}))
		u.toggleDynamicFee(caller, true)
		return nil
	})
}

func (im *impl) SetDynamicFeeEnabled(c ctx.Ctx, caller domain.Address, enabled bool) error {
	return im.mutate(c, "setDynamicFeeEnabled", func(u *unit) error {
		if err := u.requireV2(); err != nil {
			return err
		}
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		u.toggleDynamicFee(caller, enabled)
		return nil
	})
}

func (u *unit) toggleDynamicFee(caller domain.Address, enabled bool) {
	if u.st.Config.UseDynamicFee == enabled {
		return
	}
	u.st.Config.UseDynamicFee = enabled
	u.markChanged()
	u.emit(auction.NewEvent(auction.EventDynamicFeeToggled, caller, u.now, map[string]interface{}{
		"enabled": enabled,
	}))
}

func (im *impl) Pause(c ctx.Ctx, caller domain.Address) error {
	return im.mutate(c, "pause", func(u *unit) error {
		if err := u.requireV2(); err != nil {
			return err
		}
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if u.st.Config.Paused {
			return domain.ErrAlreadyPaused
		}
		u.st.Config.Paused = true
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventPaused, caller, u.now, nil))
		return nil
	})
}

func (im *impl) Unpause(c ctx.Ctx, caller domain.Address) error {
	return im.mutate(c, "unpause", func(u *unit) error {
		if err := u.requireV2(); err != nil {
			return err
		}
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if !u.st.Config.Paused {
			return domain.ErrNotPaused
		}
		u.st.Config.Paused = false
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventUnpaused, caller, u.now, nil))
		return nil
	})
}

func (im *impl) SetPriceFeed(c ctx.Ctx, caller domain.Address, paymentToken, feed domain.Address) error {
	return im.mutate(c, "setPriceFeed", func(u *unit) error {
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if paymentToken.IsEmpty() || feed.IsEmpty() || feed.IsNative() {
			return domain.ErrBadParamInput
		}
		u.st.PriceFeeds[paymentToken.ToLower()] = feed.ToLower()
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventPriceFeedUpdated, caller, u.now, map[string]interface{}{
			"paymentToken": paymentToken.ToLowerStr(),
			"feed":         feed.ToLowerStr(),
		}))
		return nil
	})
}

func (im *impl) TransferOwnership(c ctx.Ctx, caller, newOwner domain.Address) error {
	return im.mutate(c, "transferOwnership", func(u *unit) error {
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if newOwner.IsEmpty() || newOwner.Equals(domain.EmptyAddress) {
			return domain.ErrBadParamInput
		}
		old := u.st.Config.Owner
		u.st.Config.Owner = newOwner
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventOwnershipTransferred, caller, u.now, map[string]interface{}{
			"previousOwner": old.ToLowerStr(),
			"newOwner":      newOwner.ToLowerStr(),
		}))
		return nil
	})
}

func (im *impl) SetTreasury(c ctx.Ctx, caller, treasury domain.Address) error {
	return im.mutate(c, "setTreasury", func(u *unit) error {
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if treasury.IsEmpty() || treasury.Equals(domain.EmptyAddress) {
			return domain.ErrBadParamInput
		}
		old := u.st.Config.Treasury
		u.st.Config.Treasury = treasury
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventTreasuryUpdated, caller, u.now, map[string]interface{}{
			"old": old.ToLowerStr(),
			"new": treasury.ToLowerStr(),
		}))
		return nil
	})
}

// Migrate upgrades a version 1 state in place. It is a no-op on version 2.
func (im *impl) Migrate(c ctx.Ctx, caller, engineAddress domain.Address) error {
	return im.mutate(c, "migrate", func(u *unit) error {
		if err := u.onlyOwner(caller); err != nil {
			return err
		}
		if !u.st.EngineAddress.Equals(engineAddress) {
			u.c.WithFields(log.Fields{
				"stored": u.st.EngineAddress,
				"given":  engineAddress,
			}).Error("engine address mismatch")
			return domain.ErrInvariantViolation
		}
		if u.st.Version >= auction.Version2 {
			return nil
		}

		u.st.Version = auction.Version2
		if u.st.Config.PlatformFee == 0 {
			u.st.Config.PlatformFee = auction.DefaultPlatformFee
		}
		if n := uint64(len(u.st.Auctions)); u.st.TotalAuctionsCreated < n {
			u.st.TotalAuctionsCreated = n
		}
		u.markChanged()
		u.emit(auction.NewEvent(auction.EventEngineUpgraded, caller, u.now, map[string]interface{}{
			"version":     int(auction.Version2),
			"platformFee": u.st.Config.PlatformFee,
		}))
		u.c.WithField("auctions", len(u.st.Auctions)).Info("engine migrated")
		return nil
	})
}
