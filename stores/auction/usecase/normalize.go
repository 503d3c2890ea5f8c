package usecase

import (
	"math/big"
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

var usdScale = domain.Pow10(auction.USDDecimals)

// usdValue is amount*price*10^8 / (10^assetDecimals * 10^priceDecimals), rounded down
func usdValue(amount, price *big.Int, assetDecimals, priceDecimals uint8) *big.Int {
	num := new(big.Int).Mul(amount, price)
	num.Mul(num, usdScale)
	den := new(big.Int).Mul(domain.Pow10(assetDecimals), domain.Pow10(priceDecimals))
	return num.Quo(num, den)
}

func (im *impl) assetDecimals(c ctx.Ctx, paymentToken domain.Address) (uint8, error) {
	if paymentToken.IsNative() {
		return domain.NativeDecimals, nil
	}
	reg, err := im.registries.Fungible(c, paymentToken)
	if err != nil {
		return 0, xerrors.Errorf("%v: %w", err, domain.ErrUnsupportedAsset)
	}
	d, err := reg.Decimals(c)
	if err != nil {
		return 0, xerrors.Errorf("%v: %w", err, domain.ErrUnsupportedAsset)
	}
	return d, nil
}

// toUSD converts amount of paymentToken to the common unit with the feed registered in st
func (im *impl) toUSD(c ctx.Ctx, st *auction.State, now time.Time, paymentToken domain.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, domain.ErrBadParamInput
	}
	feed, ok := st.FeedOf(paymentToken)
	if !ok {
		return nil, domain.ErrUnsupportedAsset
	}
	decimals, err := im.assetDecimals(c, paymentToken)
	if err != nil {
		return nil, err
	}

	q, err := im.prices.LatestUnitPrice(c, feed)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "feed": feed}).Warn("prices.LatestUnitPrice failed")
		return nil, xerrors.Errorf("%v: %w", err, domain.ErrPriceUnavailable)
	}
	if q.Price == nil || q.Price.Sign() <= 0 {
		return nil, domain.ErrPriceUnavailable
	}
	if maxAge := st.Config.MaxPriceAge; maxAge > 0 && now.Sub(q.UpdatedAt) > maxAge {
		c.WithFields(log.Fields{"feed": feed, "updatedAt": q.UpdatedAt}).Warn("stale price")
		return nil, domain.ErrPriceUnavailable
	}
	return usdValue(amount, q.Price, decimals, q.Decimals), nil
}

func (im *impl) ConvertToUSDValue(c ctx.Ctx, paymentToken domain.Address, amount *big.Int) (*big.Int, error) {
	return im.toUSD(c, im.state, im.now(), paymentToken, amount)
}
