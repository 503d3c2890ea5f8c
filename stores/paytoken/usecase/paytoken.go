package usecase

import (
	"errors"

	bCtx "github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

type payTokenUseCaseImpl struct {
	repo      domain.PayTokenRepo
	registrar auction.FeedRegistrar
}

func NewPayTokenUseCase(repo domain.PayTokenRepo, registrar auction.FeedRegistrar) domain.PayTokenUseCase {
	return &payTokenUseCaseImpl{repo: repo, registrar: registrar}
}

// SyncPriceFeeds returns the number of feeds it registered or replaced.
// Disabled tokens and tokens without a proxy are left alone.
func (im *payTokenUseCaseImpl) SyncPriceFeeds(ctx bCtx.Ctx, chainId domain.ChainId, caller domain.Address) (int, error) {
	tokens, err := im.repo.FindAll(ctx, chainId)
	if err != nil {
		ctx.WithField("err", err).Error("repo.FindAll failed")
		return 0, err
	}

	updated := 0
	for _, t := range tokens {
		if t.Disabled || t.ChainlinkProxyAddress.IsEmpty() {
			continue
		}
		logger := ctx.WithFields(log.Fields{"token": t.Address, "symbol": t.Symbol, "feed": t.ChainlinkProxyAddress})

		current, err := im.registrar.PriceFeed(ctx, t.Address)
		if err == nil && current.Equals(t.ChainlinkProxyAddress) {
			continue
		} else if err != nil && !errors.Is(err, domain.ErrUnsupportedAsset) {
			logger.WithField("err", err).Error("registrar.PriceFeed failed")
			return updated, err
		}

		if err := im.registrar.SetPriceFeed(ctx, caller, t.Address, t.ChainlinkProxyAddress); err != nil {
			logger.WithField("err", err).Error("registrar.SetPriceFeed failed")
			return updated, err
		}
		logger.Info("price feed registered")
		updated++
	}
	return updated, nil
}
