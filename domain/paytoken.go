package domain

import (
	"github.com/x-xyz/auction/base/ctx"
)

type Id struct {
	ChainId ChainId `bson:"chainId"`
	Address Address `bson:"address"`
}

// PayToken is a payment asset accepted on a chain with its USD price feed
type PayToken struct {
	Name                  string  `bson:"name"`
	Symbol                string  `bson:"symbol"`
	Decimals              int32   `bson:"decimals"` // decimals for chainlink pricefeed
	TokenDecimals         int32   `bson:"tokenDecimals"`
	ChainId               ChainId `bson:"chainId"`
	Address               Address `bson:"address"`
	ChainlinkProxyAddress Address `bson:"chainlinkProxyAddress"`
	Disabled              bool    `bson:"disabled,omitempty"`
}

func (t *PayToken) ToId() *Id {
	return &Id{
		ChainId: t.ChainId,
		Address: t.Address,
	}
}

type PayTokenPatchable struct {
	ChainlinkProxyAddress *Address `bson:"chainlinkProxyAddress,omitempty"`
	Disabled              *bool    `bson:"disabled,omitempty"`
}

type PayTokenRepo interface {
	FindOne(ctx.Ctx, ChainId, Address) (*PayToken, error)
	FindAll(ctx.Ctx, ChainId) ([]*PayToken, error)
	Upsert(ctx.Ctx, *PayToken) error
	Patch(ctx.Ctx, *Id, *PayTokenPatchable) error
}

type PayTokenUseCase interface {
	// SyncPriceFeeds registers the feed of every enabled pay token of the chain with the engine
	SyncPriceFeeds(c ctx.Ctx, chainId ChainId, caller Address) (int, error)
}
