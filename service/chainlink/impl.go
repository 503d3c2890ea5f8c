package chainlink

import (
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/x-xyz/auction/base/abi"
	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/keys"
	"github.com/x-xyz/auction/service/cache"
	"github.com/x-xyz/auction/service/cache/provider/primitive"
	"github.com/x-xyz/auction/service/chain"
)

const (
	defaultQuoteTtl = 30 * time.Second
	decimalsTtl     = 24 * time.Hour
)

type impl struct {
	chainId       domain.ChainId
	chainClient   chain.Client
	quoteCache    cache.Service
	decimalsCache cache.Service
}

// New returns a PriceReference reading AggregatorV3 feeds through chainClient
func New(chainClient chain.Client, cfg Config) domain.PriceReference {
	if cfg.Cache == nil {
		cfg.Cache = primitive.NewPrimitive("chainlink_cache", 8)
	}
	if cfg.QuoteTtl <= 0 {
		cfg.QuoteTtl = defaultQuoteTtl
	}
	return &impl{
		chainId:     cfg.ChainId,
		chainClient: chainClient,
		quoteCache: cache.New(cache.ServiceConfig{
			Ttl:   cfg.QuoteTtl,
			Pfx:   keys.PfxPriceQuote,
			Cache: cfg.Cache,
		}),
		decimalsCache: cache.New(cache.ServiceConfig{
			Ttl:   decimalsTtl,
			Pfx:   keys.PfxFeedDecimals,
			Cache: cfg.Cache,
		}),
	}
}

func (im *impl) key(feed domain.Address) string {
	return keys.RedisKey(strconv.Itoa(int(im.chainId)), feed.ToLowerStr())
}

func (im *impl) LatestUnitPrice(c ctx.Ctx, feed domain.Address) (domain.Quote, error) {
	var res domain.Quote

	if err := im.quoteCache.GetByFunc(c, im.key(feed), &res, func() (interface{}, error) {
		return im.latestRoundData(c, feed)
	}); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"chainId": im.chainId,
			"feed":    feed,
		}).Error("latestRoundData failed")
		return domain.Quote{}, err
	}

	return res, nil
}

func (im *impl) latestRoundData(c ctx.Ctx, feed domain.Address) (*domain.Quote, error) {
	decimals, err := im.decimals(c, feed)
	if err != nil {
		return nil, err
	}

	res, err := im.chainClient.Call(c, int32(im.chainId), common.HexToAddress(string(feed)), nil, abi.ChainlinkFeedABI, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(res) != 5 {
		return nil, ErrInvalidAnswer
	}
	answer, ok := res[1].(*big.Int)
	if !ok {
		return nil, ErrInvalidAnswer
	}
	updatedAt, ok := res[3].(*big.Int)
	if !ok {
		return nil, ErrInvalidAnswer
	}

	return &domain.Quote{
		Price:     answer,
		Decimals:  decimals,
		UpdatedAt: time.Unix(updatedAt.Int64(), 0),
	}, nil
}

func (im *impl) decimals(c ctx.Ctx, feed domain.Address) (uint8, error) {
	var res uint8

	if err := im.decimalsCache.GetByFunc(c, im.key(feed), &res, func() (interface{}, error) {
		out, err := im.chainClient.Call(c, int32(im.chainId), common.HexToAddress(string(feed)), nil, abi.ChainlinkFeedABI, "decimals")
		if err != nil {
			return nil, err
		}
		if len(out) != 1 {
			return nil, ErrInvalidAnswer
		}
		d, ok := out[0].(uint8)
		if !ok {
			return nil, ErrInvalidAnswer
		}
		return &d, nil
	}); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"chainId": im.chainId,
			"feed":    feed,
		}).Error("decimals failed")
		return 0, err
	}

	return res, nil
}
