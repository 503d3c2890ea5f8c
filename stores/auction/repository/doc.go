package repository

import (
	"math/big"
	"time"

	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

// big integers are stored as decimal strings

type tierDoc struct {
	Threshold string `bson:"threshold"`
	FeeRate   uint32 `bson:"feeRate"`
}

type stateDoc struct {
	Id                   string            `bson:"_id"`
	Version              uint8             `bson:"version"`
	Owner                string            `bson:"owner"`
	Treasury             string            `bson:"treasury"`
	PlatformFee          uint32            `bson:"platformFee"`
	UseDynamicFee        bool              `bson:"useDynamicFee"`
	BaseRate             uint32            `bson:"baseRate"`
	Tiers                []tierDoc         `bson:"tiers"`
	Paused               bool              `bson:"paused"`
	PriceFeeds           map[string]string `bson:"priceFeeds"`
	TotalAuctionsCreated uint64            `bson:"totalAuctionsCreated"`
	TotalBidsPlaced      uint64            `bson:"totalBidsPlaced"`
	AuctionCount         uint64            `bson:"auctionCount"`
	UpdatedAt            time.Time         `bson:"updatedAt"`
}

type settlementDoc struct {
	Winner       string    `bson:"winner"`
	FinalBid     string    `bson:"finalBid"`
	PaymentToken string    `bson:"paymentToken"`
	FeeRate      uint32    `bson:"feeRate"`
	FeeValue     string    `bson:"feeValue"`
	FeeAmount    string    `bson:"feeAmount"`
	SellerAmount string    `bson:"sellerAmount"`
	SettledAt    time.Time `bson:"settledAt"`
	Forced       bool      `bson:"forced"`
}

type auctionDoc struct {
	Engine          string         `bson:"engine"`
	AuctionId       uint64         `bson:"auctionId"`
	NftAddress      string         `bson:"nftAddress"`
	TokenId         string         `bson:"tokenId"`
	Seller          string         `bson:"seller"`
	StartPrice      string         `bson:"startPrice"`
	StartTime       time.Time      `bson:"startTime"`
	EndTime         time.Time      `bson:"endTime"`
	Ended           bool           `bson:"ended"`
	HighestBidder   string         `bson:"highestBidder"`
	HighestBid      string         `bson:"highestBid"`
	HighestBidToken string         `bson:"highestBidToken"`
	HighestBidValue string         `bson:"highestBidValue"`
	BidCount        uint64         `bson:"bidCount"`
	Halted          bool           `bson:"halted"`
	Settlement      *settlementDoc `bson:"settlement,omitempty"`
}

type auctionKey struct {
	Engine    string `bson:"engine"`
	AuctionId uint64 `bson:"auctionId"`
}

func bigStr(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, domain.ErrInvalidNumberFormat
	}
	return n, nil
}

func toStateDoc(s *auction.State, now time.Time) *stateDoc {
	doc := &stateDoc{
		Id:                   s.EngineAddress.ToLowerStr(),
		Version:              uint8(s.Version),
		Owner:                s.Config.Owner.String(),
		Treasury:             s.Config.Treasury.String(),
		PlatformFee:          s.Config.PlatformFee,
		UseDynamicFee:        s.Config.UseDynamicFee,
		BaseRate:             s.Config.FeeSchedule.BaseRate,
		Tiers:                []tierDoc{},
		Paused:               s.Config.Paused,
		PriceFeeds:           map[string]string{},
		TotalAuctionsCreated: s.TotalAuctionsCreated,
		TotalBidsPlaced:      s.TotalBidsPlaced,
		AuctionCount:         uint64(len(s.Auctions)),
		UpdatedAt:            now,
	}
	for _, t := range s.Config.FeeSchedule.Tiers {
		doc.Tiers = append(doc.Tiers, tierDoc{Threshold: bigStr(t.Threshold), FeeRate: t.FeeRate})
	}
	for asset, feed := range s.PriceFeeds {
		doc.PriceFeeds[asset.ToLowerStr()] = feed.ToLowerStr()
	}
	return doc
}

func (d *stateDoc) toState() (*auction.State, error) {
	s := auction.NewState(domain.Address(d.Id), auction.Config{
		Owner:         domain.Address(d.Owner),
		Treasury:      domain.Address(d.Treasury),
		PlatformFee:   d.PlatformFee,
		UseDynamicFee: d.UseDynamicFee,
		Paused:        d.Paused,
	})
	s.Version = auction.Version(d.Version)
	s.TotalAuctionsCreated = d.TotalAuctionsCreated
	s.TotalBidsPlaced = d.TotalBidsPlaced
	if len(d.Tiers) > 0 {
		s.Config.FeeSchedule.BaseRate = d.BaseRate
		for _, t := range d.Tiers {
			threshold, err := parseBig(t.Threshold)
			if err != nil {
				return nil, err
			}
			s.Config.FeeSchedule.Tiers = append(s.Config.FeeSchedule.Tiers, auction.FeeTier{Threshold: threshold, FeeRate: t.FeeRate})
		}
	}
	for asset, feed := range d.PriceFeeds {
		s.PriceFeeds[domain.Address(asset)] = domain.Address(feed)
	}
	return s, nil
}

func toAuctionDoc(engine domain.Address, a *auction.Auction) *auctionDoc {
	doc := &auctionDoc{
		Engine:          engine.ToLowerStr(),
		AuctionId:       a.Id,
		NftAddress:      a.NftAddress.ToLowerStr(),
		TokenId:         bigStr(a.TokenId),
		Seller:          a.Seller.String(),
		StartPrice:      bigStr(a.StartPrice),
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		Ended:           a.Ended,
		HighestBidder:   a.HighestBidder.String(),
		HighestBid:      bigStr(a.HighestBid),
		HighestBidToken: a.HighestBidToken.ToLowerStr(),
		HighestBidValue: bigStr(a.HighestBidValue),
		BidCount:        a.BidCount,
		Halted:          a.Halted,
	}
	if s := a.Settlement; s != nil {
		doc.Settlement = &settlementDoc{
			Winner:       s.Winner.String(),
			FinalBid:     bigStr(s.FinalBid),
			PaymentToken: s.PaymentToken.ToLowerStr(),
			FeeRate:      s.FeeRate,
			FeeValue:     bigStr(s.FeeValue),
			FeeAmount:    bigStr(s.FeeAmount),
			SellerAmount: bigStr(s.SellerAmount),
			SettledAt:    s.SettledAt,
			Forced:       s.Forced,
		}
	}
	return doc
}

func (d *auctionDoc) toAuction() (*auction.Auction, error) {
	nums, err := domain.ToBigInt([]string{d.TokenId, d.StartPrice, d.HighestBid, d.HighestBidValue})
	if err != nil {
		return nil, err
	}
	a := &auction.Auction{
		Id:              d.AuctionId,
		NftAddress:      domain.Address(d.NftAddress),
		TokenId:         nums[0],
		Seller:          domain.Address(d.Seller),
		StartPrice:      nums[1],
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		Ended:           d.Ended,
		HighestBidder:   domain.Address(d.HighestBidder),
		HighestBid:      nums[2],
		HighestBidToken: domain.Address(d.HighestBidToken),
		HighestBidValue: nums[3],
		BidCount:        d.BidCount,
		Halted:          d.Halted,
	}
	if s := d.Settlement; s != nil {
		nums, err := domain.ToBigInt([]string{s.FinalBid, s.FeeValue, s.FeeAmount, s.SellerAmount})
		if err != nil {
			return nil, err
		}
		a.Settlement = &auction.Settlement{
			Winner:       domain.Address(s.Winner),
			FinalBid:     nums[0],
			PaymentToken: domain.Address(s.PaymentToken),
			FeeRate:      s.FeeRate,
			FeeValue:     nums[1],
			FeeAmount:    nums[2],
			SellerAmount: nums[3],
			SettledAt:    s.SettledAt,
			Forced:       s.Forced,
		}
	}
	return a, nil
}
