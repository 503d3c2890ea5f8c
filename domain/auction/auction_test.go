package auction

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auction/domain"
)

var (
	seller = domain.Address("0x00000000000000000000000000000000000000a1")
	bidder = domain.Address("0x00000000000000000000000000000000000000b1")
	nft    = domain.Address("0x00000000000000000000000000000000000000c1")
)

type AuctionTestSuite struct {
	suite.Suite
	now time.Time
}

func TestAuctionTestSuite(t *testing.T) {
	suite.Run(t, new(AuctionTestSuite))
}

func (s *AuctionTestSuite) SetupTest() {
	s.now = time.Unix(1700000000, 0)
}

func (s *AuctionTestSuite) newAuction() *Auction {
	return &Auction{
		NftAddress:      nft,
		TokenId:         big.NewInt(1),
		Seller:          seller,
		StartPrice:      big.NewInt(100),
		StartTime:       s.now,
		EndTime:         s.now.Add(time.Hour),
		HighestBid:      big.NewInt(0),
		HighestBidValue: big.NewInt(0),
	}
}

func (s *AuctionTestSuite) TestStatus() {
	a := s.newAuction()
	s.Equal(StatusPending, a.Status(s.now.Add(-time.Second)))
	s.Equal(StatusOpen, a.Status(s.now))
	s.Equal(StatusOpen, a.Status(s.now.Add(time.Hour-time.Second)))
	s.Equal(StatusAwaitingSettlement, a.Status(s.now.Add(time.Hour)))

	a.Ended = true
	s.Equal(StatusSettledUnsold, a.Status(s.now.Add(time.Hour)))
	a.HighestBidder = bidder
	s.Equal(StatusSettledWon, a.Status(s.now.Add(time.Hour)))
	a.Halted = true
	s.Equal(StatusHalted, a.Status(s.now))
}

func (s *AuctionTestSuite) TestMinimumAcceptable() {
	a := s.newAuction()
	s.Equal(int64(100), a.MinimumAcceptable().Int64())
	a.HighestBidValue = big.NewInt(150)
	s.Equal(int64(150), a.MinimumAcceptable().Int64())
}

func (s *AuctionTestSuite) TestCloneIsDeep() {
	a := s.newAuction()
	a.Settlement = &Settlement{FinalBid: big.NewInt(5), FeeAmount: big.NewInt(1), SellerAmount: big.NewInt(4), FeeValue: big.NewInt(1)}
	cp := a.Clone()
	cp.HighestBidValue.SetInt64(999)
	cp.Settlement.FinalBid.SetInt64(6)
	cp.Ended = true
	s.Equal(int64(0), a.HighestBidValue.Int64())
	s.Equal(int64(5), a.Settlement.FinalBid.Int64())
	s.False(a.Ended)
}

func (s *AuctionTestSuite) TestStateCopyOnWrite() {
	st := NewState("0x00000000000000000000000000000000000000e1", Config{})
	st.Auctions = append(st.Auctions, s.newAuction(), s.newAuction())
	st.PriceFeeds[domain.NativeAsset] = "0x694aa1769357215de4fac081bf1f309adc325306"

	cp := st.Clone()
	s.Same(st.Auctions[0], cp.Auctions[0])

	touched := cp.Touch(1)
	touched.BidCount = 3
	cp.Auctions = append(cp.Auctions, s.newAuction())
	cp.PriceFeeds["0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"] = "0xa2f78ab2355fe2f984d808b5cee7fd0a93d5270e"
	cp.TotalBidsPlaced++

	s.Len(st.Auctions, 2)
	s.Equal(uint64(0), st.Auctions[1].BidCount)
	s.Len(st.PriceFeeds, 1)
	s.Equal(uint64(0), st.TotalBidsPlaced)
	s.Equal(uint64(3), cp.NextId())

	feed, ok := cp.FeedOf("0x1C7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	s.True(ok)
	s.Equal(domain.Address("0xa2f78ab2355fe2f984d808b5cee7fd0a93d5270e"), feed)

	_, ok = st.Get(2)
	s.False(ok)
}

func (s *AuctionTestSuite) TestFormat() {
	s.Equal("3000.00", FormatUSD(big.NewInt(300000000000)))
	s.Equal("0.00", FormatUSD(nil))
	s.Equal("1.5", FormatAmount(big.NewInt(1500000), 6))
	s.Equal("2.5%", FormatRate(250))

	v, err := ParseUSD("1000")
	s.Require().NoError(err)
	s.Equal("100000000000", v.String())
	_, err = ParseUSD("abc")
	s.Error(err)
}
