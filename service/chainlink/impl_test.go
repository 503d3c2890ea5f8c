package chainlink

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/service/cache/provider/primitive"
	chainMocks "github.com/x-xyz/auction/service/chain/mocks"
)

var (
	mockCTX = ctx.Background()

	sepolia = domain.ChainId(11155111)
	ethFeed = domain.Address("0x694AA1769357215DE4FAC081bf1f309aDC325306")
	usdFeed = domain.Address("0xA2F78ab2355fe2f984D808B5CeE7FD0A93D5270E")
)

type testsuite struct {
	suite.Suite
	chainClient *chainMocks.Client
	im          domain.PriceReference
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (t *testsuite) SetupTest() {
	t.chainClient = &chainMocks.Client{}
	t.im = New(t.chainClient, Config{
		ChainId:  sepolia,
		Cache:    primitive.NewPrimitive("test", 1),
		QuoteTtl: time.Minute,
	})
}

func (t *testsuite) TearDownTest() {
	t.chainClient.AssertExpectations(t.T())
}

func (t *testsuite) expectCall(feed domain.Address, method string, out []interface{}, err error) *mock.Call {
	return t.chainClient.On("Call", mock.Anything, int32(sepolia), common.HexToAddress(string(feed)), (*big.Int)(nil), mock.Anything, method).Return(out, err)
}

func roundData(answer int64, updatedAt int64) []interface{} {
	return []interface{}{big.NewInt(18446744073709), big.NewInt(answer), big.NewInt(updatedAt), big.NewInt(updatedAt), big.NewInt(18446744073709)}
}

func (t *testsuite) TestLatestUnitPrice() {
	t.expectCall(ethFeed, "decimals", []interface{}{uint8(8)}, nil).Once()
	t.expectCall(ethFeed, "latestRoundData", roundData(312345000000, 1700000000), nil).Once()

	q, err := t.im.LatestUnitPrice(mockCTX, ethFeed)
	t.Require().NoError(err)
	t.Equal(int64(312345000000), q.Price.Int64())
	t.Equal(uint8(8), q.Decimals)
	t.True(q.UpdatedAt.Equal(time.Unix(1700000000, 0)))

	// served from cache, the chain is not called again
	q, err = t.im.LatestUnitPrice(mockCTX, ethFeed)
	t.Require().NoError(err)
	t.Equal(int64(312345000000), q.Price.Int64())
}

func (t *testsuite) TestFeedsAreCachedSeparately() {
	t.expectCall(ethFeed, "decimals", []interface{}{uint8(8)}, nil).Once()
	t.expectCall(ethFeed, "latestRoundData", roundData(312345000000, 1700000000), nil).Once()
	t.expectCall(usdFeed, "decimals", []interface{}{uint8(8)}, nil).Once()
	t.expectCall(usdFeed, "latestRoundData", roundData(99980000, 1700000000), nil).Once()

	eth, err := t.im.LatestUnitPrice(mockCTX, ethFeed)
	t.Require().NoError(err)
	usd, err := t.im.LatestUnitPrice(mockCTX, usdFeed)
	t.Require().NoError(err)
	t.NotEqual(eth.Price, usd.Price)
}

func (t *testsuite) TestChainError() {
	errRpc := errors.New("rpc down")
	t.expectCall(ethFeed, "decimals", nil, errRpc).Once()

	_, err := t.im.LatestUnitPrice(mockCTX, ethFeed)
	t.Equal(errRpc, err)

	// failures are not cached
	t.expectCall(ethFeed, "decimals", []interface{}{uint8(8)}, nil).Once()
	t.expectCall(ethFeed, "latestRoundData", []interface{}{big.NewInt(1)}, nil).Once()
	_, err = t.im.LatestUnitPrice(mockCTX, ethFeed)
	t.Equal(ErrInvalidAnswer, err)
}
