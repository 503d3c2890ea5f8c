package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/service/query"
	"github.com/x-xyz/auction/service/query/mocks"
)

var (
	mockCtx     = ctx.Background()
	mockChainId = domain.ChainId(1)
	mockToken   = domain.Address("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	mockFeed    = domain.Address("0x8fFfFfd4AfB6115b954Bd326cbe7B4BA576818f6")
)

type payTokenRepoSuite struct {
	suite.Suite

	q    *mocks.Mongo
	repo domain.PayTokenRepo
}

func TestPayTokenRepoSuite(t *testing.T) {
	suite.Run(t, new(payTokenRepoSuite))
}

func (s *payTokenRepoSuite) SetupTest() {
	s.q = mocks.NewMongo(s.T())
	s.repo = NewPayTokenRepo(s.q)
}

func (s *payTokenRepoSuite) idQuery() bson.M {
	return bson.M{"chainId": mockChainId, "address": mockToken.ToLower()}
}

func (s *payTokenRepoSuite) TestFindOne() {
	s.q.On("FindOne", mock.Anything, domain.TablePayTokens, s.idQuery(), mock.Anything).
		Run(func(args mock.Arguments) {
			res := args.Get(3).(*domain.PayToken)
			res.Symbol = "USDC"
			res.TokenDecimals = 6
		}).Return(nil).Once()

	token, err := s.repo.FindOne(mockCtx, mockChainId, mockToken)
	s.Require().NoError(err)
	s.Equal("USDC", token.Symbol)
	s.Equal(int32(6), token.TokenDecimals)
}

func (s *payTokenRepoSuite) TestFindOneNotFound() {
	s.q.On("FindOne", mock.Anything, domain.TablePayTokens, s.idQuery(), mock.Anything).Return(query.ErrNotFound).Once()

	token, err := s.repo.FindOne(mockCtx, mockChainId, mockToken)
	s.NoError(err)
	s.Nil(token)
}

func (s *payTokenRepoSuite) TestFindAll() {
	s.q.On("Search", mock.Anything, domain.TablePayTokens, 0, 0, "address", bson.M{"chainId": mockChainId}, mock.Anything).
		Run(func(args mock.Arguments) {
			res := args.Get(6).(*[]*domain.PayToken)
			*res = append(*res, &domain.PayToken{Symbol: "USDC"}, &domain.PayToken{Symbol: "WETH"})
		}).Return(nil).Once()

	tokens, err := s.repo.FindAll(mockCtx, mockChainId)
	s.Require().NoError(err)
	s.Len(tokens, 2)

	mockErr := errors.New("boom")
	s.q.On("Search", mock.Anything, domain.TablePayTokens, 0, 0, "address", bson.M{"chainId": mockChainId}, mock.Anything).
		Return(mockErr).Once()
	_, err = s.repo.FindAll(mockCtx, mockChainId)
	s.ErrorIs(err, mockErr)
}

func (s *payTokenRepoSuite) TestUpsertLowersAddresses() {
	s.q.On("Upsert", mock.Anything, domain.TablePayTokens, s.idQuery(), mock.MatchedBy(func(t *domain.PayToken) bool {
		return t.Address == mockToken.ToLower() && t.ChainlinkProxyAddress == mockFeed.ToLower()
	})).Return(nil).Once()

	s.NoError(s.repo.Upsert(mockCtx, &domain.PayToken{
		Symbol:                "USDC",
		ChainId:               mockChainId,
		Address:               mockToken,
		ChainlinkProxyAddress: mockFeed,
	}))
}

func (s *payTokenRepoSuite) TestPatch() {
	disabled := true
	s.q.On("Patch", mock.Anything, domain.TablePayTokens, s.idQuery(), bson.M{"disabled": true}).Return(nil).Once()
	s.NoError(s.repo.Patch(mockCtx, &domain.Id{ChainId: mockChainId, Address: mockToken}, &domain.PayTokenPatchable{Disabled: &disabled}))

	s.q.On("Patch", mock.Anything, domain.TablePayTokens, s.idQuery(), bson.M{"disabled": true}).Return(query.ErrNotFound).Once()
	err := s.repo.Patch(mockCtx, &domain.Id{ChainId: mockChainId, Address: mockToken}, &domain.PayTokenPatchable{Disabled: &disabled})
	s.ErrorIs(err, domain.ErrNotFound)
}
