package repository

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
	"github.com/x-xyz/auction/service/query"
	"github.com/x-xyz/auction/service/query/mocks"
)

var (
	mockCtx    = ctx.Background()
	engineAddr = domain.Address("0xE000000000000000000000000000000000000001")
	owner      = domain.Address("0x0000000000000000000000000000000000000aaa")
	seller     = domain.Address("0x0000000000000000000000000000000000000bbb")
	bidder     = domain.Address("0x0000000000000000000000000000000000000ccc")
	nft        = domain.Address("0x0000000000000000000000000000000000000ddd")
	t0         = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func sampleState() *auction.State {
	s := auction.NewState(engineAddr, auction.Config{Owner: owner, Treasury: owner, PlatformFee: 250})
	s.Version = auction.Version2
	s.PriceFeeds[domain.NativeAsset] = "0x00000000000000000000000000000000000000f1"
	schedule, _ := auction.NewFeeSchedule([]*big.Int{big.NewInt(1000)}, []uint32{500, 300})
	s.Config.FeeSchedule = schedule
	s.Config.UseDynamicFee = true
	for i := 0; i < 3; i++ {
		s.Auctions = append(s.Auctions, &auction.Auction{
			Id:              uint64(i),
			NftAddress:      nft,
			TokenId:         big.NewInt(int64(i + 1)),
			Seller:          seller,
			StartPrice:      big.NewInt(100),
			StartTime:       t0,
			EndTime:         t0.Add(time.Hour),
			HighestBid:      new(big.Int),
			HighestBidValue: new(big.Int),
		})
	}
	s.TotalAuctionsCreated = 3
	return s
}

type memorySuite struct {
	suite.Suite
}

func TestMemory(t *testing.T) {
	suite.Run(t, new(memorySuite))
}

func (s *memorySuite) TestLoadBeforeSave() {
	_, err := NewMemoryStateRepo().Load(mockCtx)
	s.Equal(domain.ErrNotFound, err)
}

func (s *memorySuite) TestPartialSave() {
	repo := NewMemoryStateRepo()
	st := sampleState()
	s.Require().NoError(repo.Save(mockCtx, st, nil))

	next := st.Clone()
	a := next.Touch(1)
	a.HighestBidder = bidder
	a.HighestBid = big.NewInt(5)
	next.Touch(2).BidCount = 9
	next.TotalBidsPlaced = 1
	// only auction 1 is reported as touched
	s.Require().NoError(repo.Save(mockCtx, next, []uint64{1}))

	loaded, err := repo.Load(mockCtx)
	s.Require().NoError(err)
	s.Equal(bidder, loaded.Auctions[1].HighestBidder)
	s.Equal(uint64(0), loaded.Auctions[2].BidCount)
	s.Equal(uint64(1), loaded.TotalBidsPlaced)

	// loaded state does not alias the stored one
	loaded.Auctions[1].HighestBid.SetInt64(77)
	again, _ := repo.Load(mockCtx)
	s.Equal(int64(5), again.Auctions[1].HighestBid.Int64())
}

func (s *memorySuite) TestPartialSaveAppends() {
	repo := NewMemoryStateRepo()
	st := sampleState()
	s.Require().NoError(repo.Save(mockCtx, st, nil))

	next := st.Clone()
	next.Auctions = append(next.Auctions, &auction.Auction{Id: 3, TokenId: big.NewInt(4), StartPrice: big.NewInt(1)})
	s.Require().NoError(repo.Save(mockCtx, next, []uint64{3}))

	loaded, err := repo.Load(mockCtx)
	s.Require().NoError(err)
	s.Len(loaded.Auctions, 4)
	s.Equal(int64(4), loaded.Auctions[3].TokenId.Int64())
}

func (s *memorySuite) TestEvents() {
	repo := NewMemoryEventRepo()
	e1 := auction.NewEvent(auction.EventAuctionCreated, seller, t0, nil).For(0)
	e2 := auction.NewEvent(auction.EventBidPlaced, bidder, t0, nil).For(0)
	e3 := auction.NewEvent(auction.EventPaused, owner, t0, nil)
	s.Require().NoError(repo.Publish(mockCtx, []*auction.Event{e1, e2}))
	s.Require().NoError(repo.Publish(mockCtx, []*auction.Event{e3}))

	all, err := repo.FindAll(mockCtx)
	s.NoError(err)
	s.Equal([]*auction.Event{e1, e2, e3}, all)

	byAuction, _ := repo.FindAll(mockCtx, auction.EventWithAuctionId(0))
	s.Equal([]*auction.Event{e1, e2}, byAuction)

	byType, _ := repo.FindAll(mockCtx, auction.EventWithType(auction.EventPaused))
	s.Equal([]*auction.Event{e3}, byType)

	limited, _ := repo.FindAll(mockCtx, auction.EventWithLimit(1))
	s.Equal([]*auction.Event{e1}, limited)
}

type mongoSuite struct {
	suite.Suite
	q *mocks.Mongo
}

func TestMongo(t *testing.T) {
	suite.Run(t, new(mongoSuite))
}

func (s *mongoSuite) SetupTest() {
	s.q = mocks.NewMongo(s.T())
}

func (s *mongoSuite) TestDocRoundTrip() {
	st := sampleState()
	st.Auctions[0].Ended = true
	st.Auctions[0].HighestBidder = bidder
	st.Auctions[0].HighestBid = big.NewInt(10)
	st.Auctions[0].Settlement = &auction.Settlement{
		Winner:       bidder,
		FinalBid:     big.NewInt(10),
		FeeRate:      500,
		FeeValue:     big.NewInt(1),
		FeeAmount:    big.NewInt(1),
		SellerAmount: big.NewInt(9),
		SettledAt:    t0,
	}

	meta, err := toStateDoc(st, t0).toState()
	s.Require().NoError(err)
	s.Equal(auction.Version2, meta.Version)
	s.True(meta.Config.UseDynamicFee)
	s.Equal(st.Config.FeeSchedule.Rates(), meta.Config.FeeSchedule.Rates())
	s.Equal(st.Config.FeeSchedule.Thresholds(), meta.Config.FeeSchedule.Thresholds())
	feed, ok := meta.FeedOf(domain.NativeAsset)
	s.True(ok)
	s.Equal(domain.Address("0x00000000000000000000000000000000000000f1"), feed)

	a, err := toAuctionDoc(engineAddr, st.Auctions[0]).toAuction()
	s.Require().NoError(err)
	s.Equal(st.Auctions[0].Settlement, a.Settlement)
	s.Equal(0, st.Auctions[0].TokenId.Cmp(a.TokenId))

	bad := toAuctionDoc(engineAddr, st.Auctions[1])
	bad.StartPrice = "1e3"
	_, err = bad.toAuction()
	s.Equal(domain.ErrInvalidNumberFormat, err)
}

func (s *mongoSuite) TestLoadNotFound() {
	s.q.On("FindOne", mockCtx, domain.TableEngineState, bson.M{"_id": engineAddr.ToLowerStr()}, mock.Anything).
		Return(query.ErrNotFound).Once()

	_, err := NewStateMongoRepo(s.q, engineAddr).Load(mockCtx)
	s.Equal(domain.ErrNotFound, err)
}

func (s *mongoSuite) mockStoredState(st *auction.State, docs []*auctionDoc) {
	s.q.On("FindOne", mockCtx, domain.TableEngineState, bson.M{"_id": engineAddr.ToLowerStr()}, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*stateDoc) = *toStateDoc(st, t0)
		}).Return(nil).Once()
	s.q.On("Search", mockCtx, domain.TableAuctions, 0, 0, "auctionId", bson.M{"engine": engineAddr.ToLowerStr()}, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(6).(*[]*auctionDoc) = docs
		}).Return(nil).Once()
}

func (s *mongoSuite) TestLoad() {
	st := sampleState()
	docs := []*auctionDoc{}
	for _, a := range st.Auctions {
		docs = append(docs, toAuctionDoc(engineAddr, a))
	}
	s.mockStoredState(st, docs)

	loaded, err := NewStateMongoRepo(s.q, engineAddr).Load(mockCtx)
	s.Require().NoError(err)
	s.Len(loaded.Auctions, 3)
	s.Equal(uint64(2), loaded.Auctions[2].Id)
	s.True(loaded.EngineAddress.Equals(engineAddr))
}

func (s *mongoSuite) TestLoadIncomplete() {
	st := sampleState()
	s.mockStoredState(st, []*auctionDoc{toAuctionDoc(engineAddr, st.Auctions[0]), toAuctionDoc(engineAddr, st.Auctions[2])})

	_, err := NewStateMongoRepo(s.q, engineAddr).Load(mockCtx)
	s.Equal(ErrIncompleteState, err)
}

func (s *mongoSuite) mockTransaction() {
	s.q.On("RunWithTransaction", mockCtx, mock.Anything).
		Run(func(args mock.Arguments) {
			run := args.Get(1).(func(ctx.Ctx) error)
			s.NoError(run(mockCtx))
		}).Return(nil).Once()
}

func (s *mongoSuite) TestSaveTouched() {
	st := sampleState()
	s.mockTransaction()
	s.q.On("BulkUpsert", mockCtx, domain.TableAuctions, mock.MatchedBy(func(ops []query.UpsertOp) bool {
		return len(ops) == 1 && ops[0].Selector == auctionKey{Engine: engineAddr.ToLowerStr(), AuctionId: 2}
	})).Return(int64(1), int64(1), nil).Once()
	s.q.On("Upsert", mockCtx, domain.TableEngineState, bson.M{"_id": engineAddr.ToLowerStr()}, mock.MatchedBy(func(d *stateDoc) bool {
		return d.AuctionCount == 3 && d.PlatformFee == 250
	})).Return(nil).Once()

	s.NoError(NewStateMongoRepo(s.q, engineAddr).Save(mockCtx, st, []uint64{2}))
}

func (s *mongoSuite) TestSaveFull() {
	st := sampleState()
	s.mockTransaction()
	s.q.On("BulkUpsert", mockCtx, domain.TableAuctions, mock.MatchedBy(func(ops []query.UpsertOp) bool {
		return len(ops) == 3
	})).Return(int64(3), int64(3), nil).Once()
	s.q.On("Upsert", mockCtx, domain.TableEngineState, mock.Anything, mock.Anything).Return(nil).Once()

	s.NoError(NewStateMongoRepo(s.q, engineAddr).Save(mockCtx, st, nil))
}

func (s *mongoSuite) TestSaveMetaOnly() {
	st := sampleState()
	s.mockTransaction()
	s.q.On("Upsert", mockCtx, domain.TableEngineState, mock.Anything, mock.Anything).Return(nil).Once()

	s.NoError(NewStateMongoRepo(s.q, engineAddr).Save(mockCtx, st, []uint64{}))
}

func (s *mongoSuite) TestEvents() {
	e1 := auction.NewEvent(auction.EventBidPlaced, bidder, t0, map[string]interface{}{"amount": "1"}).For(1)
	e2 := auction.NewEvent(auction.EventBidRefunded, seller, t0, nil).For(1)
	s.q.On("InsertMany", mockCtx, domain.TableAuctionEvents, mock.MatchedBy(func(docs []interface{}) bool {
		return len(docs) == 2 && docs[1].(*eventDoc).Index == 1 && docs[1].(*eventDoc).Type == auction.EventBidRefunded
	})).Return(nil).Once()
	repo := NewEventMongoRepo(s.q)
	s.NoError(repo.Publish(mockCtx, []*auction.Event{e1, e2}))

	s.q.On("SearchNSorts", mockCtx, domain.TableAuctionEvents, 0, 5, []string{"time", "index"}, bson.M{"auctionId": uint64(1)}, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(6).(*[]*eventDoc) = []*eventDoc{{Event: *e1}, {Event: *e2, Index: 1}}
		}).Return(nil).Once()
	res, err := repo.FindAll(mockCtx, auction.EventWithAuctionId(1), auction.EventWithLimit(5))
	s.NoError(err)
	s.Equal([]*auction.Event{e1, e2}, res)
}
