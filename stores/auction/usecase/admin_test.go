package usecase

import (
	"errors"
	"math/big"
	"time"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/metrics"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
	"github.com/x-xyz/auction/service/ledger"
	"github.com/x-xyz/auction/service/sequencer"
	"github.com/x-xyz/auction/stores/auction/repository"
)

func (s *engineSuite) TestFeeTiers() {
	s.migrate()
	thresholds := []*big.Int{big.NewInt(1000), big.NewInt(10000), big.NewInt(100000)}
	rates := []uint32{500, 300, 100, 50}

	s.ErrorIs(s.subject.SetFeeTiers(mockCtx, stranger, thresholds, rates), domain.ErrNotOwner)
	s.Require().NoError(s.subject.SetFeeTiers(mockCtx, owner, thresholds, rates))

	enabled, _ := s.subject.UseDynamicFee(mockCtx)
	s.True(enabled)
	n, _ := s.subject.GetFeeTierCount(mockCtx)
	s.Equal(3, n)
	base, _ := s.subject.BaseFeeRate(mockCtx)
	s.Equal(uint32(500), base)
	gotThresholds, gotRates, err := s.subject.GetAllFeeTiers(mockCtx)
	s.NoError(err)
	s.Equal(thresholds, gotThresholds)
	s.Equal(rates, gotRates)

	tests := []struct {
		Desc  string
		value int64
		exp   uint32
	}{
		{"below the first threshold", 999, 500},
		{"at the first threshold", 1000, 300},
		{"inside the first tier", 9999, 300},
		{"at the second threshold", 10000, 100},
		{"at the last threshold", 100000, 50},
		{"above the last threshold", 5000000, 50},
	}
	for _, t := range tests {
		rate, err := s.subject.CalculateFeeRate(mockCtx, big.NewInt(t.value))
		s.NoError(err, t.Desc)
		s.Equal(t.exp, rate, t.Desc)
	}

	// invalid schedules leave the stored one untouched
	s.ErrorIs(s.subject.SetFeeTiers(mockCtx, owner, []*big.Int{big.NewInt(5), big.NewInt(5)}, []uint32{1, 2, 3}), domain.ErrInvalidFeeSchedule)
	s.ErrorIs(s.subject.SetFeeTiers(mockCtx, owner, []*big.Int{big.NewInt(5)}, []uint32{1}), domain.ErrInvalidFeeSchedule)
	s.ErrorIs(s.subject.SetFeeTiers(mockCtx, owner, []*big.Int{big.NewInt(5)}, []uint32{1, 1001}), domain.ErrInvalidFeeSchedule)
	n, _ = s.subject.GetFeeTierCount(mockCtx)
	s.Equal(3, n)

	s.Require().NoError(s.subject.SetDynamicFeeEnabled(mockCtx, owner, false))
	rate, _ := s.subject.CalculateFeeRate(mockCtx, big.NewInt(999))
	s.Equal(uint32(250), rate)
}

func (s *engineSuite) TestDynamicFeeSettlement() {
	s.migrate()
	// tiers in the common unit: under $1000 pays 5%, above pays 1%
	s.Require().NoError(s.subject.SetFeeTiers(mockCtx, owner, []*big.Int{usd(1000)}, []uint32{500, 100}))
	small := s.create(1, usd(1))
	large := s.create(2, usd(1))
	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder1, small, usdcAmount(200), usdc))
	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder2, large, eth(1), domain.NativeAsset))

	s.now = s.now.Add(time.Hour)
	s.Require().NoError(s.subject.EndAuctionAndClaim(mockCtx, seller, small))
	s.Require().NoError(s.subject.EndAuctionAndClaim(mockCtx, seller, large))

	s.Equal(0, usdcAmount(10).Cmp(s.ledger.TokenBalance(usdc, treasury)))
	s.Equal(0, usdcAmount(190).Cmp(s.ledger.TokenBalance(usdc, seller)))
	s.Equal(0, milliEth(10).Cmp(s.ledger.NativeBalance(treasury)))
	s.Equal(0, milliEth(990).Cmp(s.ledger.NativeBalance(seller)))

	bids, err := s.events.FindAll(mockCtx, auction.EventWithType(auction.EventBidPlaced))
	s.Require().NoError(err)
	s.Require().Len(bids, 2)
	s.Equal("200.00", bids[0].Fields["valueUsd"])
	s.Equal("2000.00", bids[1].Fields["valueUsd"])

	ended, err := s.events.FindAll(mockCtx, auction.EventWithType(auction.EventAuctionEnded))
	s.Require().NoError(err)
	s.Require().Len(ended, 2)
	s.Equal("5%", ended[0].Fields["feeRatePct"])
	s.Equal("10.00", ended[0].Fields["feeValueUsd"])
	s.Equal("1%", ended[1].Fields["feeRatePct"])
	s.Equal("20.00", ended[1].Fields["feeValueUsd"])
}

func (s *engineSuite) TestSetPlatformFee() {
	s.ErrorIs(s.subject.SetPlatformFee(mockCtx, stranger, 100), domain.ErrNotOwner)
	s.ErrorIs(s.subject.SetPlatformFee(mockCtx, owner, auction.MaxFeeRate+1), domain.ErrInvalidFeeRate)
	s.NoError(s.subject.SetPlatformFee(mockCtx, owner, auction.MaxFeeRate))
	s.NoError(s.subject.SetPlatformFee(mockCtx, owner, 0))

	id := s.create(1, usd(100))
	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder1, id, eth(1), domain.NativeAsset))
	s.now = s.now.Add(time.Hour)
	s.Require().NoError(s.subject.EndAuctionAndClaim(mockCtx, seller, id))
	s.Equal(0, eth(1).Cmp(s.ledger.NativeBalance(seller)))
	s.Equal(0, big.NewInt(0).Cmp(s.ledger.NativeBalance(treasury)))
}

func (s *engineSuite) TestAdminOps() {
	feed, err := s.subject.PriceFeed(mockCtx, usdc)
	s.NoError(err)
	s.Equal(usdcFeed, feed)
	_, err = s.subject.PriceFeed(mockCtx, stranger)
	s.ErrorIs(err, domain.ErrUnsupportedAsset)

	s.ErrorIs(s.subject.SetPriceFeed(mockCtx, owner, usdc, ""), domain.ErrBadParamInput)
	s.ErrorIs(s.subject.SetPriceFeed(mockCtx, stranger, usdc, ethFeed), domain.ErrNotOwner)

	s.ErrorIs(s.subject.SetTreasury(mockCtx, owner, domain.EmptyAddress), domain.ErrBadParamInput)
	s.Require().NoError(s.subject.SetTreasury(mockCtx, owner, stranger))

	s.ErrorIs(s.subject.TransferOwnership(mockCtx, stranger, stranger), domain.ErrNotOwner)
	s.ErrorIs(s.subject.TransferOwnership(mockCtx, owner, ""), domain.ErrBadParamInput)
	s.Require().NoError(s.subject.TransferOwnership(mockCtx, owner, stranger))
	o, _ := s.subject.Owner(mockCtx)
	s.Equal(stranger, o)
	s.ErrorIs(s.subject.SetPlatformFee(mockCtx, owner, 1), domain.ErrNotOwner)
	s.NoError(s.subject.SetPlatformFee(mockCtx, stranger, 1))

	events, err := s.events.FindAll(mockCtx, auction.EventWithType(auction.EventOwnershipTransferred))
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(stranger.ToLowerStr(), events[0].Fields["newOwner"])
	s.NotEmpty(events[0].OpId)
}

func (s *engineSuite) TestFailedOperationPublishesNothing() {
	before := len(s.eventTypes())
	s.ErrorIs(s.subject.PlaceBid(mockCtx, bidder1, 42, eth(1), domain.NativeAsset), domain.ErrAuctionNotFound)
	s.ErrorIs(s.subject.SetPlatformFee(mockCtx, owner, 5000), domain.ErrInvalidFeeRate)
	s.Len(s.eventTypes(), before)
}

func (s *engineSuite) TestMigrate() {
	st := auction.NewState(engineAddr, auction.Config{Owner: owner, Treasury: treasury})
	for i := 0; i < 2; i++ {
		st.Auctions = append(st.Auctions, &auction.Auction{
			Id:              uint64(i),
			NftAddress:      nft,
			TokenId:         big.NewInt(int64(i + 10)),
			Seller:          seller,
			StartPrice:      usd(1),
			StartTime:       t0,
			EndTime:         t0.Add(time.Hour),
			HighestBid:      new(big.Int),
			HighestBidValue: new(big.Int),
		})
	}
	st.TotalBidsPlaced = 4
	s.stateRepo = repository.NewMemoryStateRepo()
	s.Require().NoError(s.stateRepo.Save(mockCtx, st, nil))
	s.newEngine(Config{EngineAddress: engineAddr, Owner: stranger, Treasury: stranger, PlatformFee: 700})

	// a loaded state keeps its own owner and fee
	fee, _ := s.subject.PlatformFee(mockCtx)
	s.Equal(uint32(0), fee)

	s.ErrorIs(s.subject.Migrate(mockCtx, stranger, engineAddr), domain.ErrNotOwner)
	s.ErrorIs(s.subject.Migrate(mockCtx, owner, usdc), domain.ErrInvariantViolation)

	s.Require().NoError(s.subject.Migrate(mockCtx, owner, engineAddr))
	v, _ := s.subject.Version(mockCtx)
	s.Equal(auction.Version2, v)
	stats, err := s.subject.GetAuctionStats(mockCtx)
	s.Require().NoError(err)
	s.Equal(uint64(2), stats.TotalAuctions)
	s.Equal(uint64(4), stats.TotalBids)
	s.Equal(auction.DefaultPlatformFee, stats.CurrentPlatformFee)

	// running it again changes nothing
	s.Require().NoError(s.subject.SetPlatformFee(mockCtx, owner, 0))
	upgrades := len(s.eventTypes())
	s.Require().NoError(s.subject.Migrate(mockCtx, owner, engineAddr))
	fee, _ = s.subject.PlatformFee(mockCtx)
	s.Equal(uint32(0), fee)
	s.Len(s.eventTypes(), upgrades)

	stored, err := s.stateRepo.Load(mockCtx)
	s.Require().NoError(err)
	s.Equal(auction.Version2, stored.Version)
}

func (s *engineSuite) TestStateSurvivesRestart() {
	id := s.create(1, usd(100))
	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder1, id, eth(1), domain.NativeAsset))

	s.newEngine(Config{EngineAddress: engineAddr, Owner: stranger, Treasury: stranger})
	a, err := s.subject.GetAuction(mockCtx, id)
	s.Require().NoError(err)
	s.Equal(bidder1, a.HighestBidder)
	o, _ := s.subject.Owner(mockCtx)
	s.Equal(owner, o)

	s.now = s.now.Add(time.Hour)
	s.NoError(s.subject.EndAuctionAndClaim(mockCtx, seller, id))
}

// flakyStateRepo fails the next failures saves and records what it was asked to write
type flakyStateRepo struct {
	auction.StateRepo
	failures int
	touched  [][]uint64
}

func (r *flakyStateRepo) Save(c ctx.Ctx, st *auction.State, touched []uint64) error {
	r.touched = append(r.touched, touched)
	if r.failures > 0 {
		r.failures--
		return errors.New("write conflict")
	}
	return r.StateRepo.Save(c, st, touched)
}

func (s *engineSuite) TestSaveFailureForcesFullSave() {
	repo := &flakyStateRepo{StateRepo: s.stateRepo}
	s.stateRepo = repo
	s.newEngine(Config{EngineAddress: engineAddr, Owner: owner, Treasury: treasury})

	first := s.create(1, usd(100))
	repo.failures = 1
	second := s.create(2, usd(100))
	// the operation itself succeeded
	count, _ := s.subject.GetAuctionCount(mockCtx)
	s.Equal(uint64(2), count)

	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder1, first, eth(1), domain.NativeAsset))
	s.Require().NoError(s.subject.PlaceBid(mockCtx, bidder1, first, eth(2), domain.NativeAsset))

	s.Equal([][]uint64{{first}, {second}, nil, {first}}, repo.touched)
	stored, err := repo.Load(mockCtx)
	s.Require().NoError(err)
	s.Len(stored.Auctions, 2)
	s.Equal(uint64(2), stored.Auctions[first].BidCount)
}

func (s *engineSuite) TestSerialRejectsReentrantCall() {
	seq := sequencer.New(16, metrics.NewNop())
	defer seq.Close()
	serial := NewSerial(s.subject, seq)

	id, err := serial.CreateAuction(mockCtx, seller, auction.CreateAuctionParams{
		NftAddress: nft,
		TokenId:    big.NewInt(4),
		StartPrice: usd(100),
		StartTime:  s.now,
		EndTime:    s.now.Add(time.Hour),
	})
	s.Require().NoError(err)

	var reentrantErr error
	s.ledger.SetHook(func(c ctx.Ctx, t ledger.Transfer) {
		if t.Op == ledger.OpNativeTransfer && t.To.Equals(engineAddr) {
			// runs inline on the worker instead of deadlocking
			reentrantErr = serial.EndAuctionAndClaim(c, seller, id)
		}
	})
	s.Require().NoError(serial.PlaceBid(mockCtx, bidder1, id, eth(1), domain.NativeAsset))
	s.ErrorIs(reentrantErr, domain.ErrReentrantCall)

	a, err := serial.GetAuction(mockCtx, id)
	s.Require().NoError(err)
	s.Equal(bidder1, a.HighestBidder)
}

func (s *engineSuite) TestSerialConcurrentBids() {
	seq := sequencer.New(16, metrics.NewNop())
	defer seq.Close()
	serial := NewSerial(s.subject, seq)
	id := s.create(1, usd(100))

	amounts := []*big.Int{eth(1), eth(2), eth(3), eth(4)}
	errs := make(chan error, len(amounts))
	for i, amount := range amounts {
		bidder := bidder1
		if i%2 == 1 {
			bidder = bidder2
		}
		go func(bidder domain.Address, amount *big.Int) {
			errs <- serial.PlaceBid(mockCtx, bidder, id, amount, domain.NativeAsset)
		}(bidder, amount)
	}
	accepted := 0
	for range amounts {
		if err := <-errs; err == nil {
			accepted++
		} else {
			s.ErrorIs(err, domain.ErrBidTooLow)
		}
	}
	s.GreaterOrEqual(accepted, 1)

	a, err := serial.GetAuction(mockCtx, id)
	s.Require().NoError(err)
	s.Equal(uint64(accepted), a.BidCount)
	// every outbid bidder was refunded, only the winning amount is held
	s.Equal(0, a.HighestBid.Cmp(s.ledger.NativeBalance(engineAddr)))
	total := new(big.Int).Add(s.ledger.NativeBalance(bidder1), s.ledger.NativeBalance(bidder2))
	s.Equal(0, new(big.Int).Sub(eth(20), a.HighestBid).Cmp(total))
}
