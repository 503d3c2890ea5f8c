package auction

import (
	"math/big"
	"time"

	"github.com/x-xyz/auction/domain"
)

type Version uint8

const (
	Version1 Version = 1
	Version2 Version = 2
)

// Config is the administrator controlled part of the engine state
type Config struct {
	Owner              domain.Address
	Treasury           domain.Address
	PlatformFee        uint32
	UseDynamicFee      bool
	FeeSchedule        FeeSchedule
	Paused             bool
	MaxPriceAge        time.Duration
	StartTimeTolerance time.Duration
	AllowEarlyClose    bool
}

// FeeRate is the rate charged on a final bid worth value
func (c *Config) FeeRate(value *big.Int) uint32 {
	if !c.UseDynamicFee || c.FeeSchedule.IsEmpty() {
		return c.PlatformFee
	}
	return c.FeeSchedule.Rate(value)
}

// State is everything the engine persists. Auction ids are indexes into Auctions.
type State struct {
	EngineAddress        domain.Address
	Version              Version
	Auctions             []*Auction
	PriceFeeds           map[domain.Address]domain.Address
	Config               Config
	TotalAuctionsCreated uint64
	TotalBidsPlaced      uint64
}

func NewState(engine domain.Address, cfg Config) *State {
	return &State{
		EngineAddress: engine,
		Version:       Version1,
		PriceFeeds:    map[domain.Address]domain.Address{},
		Config:        cfg,
	}
}

// Clone returns a copy-on-write snapshot: auctions are shared until Touch copies one
func (s *State) Clone() *State {
	cp := *s
	cp.Auctions = make([]*Auction, len(s.Auctions), len(s.Auctions)+1)
	copy(cp.Auctions, s.Auctions)
	cp.PriceFeeds = make(map[domain.Address]domain.Address, len(s.PriceFeeds))
	for k, v := range s.PriceFeeds {
		cp.PriceFeeds[k] = v
	}
	cp.Config.FeeSchedule = s.Config.FeeSchedule.Clone()
	return &cp
}

// DeepClone copies every auction, used when the state leaves the engine
func (s *State) DeepClone() *State {
	cp := s.Clone()
	for i, a := range cp.Auctions {
		cp.Auctions[i] = a.Clone()
	}
	return cp
}

// Touch replaces auction id with a private copy and returns it
func (s *State) Touch(id uint64) *Auction {
	a := s.Auctions[id].Clone()
	s.Auctions[id] = a
	return a
}

func (s *State) Get(id uint64) (*Auction, bool) {
	if id >= uint64(len(s.Auctions)) {
		return nil, false
	}
	return s.Auctions[id], true
}

func (s *State) NextId() uint64 {
	return uint64(len(s.Auctions))
}

// FeedOf returns the feed registered for a payment asset
func (s *State) FeedOf(asset domain.Address) (domain.Address, bool) {
	feed, ok := s.PriceFeeds[asset.ToLower()]
	return feed, ok
}

// Stats is the version 2 summary read
type Stats struct {
	TotalAuctions      uint64
	TotalBids          uint64
	CurrentPlatformFee uint32
	IsPaused           bool
	ActiveAuctions     uint64
}
