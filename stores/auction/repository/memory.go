package repository

import (
	"sync"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

type memoryStateRepo struct {
	mu    sync.Mutex
	state *auction.State
}

// NewMemoryStateRepo keeps the engine state in process, for tests and local runs
func NewMemoryStateRepo() auction.StateRepo {
	return &memoryStateRepo{}
}

func (r *memoryStateRepo) Load(c ctx.Ctx) (*auction.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil, domain.ErrNotFound
	}
	return r.state.DeepClone(), nil
}

func (r *memoryStateRepo) Save(c ctx.Ctx, s *auction.State, touched []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil || touched == nil {
		r.state = s.DeepClone()
		return nil
	}

	next := s.Clone()
	next.Auctions = make([]*auction.Auction, len(s.Auctions))
	copy(next.Auctions, r.state.Auctions)
	for _, id := range touched {
		if id < uint64(len(s.Auctions)) {
			next.Auctions[id] = s.Auctions[id].Clone()
		}
	}
	r.state = next
	return nil
}

type memoryEventRepo struct {
	mu     sync.Mutex
	events []*auction.Event
}

func NewMemoryEventRepo() auction.EventRepo {
	return &memoryEventRepo{}
}

func (r *memoryEventRepo) Publish(c ctx.Ctx, events []*auction.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *memoryEventRepo) FindAll(c ctx.Ctx, optFns ...auction.EventFindAllOptionsFunc) ([]*auction.Event, error) {
	opts, err := auction.GetEventFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("GetEventFindAllOptions failed")
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	res := []*auction.Event{}
	for _, e := range r.events {
		if opts.Limit != nil && int64(len(res)) >= *opts.Limit {
			break
		}
		if opts.AuctionId != nil && (e.AuctionId == nil || *e.AuctionId != *opts.AuctionId) {
			continue
		}
		if opts.Type != nil && e.Type != *opts.Type {
			continue
		}
		res = append(res, e)
	}
	return res, nil
}
