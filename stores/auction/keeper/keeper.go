// Package keeper settles auctions whose end time passed without anyone claiming them.
package keeper

import (
	"errors"
	"time"

	"github.com/x-xyz/auction/base/backoff"
	bCtx "github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/goroutine"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/base/metrics"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

const (
	defaultBatchSize = 100
	defaultAttempts  = 3
)

type KeeperCfg struct {
	Settler  auction.Settler
	Caller   domain.Address
	Interval time.Duration
	// BatchSize caps the auctions settled per round
	BatchSize int
	Attempts  int
	Backoff   *backoff.Backoff
	Metrics   metrics.Service
}

type Keeper struct {
	settler   auction.Settler
	caller    domain.Address
	interval  time.Duration
	batchSize int
	attempts  int
	backoff   *backoff.Backoff
	met       metrics.Service
	stoppedCh chan interface{}

	// deferred holds the ids left unsettled by the previous round
	deferred map[uint64]struct{}
}

func NewKeeper(cfg *KeeperCfg) *Keeper {
	k := &Keeper{
		settler:   cfg.Settler,
		caller:    cfg.Caller,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		attempts:  cfg.Attempts,
		backoff:   cfg.Backoff,
		met:       cfg.Metrics,
		stoppedCh: make(chan interface{}),
		deferred:  map[uint64]struct{}{},
	}
	if k.batchSize <= 0 {
		k.batchSize = defaultBatchSize
	}
	if k.attempts <= 0 {
		k.attempts = defaultAttempts
	}
	if k.backoff == nil {
		k.backoff = backoff.NewExponential(100*time.Millisecond, 5*time.Second)
	}
	if k.met == nil {
		k.met = metrics.NewNop()
	}
	return k
}

func (k *Keeper) Start(ctx bCtx.Ctx) {
	goroutine.RecoverableGo(func() { k.loop(ctx) },
		goroutine.WithName("settlement-keeper"),
		goroutine.WithAfterEnded(func() { close(k.stoppedCh) }),
	)
}

// Wait blocks until the keeper stopped
func (k *Keeper) Wait() {
	<-k.stoppedCh
}

func (k *Keeper) loop(ctx bCtx.Ctx) {
	nextTick := time.Second * 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(nextTick):
			settled, err := k.RunOnce(ctx)
			if err != nil {
				ctx.WithField("err", err).Warn("settlement round failed")
			}
			// a full batch means more may be waiting
			if err == nil && settled >= k.batchSize {
				nextTick = 0
			} else {
				nextTick = k.interval
			}
		}
	}
}

// RunOnce settles up to BatchSize auctions awaiting settlement and returns how many it settled.
// Auctions left unsettled by the previous round go after the others, so a batch of
// failing auctions cannot hold back the rest. A paused engine ends the round early
// without an error. RunOnce is not safe for concurrent use.
func (k *Keeper) RunOnce(ctx bCtx.Ctx) (int, error) {
	ids, err := k.settler.AwaitingSettlement(ctx, k.batchSize+len(k.deferred))
	if err != nil {
		ctx.WithField("err", err).Error("settler.AwaitingSettlement failed")
		return 0, err
	}
	ids = k.order(ids)

	n := len(ids)
	if n > k.batchSize {
		n = k.batchSize
	}
	failed := map[uint64]struct{}{}
	defer func() { k.deferred = failed }()
	// deferred ids stay deferred until they are attempted again
	k.keepDeferred(failed, ids[n:])
	ids = ids[:n]

	settled := 0
	for i, id := range ids {
		var permanent error
		err := backoff.Retry(ctx, k.backoff, k.attempts, func() error {
			err := k.settler.EndAuctionAndClaim(ctx, k.caller, id)
			if err != nil && !retryable(err) {
				permanent = err
				return nil
			}
			return err
		})
		k.backoff.Reset()
		if err == nil {
			err = permanent
		}
		switch {
		case err == nil:
			settled++
			k.met.BumpSum("keeper.settled", 1)
		case errors.Is(err, domain.ErrPaused):
			ctx.Info("engine paused, settlement round skipped")
			k.keepDeferred(failed, ids[i:])
			return settled, nil
		case domain.KindOf(err) == domain.KindValidation || domain.KindOf(err) == domain.KindInvariant:
			// settled by someone else, or halted
			ctx.WithFields(log.Fields{"auctionId": id, "err": err}).Info("auction skipped")
			k.met.BumpSum("keeper.skipped", 1, "reason", domain.ReasonOf(err))
			failed[id] = struct{}{}
		default:
			ctx.WithFields(log.Fields{"auctionId": id, "err": err}).Error("settler.EndAuctionAndClaim failed")
			k.met.BumpSum("keeper.err", 1, "reason", domain.ReasonOf(err))
			failed[id] = struct{}{}
		}
	}
	return settled, nil
}

// order puts deferred ids last
func (k *Keeper) order(ids []uint64) []uint64 {
	res := make([]uint64, 0, len(ids))
	var later []uint64
	for _, id := range ids {
		if _, ok := k.deferred[id]; ok {
			later = append(later, id)
			continue
		}
		res = append(res, id)
	}
	return append(res, later...)
}

func (k *Keeper) keepDeferred(next map[uint64]struct{}, ids []uint64) {
	for _, id := range ids {
		if _, ok := k.deferred[id]; ok {
			next[id] = struct{}{}
		}
	}
}

// retryable reports whether a failed settlement may succeed on a later attempt
func retryable(err error) bool {
	return domain.KindOf(err) == domain.KindExternal || domain.KindOf(err) == domain.KindUnknown
}
