package usecase

import (
	"time"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/base/metrics"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
)

const (
	defaultMaxPriceAge        = time.Hour
	defaultStartTimeTolerance = 5 * time.Minute
)

// Config seeds a fresh engine state. Policy values (price age, start time
// tolerance, early close) also override a loaded state.
type Config struct {
	EngineAddress      domain.Address `mapstructure:"address" validate:"required,address"`
	Owner              domain.Address `mapstructure:"owner" validate:"required,address"`
	Treasury           domain.Address `mapstructure:"treasury" validate:"required,address"`
	PlatformFee        uint32         `mapstructure:"platformFee" validate:"lte=1000"`
	MaxPriceAge        time.Duration  `mapstructure:"maxPriceAge"`
	StartTimeTolerance time.Duration  `mapstructure:"startTimeTolerance"`
	AllowEarlyClose    bool           `mapstructure:"allowEarlyClose"`
}

type Option func(*impl)

func WithClock(now func() time.Time) Option {
	return func(im *impl) { im.now = now }
}

func WithMetrics(met metrics.Service) Option {
	return func(im *impl) { im.met = met }
}

func WithEventRepo(events auction.EventRepo) Option {
	return func(im *impl) { im.events = events }
}

// impl is not safe for concurrent use, wrap it with NewSerial.
type impl struct {
	state      *auction.State
	stateRepo  auction.StateRepo
	events     auction.EventRepo
	registries domain.Registries
	prices     domain.PriceReference
	now        func() time.Time
	met        metrics.Service

	inCall       bool
	needFullSave bool
}

// New loads the engine state from stateRepo, or creates a version 1 state from cfg.
func New(
	c ctx.Ctx,
	cfg Config,
	registries domain.Registries,
	prices domain.PriceReference,
	stateRepo auction.StateRepo,
	opts ...Option,
) (auction.UseCase, error) {
	im := &impl{
		stateRepo:  stateRepo,
		registries: registries,
		prices:     prices,
		now:        time.Now,
		met:        metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}

	if cfg.MaxPriceAge == 0 {
		cfg.MaxPriceAge = defaultMaxPriceAge
	}
	if cfg.StartTimeTolerance == 0 {
		cfg.StartTimeTolerance = defaultStartTimeTolerance
	}
	if cfg.PlatformFee > auction.MaxFeeRate {
		return nil, domain.ErrInvalidFeeRate
	}

	st, err := stateRepo.Load(c)
	if err == domain.ErrNotFound {
		st = auction.NewState(cfg.EngineAddress, auction.Config{
			Owner:       cfg.Owner,
			Treasury:    cfg.Treasury,
			PlatformFee: cfg.PlatformFee,
		})
		im.needFullSave = true
		c.WithField("engine", cfg.EngineAddress).Info("new engine state")
	} else if err != nil {
		c.WithField("err", err).Error("stateRepo.Load failed")
		return nil, err
	} else if !st.EngineAddress.Equals(cfg.EngineAddress) {
		c.WithFields(log.Fields{
			"stored":     st.EngineAddress,
			"configured": cfg.EngineAddress,
		}).Warn("engine address differs from stored state")
	}
	st.Config.MaxPriceAge = cfg.MaxPriceAge
	st.Config.StartTimeTolerance = cfg.StartTimeTolerance
	st.Config.AllowEarlyClose = cfg.AllowEarlyClose
	im.state = st

	if im.needFullSave {
		im.persist(c, nil)
	}
	return im, nil
}

// unit is one mutating operation working on a private snapshot
type unit struct {
	c         ctx.Ctx
	im        *impl
	st        *auction.State
	now       time.Time
	journal   journal
	events    []*auction.Event
	touched   []uint64
	changed   bool
	auctionId *uint64
}

func (im *impl) mutate(c ctx.Ctx, op string, fn func(u *unit) error) error {
	c = ctx.WithOperation(c, op)
	defer im.met.BumpTime("op.time", "op", op).End()

	if im.inCall {
		c.Warn("reentrant call rejected")
		im.met.BumpSum("op.err", 1, "op", op, "reason", domain.ReasonOf(domain.ErrReentrantCall))
		return xerrors.Errorf("%s: %w", op, domain.ErrReentrantCall)
	}
	im.inCall = true
	defer func() { im.inCall = false }()

	u := &unit{
		c:   c,
		im:  im,
		st:  im.state.Clone(),
		now: im.now(),
	}
	if err := fn(u); err != nil {
		if rbErr := u.journal.rollback(c); rbErr != nil {
			c.WithFields(log.Fields{
				"err":         err,
				"rollbackErr": rbErr,
				"journal":     u.journal.describe(),
			}).Error("rollback failed")
			im.met.BumpSum("invariant.violation", 1, "op", op)
			im.halt(c, u.auctionId)
			return xerrors.Errorf("%s: %v: %w", op, rbErr, domain.ErrInvariantViolation)
		}
		im.met.BumpSum("op.err", 1, "op", op, "reason", domain.ReasonOf(err))
		return xerrors.Errorf("%s: %w", op, err)
	}

	if !u.changed {
		return nil
	}
	im.state = u.st
	im.persist(c, u.touched)
	im.publish(c, u.events)
	return nil
}

// halt marks the auction an operation was working on as halted in the live state
func (im *impl) halt(c ctx.Ctx, id *uint64) {
	if id == nil {
		return
	}
	if _, ok := im.state.Get(*id); !ok {
		return
	}
	st := im.state.Clone()
	st.Touch(*id).Halted = true
	im.state = st
	c.WithField("auctionId", *id).Error("auction halted")
	im.persist(c, []uint64{*id})
}

func (im *impl) persist(c ctx.Ctx, touched []uint64) {
	if im.stateRepo == nil {
		return
	}
	if im.needFullSave {
		touched = nil
	} else if touched == nil {
		touched = []uint64{}
	}
	if err := im.stateRepo.Save(c, im.state, touched); err != nil {
		c.WithField("err", err).Error("stateRepo.Save failed")
		im.met.BumpSum("state.save.err", 1)
		im.needFullSave = true
		return
	}
	im.needFullSave = false
}

func (im *impl) publish(c ctx.Ctx, events []*auction.Event) {
	if im.events == nil || len(events) == 0 {
		return
	}
	opId := ctx.OpId(c)
	for _, e := range events {
		e.OpId = opId
	}
	if err := im.events.Publish(c, events); err != nil {
		c.WithFields(log.Fields{"err": err, "count": len(events)}).Error("events.Publish failed")
		im.met.BumpSum("event.publish.err", 1)
	}
}

// unit helpers

func (u *unit) emit(e *auction.Event) {
	u.events = append(u.events, e)
}

func (u *unit) markChanged() {
	u.changed = true
}

// auction looks an auction up and remembers it as the operation target
func (u *unit) auction(id uint64) (*auction.Auction, error) {
	a, ok := u.st.Get(id)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	u.auctionId = &id
	if a.Halted {
		return nil, domain.ErrAuctionHalted
	}
	return a, nil
}

// touch returns a private copy of the auction to modify
func (u *unit) touch(id uint64) *auction.Auction {
	u.changed = true
	for _, t := range u.touched {
		if t == id {
			return u.st.Auctions[id]
		}
	}
	u.touched = append(u.touched, id)
	return u.st.Touch(id)
}

func (u *unit) onlyOwner(caller domain.Address) error {
	if !caller.Equals(u.st.Config.Owner) {
		return domain.ErrNotOwner
	}
	return nil
}

func (u *unit) requireV2() error {
	if u.st.Version < auction.Version2 {
		return domain.ErrUnsupportedVersion
	}
	return nil
}
