package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
	"github.com/x-xyz/auction/domain/auction"
	"github.com/x-xyz/auction/service/query"
)

var ErrIncompleteState = xerrors.New("stored auctions do not match the state document")

type stateMongoRepo struct {
	q      query.Mongo
	engine domain.Address
	now    func() time.Time
}

// NewStateMongoRepo stores the state of the engine at address engine in a meta
// document plus one document per auction.
func NewStateMongoRepo(q query.Mongo, engine domain.Address) auction.StateRepo {
	return &stateMongoRepo{
		q:      q,
		engine: engine,
		now:    time.Now,
	}
}

func (r *stateMongoRepo) Load(c ctx.Ctx) (*auction.State, error) {
	doc := &stateDoc{}
	if err := r.q.FindOne(c, domain.TableEngineState, bson.M{"_id": r.engine.ToLowerStr()}, doc); err == query.ErrNotFound {
		return nil, domain.ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	s, err := doc.toState()
	if err != nil {
		c.WithField("err", err).Error("doc.toState failed")
		return nil, err
	}

	docs := []*auctionDoc{}
	if err := r.q.Search(c, domain.TableAuctions, 0, 0, "auctionId", bson.M{"engine": r.engine.ToLowerStr()}, &docs); err != nil {
		c.WithField("err", err).Error("q.Search failed")
		return nil, err
	}
	if uint64(len(docs)) < doc.AuctionCount {
		c.WithFields(log.Fields{
			"expected": doc.AuctionCount,
			"found":    len(docs),
		}).Error("missing auctions")
		return nil, ErrIncompleteState
	}
	for i, d := range docs[:doc.AuctionCount] {
		if d.AuctionId != uint64(i) {
			c.WithFields(log.Fields{"expected": i, "found": d.AuctionId}).Error("auction id gap")
			return nil, ErrIncompleteState
		}
		a, err := d.toAuction()
		if err != nil {
			c.WithFields(log.Fields{"err": err, "auctionId": d.AuctionId}).Error("doc.toAuction failed")
			return nil, err
		}
		s.Auctions = append(s.Auctions, a)
	}
	return s, nil
}

// Save writes the meta document and the touched auctions in one transaction.
// A nil touched rewrites every auction.
func (r *stateMongoRepo) Save(c ctx.Ctx, s *auction.State, touched []uint64) error {
	ops := []query.UpsertOp{}
	add := func(a *auction.Auction) {
		ops = append(ops, query.UpsertOp{
			Selector: auctionKey{Engine: r.engine.ToLowerStr(), AuctionId: a.Id},
			Updater:  toAuctionDoc(r.engine, a),
		})
	}
	if touched == nil {
		for _, a := range s.Auctions {
			add(a)
		}
	} else {
		for _, id := range touched {
			if a, ok := s.Get(id); ok {
				add(a)
			}
		}
	}

	meta := toStateDoc(s, r.now())
	return r.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		if len(ops) > 0 {
			if _, _, err := r.q.BulkUpsert(c, domain.TableAuctions, ops); err != nil {
				c.WithFields(log.Fields{"err": err, "count": len(ops)}).Error("q.BulkUpsert failed")
				return err
			}
		}
		if err := r.q.Upsert(c, domain.TableEngineState, bson.M{"_id": meta.Id}, meta); err != nil {
			c.WithField("err", err).Error("q.Upsert failed")
			return err
		}
		return nil
	})
}

// eventDoc keeps the position of an event inside its publish batch so events
// sharing a timestamp read back in commit order
type eventDoc struct {
	auction.Event `bson:",inline"`
	Index         int `bson:"index"`
}

type eventMongoRepo struct {
	q query.Mongo
}

func NewEventMongoRepo(q query.Mongo) auction.EventRepo {
	return &eventMongoRepo{q: q}
}

func (r *eventMongoRepo) Publish(c ctx.Ctx, events []*auction.Event) error {
	docs := make([]interface{}, 0, len(events))
	for i, e := range events {
		docs = append(docs, &eventDoc{Event: *e, Index: i})
	}
	if err := r.q.InsertMany(c, domain.TableAuctionEvents, docs); err != nil {
		c.WithField("err", err).Error("q.InsertMany failed")
		return err
	}
	return nil
}

func (r *eventMongoRepo) FindAll(c ctx.Ctx, optFns ...auction.EventFindAllOptionsFunc) ([]*auction.Event, error) {
	opts, err := auction.GetEventFindAllOptions(optFns...)
	if err != nil {
		c.WithField("err", err).Error("GetEventFindAllOptions failed")
		return nil, err
	}
	qry := bson.M{}
	if opts.AuctionId != nil {
		qry["auctionId"] = *opts.AuctionId
	}
	if opts.Type != nil {
		qry["type"] = *opts.Type
	}
	limit := 0
	if opts.Limit != nil {
		limit = int(*opts.Limit)
	}

	docs := []*eventDoc{}
	if err := r.q.SearchNSorts(c, domain.TableAuctionEvents, 0, limit, []string{"time", "index"}, qry, &docs); err != nil {
		c.WithField("err", err).Error("q.SearchNSorts failed")
		return nil, err
	}
	res := make([]*auction.Event, len(docs))
	for i, d := range docs {
		e := d.Event
		res[i] = &e
	}
	return res, nil
}
