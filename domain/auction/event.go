package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
)

type EventType string

const (
	EventAuctionCreated       EventType = "AuctionCreated"
	EventBidPlaced            EventType = "BidPlaced"
	EventBidRefunded          EventType = "BidRefunded"
	EventAuctionEnded         EventType = "AuctionEnded"
	EventAuctionForceEnded    EventType = "AuctionForceEnded"
	EventPlatformFeeUpdated   EventType = "PlatformFeeUpdated"
	EventFeeTiersUpdated      EventType = "FeeTiersUpdated"
	EventDynamicFeeToggled    EventType = "DynamicFeeToggled"
	EventPaused               EventType = "Paused"
	EventUnpaused             EventType = "Unpaused"
	EventPriceFeedUpdated     EventType = "PriceFeedUpdated"
	EventOwnershipTransferred EventType = "OwnershipTransferred"
	EventTreasuryUpdated      EventType = "TreasuryUpdated"
	EventEngineUpgraded       EventType = "EngineUpgraded"
)

// Event is an observable record of a committed change. Big numbers in Fields
// are decimal strings.
type Event struct {
	Id        string                 `bson:"_id"`
	Type      EventType              `bson:"type"`
	AuctionId *uint64                `bson:"auctionId,omitempty"`
	Actor     domain.Address         `bson:"actor"`
	Fields    map[string]interface{} `bson:"fields,omitempty"`
	Time      time.Time              `bson:"time"`
	OpId      string                 `bson:"opId,omitempty"`
}

func NewEvent(typ EventType, actor domain.Address, now time.Time, fields map[string]interface{}) *Event {
	return &Event{
		Id:     uuid.NewString(),
		Type:   typ,
		Actor:  actor,
		Fields: fields,
		Time:   now,
	}
}

// For sets the auction the event belongs to
func (e *Event) For(id uint64) *Event {
	e.AuctionId = &id
	return e
}

type EventFindAllOptions struct {
	AuctionId *uint64
	Type      *EventType
	Limit     *int64
}

type EventFindAllOptionsFunc func(*EventFindAllOptions) error

func EventWithAuctionId(id uint64) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.AuctionId = &id
		return nil
	}
}

func EventWithType(t EventType) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.Type = &t
		return nil
	}
}

func EventWithLimit(limit int64) EventFindAllOptionsFunc {
	return func(o *EventFindAllOptions) error {
		o.Limit = &limit
		return nil
	}
}

func GetEventFindAllOptions(opts ...EventFindAllOptionsFunc) (EventFindAllOptions, error) {
	res := EventFindAllOptions{}
	for _, o := range opts {
		if err := o(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// EventRepo stores published events in commit order
type EventRepo interface {
	Publish(c ctx.Ctx, events []*Event) error
	FindAll(c ctx.Ctx, opts ...EventFindAllOptionsFunc) ([]*Event, error)
}
