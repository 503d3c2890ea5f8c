package domain

// Table is a mongo collection name
type Table string

const (
	TableEngineState   Table = "engine_state"
	TableAuctions      Table = "auctions"
	TableAuctionEvents Table = "auction_events"
	TablePayTokens     Table = "pay_tokens"
)
