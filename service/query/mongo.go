// Package query wraps https://github.com/mongodb/mongo-go-driver with the
// calls the auction repositories need. Read the testcases for usage.
package query

import (
	"fmt"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrCollScan is error for unindexed query
	ErrCollScan = fmt.Errorf("COLLSCAN is not allowed")
)

// UpsertOp replaces the document matching Selector with Updater
type UpsertOp struct {
	Selector interface{}
	Updater  interface{}
}

type Mongo interface {
	// InsertMany inserts documents in order, stopping at the first failure
	InsertMany(context ctx.Ctx, table domain.Table, inserts []interface{}) error

	// FindOne returns ErrNotFound when nothing matches
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Upsert replaces the entry matching selector, or inserts it.
	Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Search sort order by `sort` argument (ex "timestamp" ascending, or "-timestamp" descending)
	// if `sort` is "", the sort action is skipped. limit 0 means no limit.
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// SearchNSorts sort with multiple fields
	SearchNSorts(context ctx.Ctx, table domain.Table, offset, limit int, sortFields []string, query, results interface{}) error

	// Patch $sets update on the first entry matching selector, ErrNotFound if none does
	Patch(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// BulkUpsert performs multiple upsert operations, unordered.
	BulkUpsert(context ctx.Ctx, table domain.Table, BulkOps []UpsertOp) (matchedCnt int64, modifiedCnt int64, err error)

	// RunWithTransaction runs run in a session transaction. A write failing
	// inside run aborts every write made through the ctx it is given.
	RunWithTransaction(context ctx.Ctx, run func(ctx.Ctx) error) error
}
