// Package counter provides durable, monotonically increasing correlative
// numbers for sales documents. A store is safe for concurrent writers: the
// increment happens in a single atomic statement, never read-modify-write.
package counter

import "context"

// Store issues correlative numbers for one named sequence.
type Store interface {
	// Next issues the next correlative, strictly greater than every number
	// issued before, durable once the surrounding transaction commits.
	Next(ctx context.Context) (int64, error)
	// Peek returns the last issued correlative without incrementing, or the
	// configured baseline when nothing has been issued yet.
	Peek(ctx context.Context) (int64, error)
}

// Sequence names used across the service.
const (
	SeqQuotation  = "quotation"
	SeqSalesOrder = "sales_order"
)
