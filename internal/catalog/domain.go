package catalog

import "errors"

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry surfaced by search.
type Product struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// PriceCandidate is the result of a live price lookup for one product. The
// Priced discriminant is explicit: an unpriced candidate stays selectable but
// carries no price, it never defaults to zero-as-price.
type PriceCandidate struct {
	ProductCode string  `json:"product_code"`
	Priced      bool    `json:"priced"`
	UnitPrice   float64 `json:"unit_price,omitempty"`
	Source      string  `json:"source,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

const (
	// SourceLive marks a price fetched from the upstream price service.
	SourceLive = "live"
	// SourceCache marks a price served from the redis cache.
	SourceCache = "cache"
)
