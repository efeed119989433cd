// Package pricing holds the shared price arithmetic for quotation documents.
// Every caller that derives a unit price or a document total goes through
// this package; there is intentionally no second implementation anywhere.
package pricing

import (
	"fmt"
	"math"
)

// TaxRate is the fixed sales tax applied to quotation subtotals (IGV).
const TaxRate = 0.18

// MaxDiscountTiers is the number of cascading discount slots per line.
const MaxDiscountTiers = 5

// DiscountTiers holds the ordered discount percentages d1..d5.
// Unset tiers are zero.
type DiscountTiers [MaxDiscountTiers]float64

// ErrDiscountOutOfRange is returned when a tier falls outside [0,100].
// Out-of-range tiers are rejected rather than clamped so that data-entry
// mistakes surface instead of silently shrinking.
type ErrDiscountOutOfRange struct {
	Tier  int
	Value float64
}

func (e ErrDiscountOutOfRange) Error() string {
	return fmt.Sprintf("pricing: discount tier %d out of range: %v", e.Tier, e.Value)
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Validate checks every tier against [0,100]. A tier of exactly 100 is legal
// and zeroes the price.
func (d DiscountTiers) Validate() error {
	for i, tier := range d {
		if tier < 0 || tier > 100 {
			return ErrDiscountOutOfRange{Tier: i + 1, Value: tier}
		}
	}
	return nil
}

// NetUnitPrice applies the discount cascade to a list price. Each tier
// discounts the remainder left by the previous tier, so the reductions are
// multiplicative, never summed. The result is rounded to 2 decimals.
func NetUnitPrice(listPrice float64, tiers DiscountTiers) (float64, error) {
	if listPrice < 0 {
		return 0, fmt.Errorf("pricing: negative list price: %v", listPrice)
	}
	if err := tiers.Validate(); err != nil {
		return 0, err
	}
	net := listPrice
	for _, tier := range tiers {
		net *= 1 - tier/100
	}
	return Round2(net), nil
}

// LineTotal derives the extended amount for a line.
func LineTotal(netUnitPrice float64, quantity int) float64 {
	return Round2(netUnitPrice * float64(quantity))
}
