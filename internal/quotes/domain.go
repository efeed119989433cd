package quotes

import (
	"errors"
	"fmt"
	"time"

	"github.com/salesdesk-io/salesdesk/internal/pricing"
)

var (
	// ErrNotFound indicates the quotation does not exist.
	ErrNotFound = errors.New("quotation not found")
	// ErrInvalidStatus indicates a disallowed lifecycle transition.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrImmutable indicates a mutation attempt on a non-pending quotation.
	ErrImmutable = errors.New("quotation is no longer editable")
	// ErrStaleRevision indicates an update against an outdated revision.
	ErrStaleRevision = errors.New("quotation was modified by someone else")
	// ErrNetPriceNotEditable indicates a direct net-price edit. Net unit
	// prices are always derived from the list price and discount tiers.
	ErrNetPriceNotEditable = errors.New("net unit price is derived, edit list price or discount tiers")
	// ErrUnknownCurrency indicates a currency code with no persisted branch.
	ErrUnknownCurrency = errors.New("unknown currency code")
	// ErrDataIntegrity indicates a persisted document that cannot be
	// reconstructed, such as a zero quantity with a non-zero stored total.
	ErrDataIntegrity = errors.New("quotation data integrity violation")
	// ErrEmptyLines indicates a register or update with no lines.
	ErrEmptyLines = errors.New("quotation requires at least one line")
)

// Status tracks the quotation lifecycle. PENDING is the only editable state;
// CONVERTED and REJECTED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConverted Status = "CONVERTED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusRejected
}

// CanTransitionTo validates a lifecycle transition.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusConverted || next == StatusRejected
}

// Currency is one of the two supported document currencies. Each maps 1:1 to
// a branch of monetary fields in the persisted schema.
type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency resolves a currency code. A third code is a mapper error,
// never a silently applied default.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case CurrencyPEN:
		return CurrencyPEN, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
}

// Line is the editable shape of a quotation line. NetUnitPrice and LineTotal
// are always derived; no code path persists a net price that the cascade
// cannot reproduce from ListPrice and Discounts.
type Line struct {
	Seq          int                   `json:"seq"`
	ProductCode  string                `json:"product_code"`
	ProductName  string                `json:"product_name"`
	ListPrice    float64               `json:"list_price"`
	Discounts    pricing.DiscountTiers `json:"discounts"`
	NetUnitPrice float64               `json:"net_unit_price"`
	Quantity     int                   `json:"quantity"`
	LineTotal    float64               `json:"line_total"`
}

// Quotation is the editable document shape served to callers.
type Quotation struct {
	ID          int64     `json:"id"`
	Correlative int64     `json:"correlative"`
	Date        time.Time `json:"date"`
	ClientName  string    `json:"client_name"`
	TaxID       string    `json:"tax_id"`
	SalesRep    string    `json:"sales_rep"`
	Currency    Currency  `json:"currency"`
	Status      Status    `json:"status"`
	Revision    int       `json:"revision"`
	Lines       []Line    `json:"lines"`
	Subtotal    float64   `json:"subtotal"`
	Tax         float64   `json:"tax"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is a listing row.
type Summary struct {
	ID          int64     `json:"id"`
	Correlative int64     `json:"correlative"`
	Date        time.Time `json:"date"`
	ClientName  string    `json:"client_name"`
	TaxID       string    `json:"tax_id"`
	SalesRep    string    `json:"sales_rep"`
	Total       float64   `json:"total"`
	Status      Status    `json:"status"`
	Currency    Currency  `json:"currency"`
}
