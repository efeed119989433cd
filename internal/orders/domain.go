package orders

import (
	"errors"
	"time"

	"github.com/salesdesk-io/salesdesk/internal/quotes"
)

// ErrNotFound indicates the order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a sales order generated from a quotation. Its monetary fields are
// copied from the source document at conversion time and never recomputed.
type Order struct {
	ID          int64           `json:"id"`
	Correlative int64           `json:"correlative"`
	QuotationID int64           `json:"quotation_id"`
	Date        time.Time       `json:"date"`
	ClientName  string          `json:"client_name"`
	TaxID       string          `json:"tax_id"`
	SalesRep    string          `json:"sales_rep"`
	Currency    quotes.Currency `json:"currency"`
	Notes       string          `json:"notes,omitempty"`
	Lines       []quotes.Line   `json:"lines"`
	Subtotal    float64         `json:"subtotal"`
	Tax         float64         `json:"tax"`
	Total       float64         `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderRecord is the persisted shape. Lines reuse the quotation line record
// since orders copy them verbatim.
type OrderRecord struct {
	ID          int64               `json:"id" db:"id"`
	Correlative int64               `json:"correlative" db:"correlative"`
	QuotationID int64               `json:"quotation_id" db:"quotation_id"`
	Date        time.Time           `json:"date" db:"order_date"`
	ClientName  string              `json:"client_name" db:"client_name"`
	TaxID       string              `json:"tax_id" db:"tax_id"`
	SalesRep    string              `json:"sales_rep" db:"sales_rep"`
	Currency    string              `json:"currency" db:"currency"`
	Notes       string              `json:"notes" db:"notes"`
	Subtotal    float64             `json:"subtotal" db:"subtotal"`
	Tax         float64             `json:"tax" db:"tax_amount"`
	Total       float64             `json:"total" db:"total_amount"`
	CreatedAt   time.Time           `json:"created_at" db:"created_at"`
	Lines       []quotes.LineRecord `json:"lines" db:"-"`
}
