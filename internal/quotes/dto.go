package quotes

import (
	"time"

	"github.com/salesdesk-io/salesdesk/internal/pricing"
)

type LineRequest struct {
	ProductCode string    `json:"product_code" validate:"required,max=50"`
	ProductName string    `json:"product_name" validate:"required,max=200"`
	ListPrice   float64   `json:"list_price" validate:"gte=0"`
	Discounts   []float64 `json:"discounts" validate:"max=5,dive,gte=0,lte=100"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
}

// Tiers widens the variable-length request slice to the five fixed slots.
func (r LineRequest) Tiers() pricing.DiscountTiers {
	var tiers pricing.DiscountTiers
	for i, d := range r.Discounts {
		if i >= pricing.MaxDiscountTiers {
			break
		}
		tiers[i] = d
	}
	return tiers
}

type RegisterQuotationRequest struct {
	Date       time.Time     `json:"date" validate:"required"`
	ClientName string        `json:"client_name" validate:"required,max=200"`
	TaxID      string        `json:"tax_id" validate:"required,max=20"`
	SalesRep   string        `json:"sales_rep" validate:"required,max=100"`
	Currency   string        `json:"currency" validate:"required"`
	Lines      []LineRequest `json:"lines" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	Revision   int            `json:"revision" validate:"gte=0"`
	Date       *time.Time     `json:"date,omitempty"`
	ClientName *string        `json:"client_name,omitempty" validate:"omitempty,max=200"`
	TaxID      *string        `json:"tax_id,omitempty" validate:"omitempty,max=20"`
	SalesRep   *string        `json:"sales_rep,omitempty" validate:"omitempty,max=100"`
	Lines      *[]LineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListQuotationsRequest struct {
	ClientName *string    `json:"client_name,omitempty"`
	TaxID      *string    `json:"tax_id,omitempty"`
	Status     *Status    `json:"status,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	Limit      int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int        `json:"offset" validate:"gte=0"`
}
