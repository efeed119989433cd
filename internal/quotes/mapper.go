package quotes

import (
	"fmt"
	"time"

	"github.com/salesdesk-io/salesdesk/internal/pricing"
)

// LineRecord is the persisted shape of a quotation line. It stores the
// aggregated line total in a currency-branched pair of fields plus five
// fixed discount slots; the unit price is never persisted and is
// reconstructed on load.
type LineRecord struct {
	ID          int64    `json:"id" db:"id"`
	ProductCode string   `json:"product_code" db:"product_code"`
	ProductName string   `json:"product_name" db:"product_name"`
	Quantity    int      `json:"quantity" db:"quantity"`
	Discount1   float64  `json:"d1" db:"d1"`
	Discount2   float64  `json:"d2" db:"d2"`
	Discount3   float64  `json:"d3" db:"d3"`
	Discount4   float64  `json:"d4" db:"d4"`
	Discount5   float64  `json:"d5" db:"d5"`
	TotalPEN    float64  `json:"total_pen" db:"total_pen"`
	TotalUSD    float64  `json:"total_usd" db:"total_usd"`
	ListPEN     *float64 `json:"list_pen,omitempty" db:"list_pen"`
	ListUSD     *float64 `json:"list_usd,omitempty" db:"list_usd"`
	LineOrder   int      `json:"line_order" db:"line_order"`
}

// QuotationRecord is the persisted shape of a quotation document.
type QuotationRecord struct {
	ID          int64        `json:"id" db:"id"`
	Correlative int64        `json:"correlative" db:"correlative"`
	Date        time.Time    `json:"date" db:"quote_date"`
	ClientName  string       `json:"client_name" db:"client_name"`
	TaxID       string       `json:"tax_id" db:"tax_id"`
	SalesRep    string       `json:"sales_rep" db:"sales_rep"`
	Currency    string       `json:"currency" db:"currency"`
	Status      Status       `json:"status" db:"status"`
	Revision    int          `json:"revision" db:"revision"`
	Subtotal    float64      `json:"subtotal" db:"subtotal"`
	Tax         float64      `json:"tax" db:"tax_amount"`
	Total       float64      `json:"total" db:"total_amount"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	Lines       []LineRecord `json:"lines" db:"-"`
}

// SerializeLine maps an editable line onto the persisted shape, writing the
// line total into the field branch matching the document currency and all
// five discount tiers verbatim.
func SerializeLine(line Line, cur Currency, order int) (LineRecord, error) {
	rec := LineRecord{
		ProductCode: line.ProductCode,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		Discount1:   line.Discounts[0],
		Discount2:   line.Discounts[1],
		Discount3:   line.Discounts[2],
		Discount4:   line.Discounts[3],
		Discount5:   line.Discounts[4],
		LineOrder:   order,
	}
	list := line.ListPrice
	switch cur {
	case CurrencyPEN:
		rec.TotalPEN = line.LineTotal
		rec.ListPEN = &list
	case CurrencyUSD:
		rec.TotalUSD = line.LineTotal
		rec.ListUSD = &list
	default:
		return LineRecord{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, cur)
	}
	return rec, nil
}

// DeserializeLine reconstructs the editable shape from a persisted record.
// The net unit price is rebuilt as total/quantity; a zero quantity yields a
// zero net price, and a zero quantity paired with a non-zero total is a hard
// data-integrity failure rather than a division blowup.
//
// When the list-price branch is absent the list price is unknowable: the
// line degrades to list = net with all discounts zero. That loses the
// original discount split and is an accepted, documented precision loss.
func DeserializeLine(rec LineRecord, cur Currency) (Line, error) {
	var total float64
	var list *float64
	switch cur {
	case CurrencyPEN:
		total = rec.TotalPEN
		list = rec.ListPEN
	case CurrencyUSD:
		total = rec.TotalUSD
		list = rec.ListUSD
	default:
		return Line{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, cur)
	}

	var net float64
	if rec.Quantity == 0 {
		if total != 0 {
			return Line{}, fmt.Errorf("%w: stored total %v with zero quantity", ErrDataIntegrity, total)
		}
		net = 0
	} else {
		net = pricing.Round2(total / float64(rec.Quantity))
	}

	line := Line{
		ProductCode:  rec.ProductCode,
		ProductName:  rec.ProductName,
		NetUnitPrice: net,
		Quantity:     rec.Quantity,
		LineTotal:    total,
	}
	if list != nil {
		line.ListPrice = *list
		line.Discounts = pricing.DiscountTiers{
			rec.Discount1, rec.Discount2, rec.Discount3, rec.Discount4, rec.Discount5,
		}
	} else {
		line.ListPrice = net
	}
	return line, nil
}

// Serialize maps a quotation into its persisted record. Header totals are
// recomputed from the line set, never copied from hand-edited fields.
func Serialize(q *Quotation) (*QuotationRecord, error) {
	cur, err := ParseCurrency(string(q.Currency))
	if err != nil {
		return nil, err
	}

	rec := &QuotationRecord{
		ID:          q.ID,
		Correlative: q.Correlative,
		Date:        q.Date,
		ClientName:  q.ClientName,
		TaxID:       q.TaxID,
		SalesRep:    q.SalesRep,
		Currency:    string(cur),
		Status:      q.Status,
		Revision:    q.Revision,
	}

	lineTotals := make([]float64, len(q.Lines))
	for i, line := range q.Lines {
		lineRec, err := SerializeLine(line, cur, i+1)
		if err != nil {
			return nil, err
		}
		rec.Lines = append(rec.Lines, lineRec)
		lineTotals[i] = line.LineTotal
	}

	totals := pricing.ComputeTotals(lineTotals)
	rec.Subtotal = totals.Subtotal
	rec.Tax = totals.Tax
	rec.Total = totals.Total
	return rec, nil
}

// Deserialize reconstructs the editable document from its persisted record.
func Deserialize(rec *QuotationRecord) (*Quotation, error) {
	cur, err := ParseCurrency(rec.Currency)
	if err != nil {
		return nil, err
	}

	q := &Quotation{
		ID:          rec.ID,
		Correlative: rec.Correlative,
		Date:        rec.Date,
		ClientName:  rec.ClientName,
		TaxID:       rec.TaxID,
		SalesRep:    rec.SalesRep,
		Currency:    cur,
		Status:      rec.Status,
		Revision:    rec.Revision,
		Subtotal:    rec.Subtotal,
		Tax:         rec.Tax,
		Total:       rec.Total,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	for i, lineRec := range rec.Lines {
		line, err := DeserializeLine(lineRec, cur)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		line.Seq = i + 1
		q.Lines = append(q.Lines, line)
	}
	return q, nil
}
