package quotes

import (
	"fmt"

	"github.com/salesdesk-io/salesdesk/internal/pricing"
)

// Editable line field names accepted by Ledger.UpdateField.
const (
	FieldProductCode  = "product_code"
	FieldProductName  = "product_name"
	FieldListPrice    = "list_price"
	FieldQuantity     = "quantity"
	FieldNetUnitPrice = "net_unit_price"
	FieldDiscount1    = "d1"
	FieldDiscount2    = "d2"
	FieldDiscount3    = "d3"
	FieldDiscount4    = "d4"
	FieldDiscount5    = "d5"
)

// LineInput carries the caller-supplied fields of a new line.
type LineInput struct {
	ProductCode string
	ProductName string
	ListPrice   float64
	Discounts   pricing.DiscountTiers
	Quantity    int
}

// Ledger owns the ordered line set of one quotation while it is being
// edited. Every mutation re-derives the touched line through the discount
// cascade and recomputes the header totals before returning, so callers
// never observe a state where lines and totals disagree.
//
// Lines are addressed by positional index; the Seq field is a ledger-local
// id that stays stable across removals for UI keying only.
type Ledger struct {
	status  Status
	nextSeq int
	lines   []Line
	totals  pricing.Totals
}

// NewLedger starts an empty ledger for a pending document.
func NewLedger() *Ledger {
	return &Ledger{status: StatusPending, nextSeq: 1}
}

// LedgerFor resumes editing an existing quotation. The quotation's status
// travels with the ledger so that mutations on converted or rejected
// documents are rejected instead of drifting from the order they produced.
func LedgerFor(q *Quotation) *Ledger {
	l := &Ledger{status: q.Status, nextSeq: 1}
	for _, line := range q.Lines {
		if line.Seq >= l.nextSeq {
			l.nextSeq = line.Seq + 1
		}
		l.lines = append(l.lines, line)
	}
	l.recomputeTotals()
	return l
}

func (l *Ledger) guardMutable() error {
	if l.status != StatusPending {
		return fmt.Errorf("%w: status is %s", ErrImmutable, l.status)
	}
	return nil
}

// AddLine validates and appends a line, assigning its sequence id.
func (l *Ledger) AddLine(in LineInput) (Line, error) {
	if err := l.guardMutable(); err != nil {
		return Line{}, err
	}
	if in.Quantity <= 0 {
		return Line{}, fmt.Errorf("quantity must be positive, got %d", in.Quantity)
	}
	net, err := pricing.NetUnitPrice(in.ListPrice, in.Discounts)
	if err != nil {
		return Line{}, err
	}
	line := Line{
		Seq:          l.nextSeq,
		ProductCode:  in.ProductCode,
		ProductName:  in.ProductName,
		ListPrice:    in.ListPrice,
		Discounts:    in.Discounts,
		NetUnitPrice: net,
		Quantity:     in.Quantity,
		LineTotal:    pricing.LineTotal(net, in.Quantity),
	}
	l.nextSeq++
	l.lines = append(l.lines, line)
	l.recomputeTotals()
	return line, nil
}

// UpdateField parses a raw field edit, re-derives the line through the
// cascade and recomputes totals. Direct net-price edits are rejected with
// ErrNetPriceNotEditable: the cascade is the only source of net prices.
func (l *Ledger) UpdateField(index int, field, raw string) error {
	if err := l.guardMutable(); err != nil {
		return err
	}
	if index < 0 || index >= len(l.lines) {
		return fmt.Errorf("line index %d out of range", index)
	}
	line := l.lines[index]

	switch field {
	case FieldProductCode:
		line.ProductCode = raw
	case FieldProductName:
		line.ProductName = raw
	case FieldNetUnitPrice:
		return ErrNetPriceNotEditable
	case FieldListPrice:
		v, err := pricing.ParseAmount(raw)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("list price must not be negative, got %v", v)
		}
		line.ListPrice = v
	case FieldQuantity:
		qty, err := pricing.ParseQuantity(raw)
		if err != nil {
			return err
		}
		line.Quantity = qty
	case FieldDiscount1, FieldDiscount2, FieldDiscount3, FieldDiscount4, FieldDiscount5:
		v, err := pricing.ParseAmount(raw)
		if err != nil {
			return err
		}
		tier := int(field[1] - '0')
		line.Discounts[tier-1] = v
	default:
		return fmt.Errorf("unknown line field %q", field)
	}

	net, err := pricing.NetUnitPrice(line.ListPrice, line.Discounts)
	if err != nil {
		return err
	}
	line.NetUnitPrice = net
	line.LineTotal = pricing.LineTotal(net, line.Quantity)

	l.lines[index] = line
	l.recomputeTotals()
	return nil
}

// RemoveLine deletes a line by positional index. Remaining lines keep their
// sequence ids; positions shift down.
func (l *Ledger) RemoveLine(index int) error {
	if err := l.guardMutable(); err != nil {
		return err
	}
	if index < 0 || index >= len(l.lines) {
		return fmt.Errorf("line index %d out of range", index)
	}
	l.lines = append(l.lines[:index], l.lines[index+1:]...)
	l.recomputeTotals()
	return nil
}

// Lines returns a copy of the current line set.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// Totals returns the header totals for the current line set.
func (l *Ledger) Totals() pricing.Totals {
	return l.totals
}

func (l *Ledger) recomputeTotals() {
	lineTotals := make([]float64, len(l.lines))
	for i, line := range l.lines {
		lineTotals[i] = line.LineTotal
	}
	l.totals = pricing.ComputeTotals(lineTotals)
}
