package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/salesdesk-io/salesdesk/internal/quotes"
)

// QuotationSource loads quotations for conversion.
type QuotationSource interface {
	Get(ctx context.Context, id int64) (*quotes.Quotation, error)
}

// GenerateOrderRequest carries the conversion parameters.
type GenerateOrderRequest struct {
	QuotationID int64      `json:"quotation_id" validate:"required,gt=0"`
	Date        *time.Time `json:"date,omitempty"`
	Notes       string     `json:"notes,omitempty" validate:"max=500"`
}

// Service generates sales orders from pending quotations. Order generation
// is the only code path that moves a quotation to CONVERTED.
type Service struct {
	repo       Repository
	quotations QuotationSource
}

// NewService constructs an order service.
func NewService(repo Repository, quotations QuotationSource) *Service {
	return &Service{repo: repo, quotations: quotations}
}

// Generate converts a pending quotation into a sales order. The conversion
// guard, order insert, and correlative allocation commit atomically; a lost
// race surfaces as an invalid-status error and writes nothing.
func (s *Service) Generate(ctx context.Context, req GenerateOrderRequest) (*Order, error) {
	q, err := s.quotations.Get(ctx, req.QuotationID)
	if err != nil {
		return nil, err
	}
	// Early check for a friendlier error; the transactional guard below is
	// what actually prevents double conversion.
	if q.Status != quotes.StatusPending {
		return nil, fmt.Errorf("%w: status is %s", quotes.ErrInvalidStatus, q.Status)
	}

	lineRecs := make([]quotes.LineRecord, len(q.Lines))
	for i, line := range q.Lines {
		rec, err := quotes.SerializeLine(line, q.Currency, i+1)
		if err != nil {
			return nil, err
		}
		lineRecs[i] = rec
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.MarkQuotationConverted(ctx, q.ID); err != nil {
			return err
		}

		correlative, err := repo.NextCorrelative(ctx)
		if err != nil {
			return fmt.Errorf("next order correlative: %w", err)
		}

		id, err := repo.Create(ctx, OrderRecord{
			Correlative: correlative,
			QuotationID: q.ID,
			Date:        date,
			ClientName:  q.ClientName,
			TaxID:       q.TaxID,
			SalesRep:    q.SalesRep,
			Currency:    string(q.Currency),
			Notes:       req.Notes,
			Subtotal:    q.Subtotal,
			Tax:         q.Tax,
			Total:       q.Total,
		})
		if err != nil {
			return err
		}
		orderID = id

		for _, rec := range lineRecs {
			if _, err := repo.InsertLine(ctx, orderID, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, orderID)
}

// Get loads an order and reconstructs its line shapes.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cur, err := quotes.ParseCurrency(rec.Currency)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:          rec.ID,
		Correlative: rec.Correlative,
		QuotationID: rec.QuotationID,
		Date:        rec.Date,
		ClientName:  rec.ClientName,
		TaxID:       rec.TaxID,
		SalesRep:    rec.SalesRep,
		Currency:    cur,
		Notes:       rec.Notes,
		Subtotal:    rec.Subtotal,
		Tax:         rec.Tax,
		Total:       rec.Total,
		CreatedAt:   rec.CreatedAt,
	}
	for i, lineRec := range rec.Lines {
		line, err := quotes.DeserializeLine(lineRec, cur)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		line.Seq = i + 1
		order.Lines = append(order.Lines, line)
	}
	return order, nil
}
