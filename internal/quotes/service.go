package quotes

import (
	"context"
	"fmt"
)

// Service provides business logic for quotation documents.
type Service struct {
	repo Repository
}

// NewService constructs a quotation service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// buildLedger runs every requested line through the shared cascade. All
// pricing validation (discount ranges, quantities) happens here, before any
// network or database work.
func buildLedger(lines []LineRequest) (*Ledger, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyLines
	}
	ledger := NewLedger()
	for i, lr := range lines {
		_, err := ledger.AddLine(LineInput{
			ProductCode: lr.ProductCode,
			ProductName: lr.ProductName,
			ListPrice:   lr.ListPrice,
			Discounts:   lr.Tiers(),
			Quantity:    lr.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return ledger, nil
}

// Register validates and persists a new quotation, assigning its correlative
// number inside the same transaction so a failed registration never burns a
// number.
func (s *Service) Register(ctx context.Context, req RegisterQuotationRequest) (*Quotation, error) {
	cur, err := ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	ledger, err := buildLedger(req.Lines)
	if err != nil {
		return nil, err
	}
	if totals := ledger.Totals(); totals.Total <= 0 {
		return nil, fmt.Errorf("computed total must be positive, got %v", totals.Total)
	}

	quotation := &Quotation{
		Date:       req.Date,
		ClientName: req.ClientName,
		TaxID:      req.TaxID,
		SalesRep:   req.SalesRep,
		Currency:   cur,
		Status:     StatusPending,
		Revision:   1,
		Lines:      ledger.Lines(),
	}
	rec, err := Serialize(quotation)
	if err != nil {
		return nil, err
	}

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		correlative, err := repo.NextCorrelative(ctx)
		if err != nil {
			return fmt.Errorf("next correlative: %w", err)
		}
		rec.Correlative = correlative

		id, err := repo.Create(ctx, *rec)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quotationID = id

		for _, lineRec := range rec.Lines {
			if _, err := repo.InsertLine(ctx, quotationID, lineRec); err != nil {
				return fmt.Errorf("insert quotation line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, quotationID)
}

// Update edits a pending quotation. The caller's revision must match the
// stored one; converted and rejected documents are immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != StatusPending {
		return nil, fmt.Errorf("%w: status is %s", ErrImmutable, existing.Status)
	}
	if req.Revision != existing.Revision {
		return nil, fmt.Errorf("%w: have revision %d, expected %d", ErrStaleRevision, req.Revision, existing.Revision)
	}

	updates := make(map[string]interface{})
	if req.Date != nil {
		updates["quote_date"] = *req.Date
	}
	if req.ClientName != nil {
		updates["client_name"] = *req.ClientName
	}
	if req.TaxID != nil {
		updates["tax_id"] = *req.TaxID
	}
	if req.SalesRep != nil {
		updates["sales_rep"] = *req.SalesRep
	}

	var newLines []LineRecord
	if req.Lines != nil {
		ledger, err := buildLedger(*req.Lines)
		if err != nil {
			return nil, err
		}
		totals := ledger.Totals()
		if totals.Total <= 0 {
			return nil, fmt.Errorf("computed total must be positive, got %v", totals.Total)
		}
		updates["subtotal"] = totals.Subtotal
		updates["tax_amount"] = totals.Tax
		updates["total_amount"] = totals.Total

		for i, line := range ledger.Lines() {
			lineRec, err := SerializeLine(line, existing.Currency, i+1)
			if err != nil {
				return nil, err
			}
			newLines = append(newLines, lineRec)
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, id, req.Revision, updates); err != nil {
			return err
		}
		if req.Lines != nil {
			if err := repo.DeleteLines(ctx, id); err != nil {
				return fmt.Errorf("delete quotation lines: %w", err)
			}
			for _, lineRec := range newLines {
				if _, err := repo.InsertLine(ctx, id, lineRec); err != nil {
					return fmt.Errorf("insert quotation line: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Reject moves a pending quotation to its terminal REJECTED state.
func (s *Service) Reject(ctx context.Context, id int64) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.UpdateStatusIfPending(ctx, id, StatusRejected)
	})
	if err != nil {
		return nil, fmt.Errorf("reject quotation: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads a quotation and reconstructs its editable shape.
func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Deserialize(rec)
}

// List returns a filtered, paginated listing.
func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// PeekCorrelative previews the next document number without consuming it.
// The displayed value is the last issued one; the number actually assigned
// at registration may be higher if another writer registered in between.
func (s *Service) PeekCorrelative(ctx context.Context) (int64, error) {
	return s.repo.PeekCorrelative(ctx)
}
