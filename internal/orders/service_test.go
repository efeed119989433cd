package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk-io/salesdesk/internal/pricing"
	"github.com/salesdesk-io/salesdesk/internal/quotes"
)

// fakeRepository is an in-memory Repository with snapshot-based rollback.
type fakeRepository struct {
	orders     map[int64]*OrderRecord
	lines      map[int64][]quotes.LineRecord
	quotations map[int64]quotes.Status
	nextID     int64
	counter    int64

	createErr error
}

func newFakeRepository(baseline int64) *fakeRepository {
	return &fakeRepository{
		orders:     make(map[int64]*OrderRecord),
		lines:      make(map[int64][]quotes.LineRecord),
		quotations: make(map[int64]quotes.Status),
		counter:    baseline,
	}
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	orders := make(map[int64]*OrderRecord, len(f.orders))
	for id, rec := range f.orders {
		cp := *rec
		orders[id] = &cp
	}
	lines := make(map[int64][]quotes.LineRecord, len(f.lines))
	for id, ls := range f.lines {
		lines[id] = append([]quotes.LineRecord(nil), ls...)
	}
	quotations := make(map[int64]quotes.Status, len(f.quotations))
	for id, st := range f.quotations {
		quotations[id] = st
	}
	nextID, counter := f.nextID, f.counter

	if err := fn(ctx, f); err != nil {
		f.orders, f.lines, f.quotations = orders, lines, quotations
		f.nextID, f.counter = nextID, counter
		return err
	}
	return nil
}

func (f *fakeRepository) NextCorrelative(ctx context.Context) (int64, error) {
	f.counter++
	return f.counter, nil
}

func (f *fakeRepository) MarkQuotationConverted(ctx context.Context, quotationID int64) error {
	status, ok := f.quotations[quotationID]
	if !ok {
		return quotes.ErrNotFound
	}
	if status != quotes.StatusPending {
		return fmt.Errorf("%w: status is %s", quotes.ErrInvalidStatus, status)
	}
	f.quotations[quotationID] = quotes.StatusConverted
	return nil
}

func (f *fakeRepository) Create(ctx context.Context, rec OrderRecord) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	rec.ID = f.nextID
	rec.Lines = nil
	rec.CreatedAt = time.Now()
	f.orders[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeRepository) InsertLine(ctx context.Context, orderID int64, rec quotes.LineRecord) (int64, error) {
	f.lines[orderID] = append(f.lines[orderID], rec)
	return int64(len(f.lines[orderID])), nil
}

func (f *fakeRepository) Get(ctx context.Context, id int64) (*OrderRecord, error) {
	rec, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.Lines = append([]quotes.LineRecord(nil), f.lines[id]...)
	return &cp, nil
}

type fakeQuotationSource struct {
	quotation *quotes.Quotation
	err       error
}

func (f *fakeQuotationSource) Get(ctx context.Context, id int64) (*quotes.Quotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.quotation == nil || f.quotation.ID != id {
		return nil, quotes.ErrNotFound
	}
	cp := *f.quotation
	return &cp, nil
}

func pendingQuotation() *quotes.Quotation {
	return &quotes.Quotation{
		ID:          7,
		Correlative: 1205,
		Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ClientName:  "Distribuidora Andina SAC",
		TaxID:       "20456789012",
		SalesRep:    "mvega",
		Currency:    quotes.CurrencyPEN,
		Status:      quotes.StatusPending,
		Revision:    2,
		Lines: []quotes.Line{
			{Seq: 1, ProductCode: "PUMP-3", ProductName: "Centrifugal pump", ListPrice: 1800,
				Discounts: pricing.DiscountTiers{5}, NetUnitPrice: 1710, Quantity: 2, LineTotal: 3420},
			{Seq: 2, ProductCode: "FLT-17", ProductName: "Inline filter", ListPrice: 95,
				Discounts: pricing.DiscountTiers{10}, NetUnitPrice: 85.50, Quantity: 10, LineTotal: 855},
		},
		Subtotal: 4275,
		Tax:      769.50,
		Total:    5044.50,
	}
}

func TestService_Generate(t *testing.T) {
	repo := newFakeRepository(500)
	repo.quotations[7] = quotes.StatusPending
	svc := NewService(repo, &fakeQuotationSource{quotation: pendingQuotation()})

	order, err := svc.Generate(context.Background(), GenerateOrderRequest{QuotationID: 7, Notes: "deliver to warehouse 2"})
	require.NoError(t, err)

	assert.Equal(t, int64(501), order.Correlative)
	assert.Equal(t, int64(7), order.QuotationID)
	assert.Equal(t, quotes.CurrencyPEN, order.Currency)
	// Monetary fields are copied, never recomputed.
	assert.Equal(t, 4275.0, order.Subtotal)
	assert.Equal(t, 769.50, order.Tax)
	assert.Equal(t, 5044.50, order.Total)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, 1710.0, order.Lines[0].NetUnitPrice)
	assert.Equal(t, 855.0, order.Lines[1].LineTotal)

	assert.Equal(t, quotes.StatusConverted, repo.quotations[7])
}

func TestService_GenerateRejectsNonPending(t *testing.T) {
	for _, status := range []quotes.Status{quotes.StatusConverted, quotes.StatusRejected} {
		repo := newFakeRepository(500)
		repo.quotations[7] = status
		q := pendingQuotation()
		q.Status = status
		svc := NewService(repo, &fakeQuotationSource{quotation: q})

		_, err := svc.Generate(context.Background(), GenerateOrderRequest{QuotationID: 7})
		require.ErrorIs(t, err, quotes.ErrInvalidStatus, "status %s", status)
		assert.Empty(t, repo.orders)
	}
}

func TestService_GenerateLosesConversionRace(t *testing.T) {
	repo := newFakeRepository(500)
	// The source still sees PENDING, but another writer converted first.
	repo.quotations[7] = quotes.StatusConverted
	svc := NewService(repo, &fakeQuotationSource{quotation: pendingQuotation()})

	_, err := svc.Generate(context.Background(), GenerateOrderRequest{QuotationID: 7})
	require.ErrorIs(t, err, quotes.ErrInvalidStatus)

	assert.Empty(t, repo.orders)
	assert.Equal(t, int64(500), repo.counter, "a lost race must not burn an order number")
}

func TestService_GenerateRollsBackOnFailure(t *testing.T) {
	repo := newFakeRepository(500)
	repo.quotations[7] = quotes.StatusPending
	repo.createErr = errors.New("insert blew up")
	svc := NewService(repo, &fakeQuotationSource{quotation: pendingQuotation()})

	_, err := svc.Generate(context.Background(), GenerateOrderRequest{QuotationID: 7})
	require.Error(t, err)

	// Everything rolls back together: status, counter, rows.
	assert.Equal(t, quotes.StatusPending, repo.quotations[7])
	assert.Equal(t, int64(500), repo.counter)
	assert.Empty(t, repo.orders)
}

func TestService_GetNotFound(t *testing.T) {
	repo := newFakeRepository(500)
	svc := NewService(repo, &fakeQuotationSource{})

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}
