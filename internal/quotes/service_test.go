package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory Repository. WithTx snapshots the state and
// restores it when the closure fails, mirroring a rolled-back transaction.
type fakeRepository struct {
	mu         sync.Mutex
	quotations map[int64]*QuotationRecord
	lines      map[int64][]LineRecord
	nextID     int64
	nextLineID int64
	baseline   int64
	counter    int64

	createErr     error
	insertLineErr error
}

func newFakeRepository(baseline int64) *fakeRepository {
	return &fakeRepository{
		quotations: make(map[int64]*QuotationRecord),
		lines:      make(map[int64][]LineRecord),
		baseline:   baseline,
		counter:    baseline,
	}
}

func (f *fakeRepository) snapshot() (map[int64]*QuotationRecord, map[int64][]LineRecord, int64, int64, int64) {
	quotations := make(map[int64]*QuotationRecord, len(f.quotations))
	for id, rec := range f.quotations {
		cp := *rec
		quotations[id] = &cp
	}
	lines := make(map[int64][]LineRecord, len(f.lines))
	for id, ls := range f.lines {
		lines[id] = append([]LineRecord(nil), ls...)
	}
	return quotations, lines, f.nextID, f.nextLineID, f.counter
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	f.mu.Lock()
	quotations, lines, nextID, nextLineID, counter := f.snapshot()
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		f.quotations, f.lines = quotations, lines
		f.nextID, f.nextLineID, f.counter = nextID, nextLineID, counter
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepository) NextCorrelative(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return f.counter, nil
}

func (f *fakeRepository) PeekCorrelative(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counter, nil
}

func (f *fakeRepository) Get(ctx context.Context, id int64) (*QuotationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	cp.Lines = append([]LineRecord(nil), f.lines[id]...)
	return &cp, nil
}

func (f *fakeRepository) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var summaries []Summary
	for _, rec := range f.quotations {
		if req.Status != nil && rec.Status != *req.Status {
			continue
		}
		summaries = append(summaries, Summary{
			ID:          rec.ID,
			Correlative: rec.Correlative,
			ClientName:  rec.ClientName,
			Total:       rec.Total,
			Status:      rec.Status,
			Currency:    Currency(rec.Currency),
		})
	}
	return summaries, len(summaries), nil
}

func (f *fakeRepository) Create(ctx context.Context, rec QuotationRecord) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec.ID = f.nextID
	rec.Lines = nil
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	f.quotations[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeRepository) UpdateHeader(ctx context.Context, id int64, expectedRevision int, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.quotations[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Revision != expectedRevision {
		return ErrStaleRevision
	}
	if v, ok := updates["quote_date"]; ok {
		rec.Date = v.(time.Time)
	}
	if v, ok := updates["client_name"]; ok {
		rec.ClientName = v.(string)
	}
	if v, ok := updates["tax_id"]; ok {
		rec.TaxID = v.(string)
	}
	if v, ok := updates["sales_rep"]; ok {
		rec.SalesRep = v.(string)
	}
	if v, ok := updates["subtotal"]; ok {
		rec.Subtotal = v.(float64)
	}
	if v, ok := updates["tax_amount"]; ok {
		rec.Tax = v.(float64)
	}
	if v, ok := updates["total_amount"]; ok {
		rec.Total = v.(float64)
	}
	rec.Revision++
	rec.UpdatedAt = time.Now()
	return nil
}

func (f *fakeRepository) InsertLine(ctx context.Context, quotationID int64, rec LineRecord) (int64, error) {
	if f.insertLineErr != nil {
		return 0, f.insertLineErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextLineID++
	rec.ID = f.nextLineID
	f.lines[quotationID] = append(f.lines[quotationID], rec)
	return rec.ID, nil
}

func (f *fakeRepository) DeleteLines(ctx context.Context, quotationID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lines, quotationID)
	return nil
}

func (f *fakeRepository) UpdateStatusIfPending(ctx context.Context, id int64, next Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.quotations[id]
	if !ok {
		return ErrNotFound
	}
	if !rec.Status.CanTransitionTo(next) {
		return errors.Join(ErrInvalidStatus, errors.New("status is "+string(rec.Status)))
	}
	rec.Status = next
	rec.Revision++
	return nil
}

func registerRequest() RegisterQuotationRequest {
	return RegisterQuotationRequest{
		Date:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ClientName: "Distribuidora Andina SAC",
		TaxID:      "20456789012",
		SalesRep:   "mvega",
		Currency:   "PEN",
		Lines: []LineRequest{
			{ProductCode: "PUMP-3", ProductName: "Centrifugal pump", ListPrice: 1800, Discounts: []float64{5}, Quantity: 2},
			{ProductCode: "FLT-17", ProductName: "Inline filter", ListPrice: 95, Discounts: []float64{10}, Quantity: 10},
		},
	}
}

func TestService_Register(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1201), q.Correlative)
	assert.Equal(t, StatusPending, q.Status)
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, 4275.0, q.Subtotal)
	assert.Equal(t, 769.50, q.Tax)
	assert.Equal(t, 5044.50, q.Total)
	require.Len(t, q.Lines, 2)
	assert.Equal(t, 1710.0, q.Lines[0].NetUnitPrice)
	assert.Equal(t, 85.50, q.Lines[1].NetUnitPrice)
}

func TestService_RegisterAssignsMonotonicCorrelatives(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	var previous int64 = 1200
	for i := 0; i < 5; i++ {
		q, err := svc.Register(context.Background(), registerRequest())
		require.NoError(t, err)
		assert.Equal(t, previous+1, q.Correlative)
		previous = q.Correlative
	}
}

func TestService_RegisterRollbackDoesNotBurnNumbers(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	repo.createErr = errors.New("insert blew up")
	_, err := svc.Register(context.Background(), registerRequest())
	require.Error(t, err)

	last, err := repo.PeekCorrelative(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), last)

	repo.createErr = nil
	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1201), q.Correlative)
}

func TestService_RegisterRejectsBadRequests(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	req := registerRequest()
	req.Currency = "EUR"
	_, err := svc.Register(context.Background(), req)
	require.ErrorIs(t, err, ErrUnknownCurrency)

	req = registerRequest()
	req.Lines = nil
	_, err = svc.Register(context.Background(), req)
	require.ErrorIs(t, err, ErrEmptyLines)

	req = registerRequest()
	req.Lines[0].Discounts = []float64{100}
	req.Lines[1].Discounts = []float64{100}
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err, "fully discounted documents have no positive total")
}

func TestService_Update(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	name := "Corporación del Sur EIRL"
	lines := []LineRequest{
		{ProductCode: "BRG-204", ProductName: "Sealed bearing 204", ListPrice: 100, Discounts: []float64{10, 0, 0, 0, 5}, Quantity: 3},
	}
	updated, err := svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Revision:   q.Revision,
		ClientName: &name,
		Lines:      &lines,
	})
	require.NoError(t, err)

	assert.Equal(t, name, updated.ClientName)
	assert.Equal(t, q.Revision+1, updated.Revision)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 256.50, updated.Subtotal)
	assert.Equal(t, 302.67, updated.Total)
	// Correlative never changes on edit.
	assert.Equal(t, q.Correlative, updated.Correlative)
}

func TestService_UpdateStaleRevision(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	name := "stale writer"
	_, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Revision:   q.Revision - 1,
		ClientName: &name,
	})
	require.ErrorIs(t, err, ErrStaleRevision)

	// The document is untouched.
	current, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ClientName, current.ClientName)
	assert.Equal(t, q.Revision, current.Revision)
}

func TestService_UpdateImmutableDocument(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), q.ID)
	require.NoError(t, err)

	name := "too late"
	_, err = svc.Update(context.Background(), q.ID, UpdateQuotationRequest{
		Revision:   q.Revision + 1,
		ClientName: &name,
	})
	require.ErrorIs(t, err, ErrImmutable)
}

func TestService_Reject(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	q, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	// Terminal states admit no further transitions.
	_, err = svc.Reject(context.Background(), q.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Reject(context.Background(), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_GetNotFound(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListDefaultsLimit(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	status := StatusPending
	summaries, total, err := svc.List(context.Background(), ListQuotationsRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1201), summaries[0].Correlative)
}

func TestService_PeekCorrelative(t *testing.T) {
	repo := newFakeRepository(1200)
	svc := NewService(repo)

	last, err := svc.PeekCorrelative(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1200), last)

	_, err = svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	last, err = svc.PeekCorrelative(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1201), last)
}
