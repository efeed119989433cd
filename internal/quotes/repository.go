package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk-io/salesdesk/internal/counter"
	"github.com/salesdesk-io/salesdesk/internal/platform/db"
)

// Repository persists quotation records.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*QuotationRecord, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error)
	Create(ctx context.Context, rec QuotationRecord) (int64, error)
	UpdateHeader(ctx context.Context, id int64, expectedRevision int, updates map[string]interface{}) error
	InsertLine(ctx context.Context, quotationID int64, rec LineRecord) (int64, error)
	DeleteLines(ctx context.Context, quotationID int64) error
	UpdateStatusIfPending(ctx context.Context, id int64, next Status) error
	NextCorrelative(ctx context.Context) (int64, error)
	PeekCorrelative(ctx context.Context) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db       dbtx
	pool     *pgxpool.Pool
	baseline int64
}

// NewRepository constructs a pgx-backed quotation repository. The baseline
// seeds the correlative sequence on first use.
func NewRepository(pool *pgxpool.Pool, baseline int64) Repository {
	return &repository{db: pool, pool: pool, baseline: baseline}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, pool: r.pool, baseline: r.baseline}
		return fn(ctx, repoTx)
	})
}

// NextCorrelative issues the next quotation number. Bound to the current
// dbtx, so an increment inside WithTx rolls back with a failed registration.
func (r *repository) NextCorrelative(ctx context.Context) (int64, error) {
	return counter.NewPostgresStore(r.db, counter.SeqQuotation, r.baseline).Next(ctx)
}

func (r *repository) PeekCorrelative(ctx context.Context) (int64, error) {
	return counter.NewPostgresStore(r.db, counter.SeqQuotation, r.baseline).Peek(ctx)
}

func (r *repository) Get(ctx context.Context, id int64) (*QuotationRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, correlative, quote_date, client_name, tax_id, sales_rep,
		       currency, status, revision, subtotal, tax_amount, total_amount,
		       created_at, updated_at
		FROM quotations
		WHERE id = $1
	`, id)

	rec, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return rec, nil
}

func (r *repository) getLines(ctx context.Context, quotationID int64) ([]LineRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_code, product_name, quantity,
		       d1, d2, d3, d4, d5,
		       total_pen, total_usd, list_pen, list_usd, line_order
		FROM quotation_lines
		WHERE quotation_id = $1
		ORDER BY line_order, id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []LineRecord
	for rows.Next() {
		var rec LineRecord
		var d1, d2, d3, d4, d5, totalPEN, totalUSD pgtype.Numeric
		var listPEN, listUSD pgtype.Numeric

		err := rows.Scan(
			&rec.ID, &rec.ProductCode, &rec.ProductName, &rec.Quantity,
			&d1, &d2, &d3, &d4, &d5,
			&totalPEN, &totalUSD, &listPEN, &listUSD, &rec.LineOrder,
		)
		if err != nil {
			return nil, err
		}

		rec.Discount1 = numericToFloat(d1)
		rec.Discount2 = numericToFloat(d2)
		rec.Discount3 = numericToFloat(d3)
		rec.Discount4 = numericToFloat(d4)
		rec.Discount5 = numericToFloat(d5)
		rec.TotalPEN = numericToFloat(totalPEN)
		rec.TotalUSD = numericToFloat(totalUSD)
		if listPEN.Valid {
			v := numericToFloat(listPEN)
			rec.ListPEN = &v
		}
		if listUSD.Valid {
			v := numericToFloat(listUSD)
			rec.ListUSD = &v
		}
		lines = append(lines, rec)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Summary, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.ClientName != nil {
		conditions = append(conditions, fmt.Sprintf("client_name ILIKE $%d", argPos))
		args = append(args, "%"+*req.ClientName+"%")
		argPos++
	}
	if req.TaxID != nil {
		conditions = append(conditions, fmt.Sprintf("tax_id = $%d", argPos))
		args = append(args, *req.TaxID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("quote_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("quote_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quotations %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, correlative, quote_date, client_name, tax_id, sales_rep,
		       total_amount, status, currency
		FROM quotations
		%s
		ORDER BY correlative DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var quoteDate pgtype.Date
		var totalAmount pgtype.Numeric

		err := rows.Scan(&s.ID, &s.Correlative, &quoteDate, &s.ClientName,
			&s.TaxID, &s.SalesRep, &totalAmount, &s.Status, &s.Currency)
		if err != nil {
			return nil, 0, err
		}
		if quoteDate.Valid {
			s.Date = quoteDate.Time
		}
		s.Total = numericToFloat(totalAmount)
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, rec QuotationRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (correlative, quote_date, client_name, tax_id, sales_rep,
		                        currency, status, revision, subtotal, tax_amount, total_amount,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id
	`, rec.Correlative, pgtype.Date{Time: rec.Date, Valid: !rec.Date.IsZero()},
		rec.ClientName, rec.TaxID, rec.SalesRep, rec.Currency, rec.Status, rec.Revision,
		floatToNumeric(rec.Subtotal), floatToNumeric(rec.Tax), floatToNumeric(rec.Total),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quotation: %w", err)
	}
	return id, nil
}

// UpdateHeader applies partial header updates guarded by the optimistic
// revision check. Zero rows affected means either a stale revision or a
// missing document; callers get the distinction.
func (r *repository) UpdateHeader(ctx context.Context, id int64, expectedRevision int, updates map[string]interface{}) error {
	query := "UPDATE quotations SET updated_at = NOW(), revision = revision + 1"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"quote_date", "client_name", "tax_id", "sales_rep", "subtotal", "tax_amount", "total_amount"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d AND revision = $%d", argPos, argPos+1)
	args = append(args, id, expectedRevision)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quotations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStaleRevision
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, quotationID int64, rec LineRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotation_lines (quotation_id, product_code, product_name, quantity,
		                             d1, d2, d3, d4, d5,
		                             total_pen, total_usd, list_pen, list_usd, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, quotationID, rec.ProductCode, rec.ProductName, rec.Quantity,
		floatToNumeric(rec.Discount1), floatToNumeric(rec.Discount2), floatToNumeric(rec.Discount3),
		floatToNumeric(rec.Discount4), floatToNumeric(rec.Discount5),
		floatToNumeric(rec.TotalPEN), floatToNumeric(rec.TotalUSD),
		floatPtrToNumeric(rec.ListPEN), floatPtrToNumeric(rec.ListUSD), rec.LineOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quotation line: %w", err)
	}
	return id, nil
}

func (r *repository) DeleteLines(ctx context.Context, quotationID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, quotationID)
	return err
}

// UpdateStatusIfPending performs a guarded lifecycle transition. The guard
// lives in the WHERE clause so two concurrent conversions cannot both win.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id int64, next Status) error {
	if !StatusPending.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s is not reachable from %s", ErrInvalidStatus, next, StatusPending)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET status = $2, revision = revision + 1, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, next, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var current Status
		err := r.db.QueryRow(ctx, `SELECT status FROM quotations WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: status is %s", ErrInvalidStatus, current)
	}
	return nil
}

func scanQuotation(row pgx.Row) (*QuotationRecord, error) {
	var rec QuotationRecord
	var quoteDate pgtype.Date
	var subtotal, taxAmount, totalAmount pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&rec.ID, &rec.Correlative, &quoteDate, &rec.ClientName, &rec.TaxID, &rec.SalesRep,
		&rec.Currency, &rec.Status, &rec.Revision, &subtotal, &taxAmount, &totalAmount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if quoteDate.Valid {
		rec.Date = quoteDate.Time
	}
	rec.Subtotal = numericToFloat(subtotal)
	rec.Tax = numericToFloat(taxAmount)
	rec.Total = numericToFloat(totalAmount)
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return &rec, nil
}

func numericToFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func floatToNumeric(v float64) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(fmt.Sprintf("%.2f", v))
	return n
}

func floatPtrToNumeric(v *float64) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return floatToNumeric(*v)
}
