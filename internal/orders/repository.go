package orders

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
	"github.com/salesdesk-io/salesdesk/internal/quotes"
)

// Repository persists sales orders and owns the quotation conversion guard,
// since conversion and order creation must commit in one transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*OrderRecord, error)
	Create(ctx context.Context, rec OrderRecord) (int64, error)
	InsertLine(ctx context.Context, orderID int64, rec quotes.LineRecord) (int64, error)
	MarkQuotationConverted(ctx context.Context, quotationID int64) error
	NextCorrelative(ctx context.Context) (int64, error)
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

// NewRepository constructs a pgx-backed order repository. The baseline seeds
// the order correlative sequence on first use.
func NewRepository(pool *pgxpool.Pool, baseline int64) Repository {
	return &repository{db: pool, pool: pool, baseline: baseline}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, pool: r.pool, baseline: r.baseline}
		return fn(ctx, repoTx)
	})
}

func (r *repository) NextCorrelative(ctx context.Context) (int64, error) {
	return counter.NewPostgresStore(r.db, counter.SeqSalesOrder, r.baseline).Next(ctx)
}

// MarkQuotationConverted flips a pending quotation to CONVERTED. The status
// guard lives in the WHERE clause, so of two concurrent conversions exactly
// one wins and the loser sees the current status.
func (r *repository) MarkQuotationConverted(ctx context.Context, quotationID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET status = $2, revision = revision + 1, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, quotationID, quotes.StatusConverted, quotes.StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var current quotes.Status
		err := r.db.QueryRow(ctx, `SELECT status FROM quotations WHERE id = $1`, quotationID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return quotes.ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: status is %s", quotes.ErrInvalidStatus, current)
	}
	return nil
}

func (r *repository) Create(ctx context.Context, rec OrderRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (correlative, quotation_id, order_date, client_name, tax_id,
		                    sales_rep, currency, notes, subtotal, tax_amount, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id
	`, rec.Correlative, rec.QuotationID, pgtype.Date{Time: rec.Date, Valid: !rec.Date.IsZero()},
		rec.ClientName, rec.TaxID, rec.SalesRep, rec.Currency, rec.Notes,
		floatToNumeric(rec.Subtotal), floatToNumeric(rec.Tax), floatToNumeric(rec.Total),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

func (r *repository) InsertLine(ctx context.Context, orderID int64, rec quotes.LineRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_lines (order_id, product_code, product_name, quantity,
		                         d1, d2, d3, d4, d5,
		                         total_pen, total_usd, list_pen, list_usd, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, orderID, rec.ProductCode, rec.ProductName, rec.Quantity,
		floatToNumeric(rec.Discount1), floatToNumeric(rec.Discount2), floatToNumeric(rec.Discount3),
		floatToNumeric(rec.Discount4), floatToNumeric(rec.Discount5),
		floatToNumeric(rec.TotalPEN), floatToNumeric(rec.TotalUSD),
		floatPtrToNumeric(rec.ListPEN), floatPtrToNumeric(rec.ListUSD), rec.LineOrder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order line: %w", err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*OrderRecord, error) {
	var rec OrderRecord
	var orderDate pgtype.Date
	var subtotal, taxAmount, totalAmount pgtype.Numeric
	var createdAt pgtype.Timestamptz

	err := r.db.QueryRow(ctx, `
		SELECT id, correlative, quotation_id, order_date, client_name, tax_id,
		       sales_rep, currency, notes, subtotal, tax_amount, total_amount, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Correlative, &rec.QuotationID, &orderDate, &rec.ClientName, &rec.TaxID,
		&rec.SalesRep, &rec.Currency, &rec.Notes, &subtotal, &taxAmount, &totalAmount, &createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if orderDate.Valid {
		rec.Date = orderDate.Time
	}
	rec.Subtotal = numericToFloat(subtotal)
	rec.Tax = numericToFloat(taxAmount)
	rec.Total = numericToFloat(totalAmount)
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return &rec, nil
}

func (r *repository) getLines(ctx context.Context, orderID int64) ([]quotes.LineRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_code, product_name, quantity,
		       d1, d2, d3, d4, d5,
		       total_pen, total_usd, list_pen, list_usd, line_order
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_order, id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []quotes.LineRecord
	for rows.Next() {
		var rec quotes.LineRecord
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
