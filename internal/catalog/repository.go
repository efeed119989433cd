package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository searches the product catalog.
type Repository interface {
	Search(ctx context.Context, query string, limit int) ([]Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, category
		FROM products
		WHERE code ILIKE $1 OR name ILIKE $1
		ORDER BY name
		LIMIT $2
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
