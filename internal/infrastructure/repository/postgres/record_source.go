package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

const (
	listProductsQuery = `
SELECT product_id, COALESCE(product_name, ''), COALESCE(category, ''), COALESCE(brand, '')
FROM dim_product
ORDER BY product_id`

	listCustomersQuery = `
SELECT customer_id, COALESCE(customer_name, ''), COALESCE(gender, ''), age, COALESCE(loyalty_level, '')
FROM dim_customer
ORDER BY customer_id`
)

// RecordSource reads the product and customer dimension tables that feed the index.
type RecordSource struct {
	db *sql.DB
}

func NewRecordSource(db *sql.DB) *RecordSource {
	return &RecordSource{db: db}
}

func (s *RecordSource) ListRecords(ctx context.Context, category domain.Category) ([]domain.SourceRecord, error) {
	switch category {
	case domain.CategoryProduct:
		return s.listProducts(ctx)
	case domain.CategoryCustomer:
		return s.listCustomers(ctx)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "list records", fmt.Errorf("unknown category %d", category))
	}
}

func (s *RecordSource) listProducts(ctx context.Context) ([]domain.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SourceRecord, 0)
	for rows.Next() {
		var (
			id                    int64
			name, category, brand string
		)
		if err := rows.Scan(&id, &name, &category, &brand); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, domain.SourceRecord{
			ID:       strconv.FormatInt(id, 10),
			Category: domain.CategoryProduct,
			Text:     joinFeatures(name, category, brand),
			Metadata: map[string]string{
				"name":     name,
				"category": category,
				"brand":    brand,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (s *RecordSource) listCustomers(ctx context.Context) ([]domain.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, listCustomersQuery)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SourceRecord, 0)
	for rows.Next() {
		var (
			id                  int64
			name, gender, level string
			age                 sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &gender, &age, &level); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		metadata := map[string]string{
			"name":          name,
			"gender":        gender,
			"loyalty_level": level,
		}
		if age.Valid {
			metadata["age"] = strconv.FormatInt(age.Int64, 10)
		}
		out = append(out, domain.SourceRecord{
			ID:       strconv.FormatInt(id, 10),
			Category: domain.CategoryCustomer,
			Text:     joinFeatures(name, gender, level),
			Metadata: metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

func joinFeatures(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
