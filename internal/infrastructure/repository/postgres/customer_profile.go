package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

const (
	customerQuery = `
SELECT customer_id, COALESCE(customer_name, ''), COALESCE(gender, ''), COALESCE(loyalty_level, '')
FROM dim_customer
WHERE customer_id = $1`

	purchaseHistoryQuery = `
SELECT COALESCE(p.product_name, ''), COALESCE(p.category, ''), COALESCE(p.brand, '')
FROM sales_fact f
JOIN dim_product p ON f.product_id = p.product_id
WHERE f.customer_id = $1
GROUP BY p.product_id, p.product_name, p.category, p.brand
ORDER BY SUM(f.amount) DESC, p.product_id`
)

// ProfileStore reads customers and what they bought from the warehouse tables.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) CustomerProfile(ctx context.Context, customerID string) (*domain.CustomerProfile, error) {
	id, err := strconv.ParseInt(customerID, 10, 64)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "customer profile", fmt.Errorf("customer id %q is not an integer", customerID))
	}

	profile := &domain.CustomerProfile{}
	var rowID int64
	err = s.db.QueryRowContext(ctx, customerQuery, id).Scan(&rowID, &profile.Name, &profile.Gender, &profile.LoyaltyLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrNotFound, "customer profile", fmt.Errorf("customer %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	profile.ID = strconv.FormatInt(rowID, 10)

	rows, err := s.db.QueryContext(ctx, purchaseHistoryQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query purchase history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, category, brand string
		if err := rows.Scan(&name, &category, &brand); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		if len(profile.PurchasedProducts) == 0 {
			profile.TopCategory = category
			profile.TopBrand = brand
		}
		profile.PurchasedProducts = append(profile.PurchasedProducts, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase history: %w", err)
	}
	return profile, nil
}
