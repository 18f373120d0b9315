package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

func newProfileStoreWithMock(t *testing.T) (*ProfileStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewProfileStore(db), mock, func() { _ = db.Close() }
}

func TestCustomerProfileUsesTopPurchase(t *testing.T) {
	store, mock, done := newProfileStoreWithMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM dim_customer")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "customer_name", "gender", "loyalty_level"}).
			AddRow(7, "Alice", "F", "Gold"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sales_fact")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"product_name", "category", "brand"}).
			AddRow("UltraBook 14", "Laptop", "Acme").
			AddRow("Desk Lamp", "Home", "Lumo"))

	profile, err := store.CustomerProfile(context.Background(), "7")
	if err != nil {
		t.Fatalf("CustomerProfile() error = %v", err)
	}
	if profile.ID != "7" || profile.Name != "Alice" || profile.LoyaltyLevel != "Gold" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.TopCategory != "Laptop" || profile.TopBrand != "Acme" {
		t.Fatalf("expected top purchase Laptop/Acme, got %q/%q", profile.TopCategory, profile.TopBrand)
	}
	if len(profile.PurchasedProducts) != 2 || profile.PurchasedProducts[1] != "Desk Lamp" {
		t.Fatalf("unexpected purchases: %v", profile.PurchasedProducts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCustomerProfileMissingCustomerIsNotFound(t *testing.T) {
	store, mock, done := newProfileStoreWithMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM dim_customer")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "customer_name", "gender", "loyalty_level"}))

	_, err := store.CustomerProfile(context.Background(), "99")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCustomerProfileRejectsNonNumericID(t *testing.T) {
	store, _, done := newProfileStoreWithMock(t)
	defer done()

	if _, err := store.CustomerProfile(context.Background(), "abc"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
