package repository

import (
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
)

func TestDashboardOverviewAndTopProducts(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewDashboardRepository(db)
	now := time.Now()

	seller := createTestUser(t, db, "seller@example.com", constants.RoleSeller)
	createTestUser(t, db, "customer@example.com", constants.RoleCustomer)
	category := createTestCategory(t, db, "dashboard")
	product := createTestProduct(t, db, "best seller", 25, seller.ID, category.ID)

	sessions := []models.CheckoutSession{
		{Reference: "ref-1", ProductID: product.ID, Quantity: 2, UnitAmount: 2500, Currency: "usd", Status: constants.CheckoutStatusPaymentSucceeded},
		{Reference: "ref-2", ProductID: product.ID, Quantity: 1, UnitAmount: 2500, Currency: "usd", Status: constants.CheckoutStatusFailed},
		{Reference: "ref-3", ProductID: product.ID, Quantity: 1, UnitAmount: 2500, Currency: "usd", Status: constants.CheckoutStatusSessionCreated},
	}
	if err := db.Create(&sessions).Error; err != nil {
		t.Fatalf("create sessions failed: %v", err)
	}

	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)
	overview, err := repo.GetOverview(startAt, endAt)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.Sellers != 1 || overview.Customers != 1 || overview.Products != 1 {
		t.Fatalf("unexpected counts: %+v", overview)
	}
	if overview.CheckoutsTotal != 3 || overview.CheckoutsPaid != 1 || overview.CheckoutsFailed != 1 {
		t.Fatalf("unexpected checkout counts: %+v", overview)
	}
	if overview.PaidAmountMinor != 5000 {
		t.Fatalf("paid amount want 5000 got %d", overview.PaidAmountMinor)
	}

	rows, err := repo.GetTopProducts(startAt, endAt, 5)
	if err != nil {
		t.Fatalf("get top products failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ProductID != product.ID || rows[0].Quantity != 2 {
		t.Fatalf("unexpected top products: %+v", rows)
	}

	rated, err := repo.GetTopRatedProducts(3)
	if err != nil {
		t.Fatalf("get top rated failed: %v", err)
	}
	if len(rated) != 1 || rated[0].Name != "best seller" {
		t.Fatalf("unexpected top rated: %+v", rated)
	}
}
