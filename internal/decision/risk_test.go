package decision

import (
	"testing"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id, name string, stock int, avg float64, days *float64) domain.InventorySnapshot {
	last := baseDate
	return domain.InventorySnapshot{
		ProductID:            id,
		ProductName:          name,
		CurrentStock:         stock,
		AverageDailySales:    avg,
		DaysOfStockRemaining: days,
		LastSaleDate:         &last,
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestClassify_TierBoundaries(t *testing.T) {
	tests := []struct {
		days   float64
		want   domain.RiskLevel
		reason string
		action string
	}{
		{0.5, domain.RiskCritical, "Critical: Only 0.5 days of stock remaining", "Urgent reorder required immediately"},
		{3.0, domain.RiskCritical, "Critical: Only 3.0 days of stock remaining", "Urgent reorder required immediately"},
		{3.01, domain.RiskHigh, "High risk: 3.0 days of stock remaining", "Reorder within 24 hours"},
		{7.0, domain.RiskHigh, "High risk: 7.0 days of stock remaining", "Reorder within 24 hours"},
		{7.01, domain.RiskMedium, "Medium risk: 7.0 days of stock remaining", "Plan reorder within the week"},
		{14.0, domain.RiskMedium, "Medium risk: 14.0 days of stock remaining", "Plan reorder within the week"},
		{14.01, domain.RiskLow, "Low risk: 14.0 days of stock remaining", "Monitor stock levels"},
		{40, domain.RiskLow, "Low risk: 40.0 days of stock remaining", "Monitor stock levels"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			inv := domain.NewInventory(snapshot("A", "Apple", 50, 2, ptr(tt.days)))

			risks := Classify(inv)
			require.Len(t, risks, 1)
			assert.Equal(t, tt.want, risks[0].RiskLevel)
			assert.Equal(t, tt.reason, risks[0].RiskReason)
			assert.Equal(t, tt.action, risks[0].RecommendedAction)
			require.NotNil(t, risks[0].DaysUntilStockout)
			assert.Equal(t, tt.days, *risks[0].DaysUntilStockout)
			assert.Equal(t, 50, risks[0].CurrentStock)
		})
	}
}

func TestClassify_ZeroStockOverride(t *testing.T) {
	inv := domain.NewInventory(
		snapshot("A", "Apple", 0, 5, ptr(0)),
		snapshot("B", "Bread", 0, 0.01, nil),
	)

	risks := Classify(inv)
	require.Len(t, risks, 2)
	for _, r := range risks {
		assert.Equal(t, domain.RiskCritical, r.RiskLevel, r.ProductID)
		assert.Equal(t, "Out of stock - immediate action required", r.RiskReason)
		assert.Equal(t, "Urgent reorder - product is currently unavailable", r.RecommendedAction)
		require.NotNil(t, r.DaysUntilStockout)
		assert.Equal(t, 0.0, *r.DaysUntilStockout)
	}
}

func TestClassify_SkipsProductsWithoutSales(t *testing.T) {
	inv := domain.NewInventory(
		snapshot("A", "Apple", 10, 0, nil),
		snapshot("B", "Bread", 0, 0, nil),
	)

	assert.Empty(t, Classify(inv))
}

func TestClassify_OrderedBySeverityKeepingEncounterOrder(t *testing.T) {
	inv := domain.NewInventory(
		snapshot("P1", "Zulu", 100, 1, ptr(100)),
		snapshot("P2", "Yankee", 1, 1, ptr(1)),
		snapshot("P3", "Alpha", 100, 1, ptr(100)),
		snapshot("P4", "Bravo", 1, 1, ptr(1)),
		snapshot("P5", "Charlie", 5, 1, ptr(5)),
	)

	risks := Classify(inv)
	ids := make([]string, len(risks))
	for i, r := range risks {
		ids[i] = r.ProductID
	}
	assert.Equal(t, []string{"P2", "P4", "P5", "P1", "P3"}, ids)
}

func TestClassify_Empty(t *testing.T) {
	assert.Empty(t, Classify(domain.NewInventory()))
}
