package decision

import (
	"testing"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riskFor(p domain.InventorySnapshot, level domain.RiskLevel) domain.InventoryRisk {
	return domain.InventoryRisk{
		ProductID:         p.ProductID,
		ProductName:       p.ProductName,
		CurrentStock:      p.CurrentStock,
		DaysUntilStockout: p.DaysOfStockRemaining,
		RiskLevel:         level,
	}
}

func TestReorderQuantity(t *testing.T) {
	tests := []struct {
		name    string
		avg     float64
		days    int
		urgency domain.RiskLevel
		want    int
	}{
		{"low rounds up to next lot", 2, 21, domain.RiskLow, 50},
		{"medium has no multiplier", 2, 21, domain.RiskMedium, 50},
		{"high scales by 1.3", 2, 21, domain.RiskHigh, 60},
		{"critical scales by 1.5", 2, 21, domain.RiskCritical, 70},
		{"exact lot still advances", 1, 20, domain.RiskLow, 30},
		{"tiny run-rate hits minimum", 0.01, 21, domain.RiskLow, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reorderQuantity(tt.avg, tt.days, tt.urgency))
		})
	}
}

func TestPlanReorders_ReasoningText(t *testing.T) {
	p := snapshot("A", "Apple", 4, 2, ptr(2))
	inv := domain.NewInventory(p)

	recs := PlanReorders(inv, []domain.InventoryRisk{riskFor(p, domain.RiskCritical)}, 7, 14)
	require.Len(t, recs, 1)
	assert.Equal(t, 70, recs[0].RecommendedQuantity)
	assert.Equal(t, domain.RiskCritical, recs[0].Urgency)
	assert.Equal(t, 4, recs[0].CurrentStock)
	assert.Equal(t,
		"Based on average daily sales of 2.0 units, you need 21 days of stock "+
			"(including 7 day lead time and 14 day safety buffer). Current stock: 4 units.",
		recs[0].Reasoning,
	)
}

func TestPlanReorders_TrialOrderWithoutSales(t *testing.T) {
	p := snapshot("A", "Apple", 5, 0, nil)
	inv := domain.NewInventory(p)

	recs := PlanReorders(inv, []domain.InventoryRisk{riskFor(p, domain.RiskLow)}, 7, 14)
	require.Len(t, recs, 1)
	assert.Equal(t, 20, recs[0].RecommendedQuantity)
	assert.Equal(t,
		"This product has no sales history. Recommended trial order of 20 units "+
			"to establish demand patterns. Current stock: 5 units.",
		recs[0].Reasoning,
	)
}

func TestPlanReorders_Exclusions(t *testing.T) {
	dead := snapshot("D", "Dead", 0, 0, nil)
	unrisked := snapshot("U", "Unrisked", 10, 1, ptr(10))
	inv := domain.NewInventory(dead, unrisked)

	recs := PlanReorders(inv, []domain.InventoryRisk{riskFor(dead, domain.RiskCritical)}, 7, 14)
	assert.Empty(t, recs)
}

func TestPlanReorders_OrderedByUrgency(t *testing.T) {
	low := snapshot("L", "Low", 50, 1, ptr(50))
	crit := snapshot("C", "Crit", 1, 1, ptr(1))
	high := snapshot("H", "High", 5, 1, ptr(5))
	inv := domain.NewInventory(low, crit, high)

	risks := []domain.InventoryRisk{
		riskFor(crit, domain.RiskCritical),
		riskFor(high, domain.RiskHigh),
		riskFor(low, domain.RiskLow),
	}

	recs := PlanReorders(inv, risks, 7, 14)
	require.Len(t, recs, 3)
	assert.Equal(t, "C", recs[0].ProductID)
	assert.Equal(t, "H", recs[1].ProductID)
	assert.Equal(t, "L", recs[2].ProductID)
	for _, r := range recs {
		assert.GreaterOrEqual(t, r.RecommendedQuantity, 10)
	}
}

func TestPlanReorders_MinimumOrderScenario(t *testing.T) {
	p := snapshot("A", "Apple", 3, 0.01, ptr(300))
	inv := domain.NewInventory(p)

	recs := PlanReorders(inv, Classify(inv), DefaultLeadTimeDays, DefaultSafetyBufferDays)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.RiskLow, recs[0].Urgency)
	assert.Equal(t, 10, recs[0].RecommendedQuantity)
}

func TestPlanReorders_SoldOutScenario(t *testing.T) {
	txns := []domain.Transaction{txn("T1", "A", "Apple", 100, 1, baseDate)}
	inv := Aggregate(txns, map[string]int{"A": 5})

	risks := Classify(inv)
	require.Len(t, risks, 1)
	assert.Equal(t, domain.RiskCritical, risks[0].RiskLevel)

	recs := PlanReorders(inv, risks, DefaultLeadTimeDays, DefaultSafetyBufferDays)
	require.Len(t, recs, 1)
	// 100/day * 21 days * 1.5
	assert.Equal(t, 3160, recs[0].RecommendedQuantity)
}
