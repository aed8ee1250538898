package decision

import (
	"testing"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_FillsDefaults(t *testing.T) {
	e := NewEngine(Config{SlowMovingThresholdDays: -1, LowStockThresholdPercent: 0.2, LeadTimeDays: -1, SafetyBufferDays: -5})
	assert.Equal(t, DefaultConfig(), e.Config())

	zero := NewEngine(Config{SlowMovingThresholdDays: 0, LeadTimeDays: 0, SafetyBufferDays: 0})
	assert.Equal(t, 0, zero.Config().SlowMovingThresholdDays)
	assert.Equal(t, 0, zero.Config().LeadTimeDays)
	assert.Equal(t, 0, zero.Config().SafetyBufferDays)

	custom := NewEngine(Config{SlowMovingThresholdDays: 30, LeadTimeDays: 3, SafetyBufferDays: 5})
	assert.Equal(t, 30, custom.Config().SlowMovingThresholdDays)
	assert.Equal(t, 3, custom.Config().LeadTimeDays)
	assert.Equal(t, 5, custom.Config().SafetyBufferDays)
}

func TestEngine_ZeroLeadTimeAndBuffer(t *testing.T) {
	now := baseDate.AddDate(0, 0, 10)
	txns := []domain.Transaction{
		txn("T1", "P", "Pump", 50, 1, baseDate),
		txn("T2", "P", "Pump", 50, 1, now),
	}
	cfg := DefaultConfig()
	cfg.LeadTimeDays = 0
	cfg.SafetyBufferDays = 0

	report := NewEngine(cfg).Analyze(txns, map[string]int{"P": 1000}, now)

	require.Len(t, report.Reorders, 1)
	reorder := report.Reorders[0]
	assert.Equal(t, 10, reorder.RecommendedQuantity)
	assert.Contains(t, reorder.Reasoning, "you need 0 days of stock (including 0 day lead time and 0 day safety buffer)")

	direct := PlanReorders(report.Inventory, report.Risks, 0, 0)
	assert.Equal(t, direct, report.Reorders)
}

func TestEngine_AnalyzeEmpty(t *testing.T) {
	report := NewEngine(DefaultConfig()).Analyze(nil, nil, baseDate)

	assert.Equal(t, 0, report.Inventory.Len())
	assert.Empty(t, report.Risks)
	assert.Empty(t, report.SlowMovers)
	assert.Empty(t, report.Reorders)
	assert.Empty(t, report.Insights)

	resp := report.Response()
	assert.Equal(t, 0, resp.TotalInsights)
	assert.Equal(t, 0, resp.CriticalActions)
	assert.NotNil(t, resp.Insights)
}

func TestEngine_AnalyzeEndToEnd(t *testing.T) {
	now := baseDate.AddDate(0, 0, 200)
	txns := []domain.Transaction{
		// fast seller, nearly out
		txn("T1", "F", "Fast", 30, 2, now.AddDate(0, 0, -9)),
		txn("T2", "F", "Fast", 30, 2, now.AddDate(0, 0, -1)),
		// stale product with stock left
		txn("T3", "S", "Stale", 1, 5, baseDate),
	}
	stock := map[string]int{"F": 90, "S": 40}

	report := NewEngine(DefaultConfig()).Analyze(txns, stock, now)

	require.Len(t, report.Risks, 2)
	assert.Equal(t, "F", report.Risks[0].ProductID)
	assert.Equal(t, domain.RiskHigh, report.Risks[0].RiskLevel)
	assert.Equal(t, "S", report.Risks[1].ProductID)
	assert.Equal(t, domain.RiskLow, report.Risks[1].RiskLevel)

	require.Len(t, report.SlowMovers, 1)
	assert.Equal(t, "S", report.SlowMovers[0].ProductID)
	assert.Equal(t, 200, report.SlowMovers[0].DaysSinceLastSale)

	require.Len(t, report.Reorders, 2)
	// one insight per risk plus one per slow mover
	assert.Len(t, report.Insights, 3)
	assert.Equal(t, domain.RiskHigh, report.Insights[0].Priority)

	summary := report.Summary()
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Equal(t, 2, summary.InventoryRisks.Total)
	assert.Equal(t, 1, summary.InventoryRisks.High)
	assert.Equal(t, 1, summary.InventoryRisks.Low)
	assert.Equal(t, 1, summary.SlowMovingProducts)
	assert.Equal(t, 2, summary.ReorderRecommendations)
}

func TestEngine_AnalyzeIsRepeatable(t *testing.T) {
	now := baseDate.AddDate(0, 0, 120)
	txns := []domain.Transaction{
		txn("T1", "A", "Apple", 3, 1, baseDate),
		txn("T2", "B", "Bread", 9, 1, baseDate.AddDate(0, 0, 100)),
		txn("T3", "C", "Cheese", 4, 1, baseDate.AddDate(0, 0, 110)),
	}
	stock := map[string]int{"A": 2, "B": 9}

	e := NewEngine(DefaultConfig())
	first := e.Analyze(txns, stock, now)
	second := e.Analyze(txns, stock, now)

	assert.Equal(t, first.Risks, second.Risks)
	assert.Equal(t, first.SlowMovers, second.SlowMovers)
	assert.Equal(t, first.Reorders, second.Reorders)
	assert.Equal(t, first.Insights, second.Insights)
}

func TestNewDecisionResponse_CountsCritical(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	resp := NewDecisionResponse(now, []domain.DecisionInsight{
		{ProductID: "A", Priority: domain.RiskCritical},
		{ProductID: "B", Priority: domain.RiskHigh},
		{ProductID: "C", Priority: domain.RiskCritical},
	})

	assert.Equal(t, now, resp.Timestamp)
	assert.Equal(t, 3, resp.TotalInsights)
	assert.Equal(t, 2, resp.CriticalActions)
}
