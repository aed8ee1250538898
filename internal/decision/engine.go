package decision

import (
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

// Config holds the tunables of the decision rules.
type Config struct {
	SlowMovingThresholdDays int
	// LowStockThresholdPercent is reserved; no rule reads it yet.
	LowStockThresholdPercent float64
	LeadTimeDays             int
	SafetyBufferDays         int
}

// DefaultConfig returns the stock rule settings.
func DefaultConfig() Config {
	return Config{
		SlowMovingThresholdDays:  DefaultSlowMovingThresholdDays,
		LowStockThresholdPercent: 0.2,
		LeadTimeDays:             DefaultLeadTimeDays,
		SafetyBufferDays:         DefaultSafetyBufferDays,
	}
}

// Report holds every list produced by one analysis run.
type Report struct {
	GeneratedAt time.Time                      `json:"generated_at"`
	Inventory   domain.Inventory               `json:"inventory"`
	Risks       []domain.InventoryRisk         `json:"inventory_risks"`
	SlowMovers  []domain.SlowMovingProduct     `json:"slow_movers"`
	Reorders    []domain.ReorderRecommendation `json:"reorder_recommendations"`
	Insights    []domain.DecisionInsight       `json:"insights"`
}

// Engine runs the decision rules with a fixed configuration.
// It holds no state between calls and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine. Negative values fall back to the defaults;
// zero is kept.
func NewEngine(cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.SlowMovingThresholdDays < 0 {
		cfg.SlowMovingThresholdDays = defaults.SlowMovingThresholdDays
	}
	if cfg.LeadTimeDays < 0 {
		cfg.LeadTimeDays = defaults.LeadTimeDays
	}
	if cfg.SafetyBufferDays < 0 {
		cfg.SafetyBufferDays = defaults.SafetyBufferDays
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze runs aggregation, risk classification, slow-mover detection,
// reorder planning and synthesis over txns as of now.
func (e *Engine) Analyze(txns []domain.Transaction, initialStock map[string]int, now time.Time) Report {
	inv := Aggregate(txns, initialStock)
	return e.AnalyzeInventory(inv, now)
}

// AnalyzeInventory runs every stage after aggregation.
func (e *Engine) AnalyzeInventory(inv domain.Inventory, now time.Time) Report {
	risks := Classify(inv)
	slowMovers := DetectSlowMovers(inv, now, e.cfg.SlowMovingThresholdDays)
	reorders := PlanReorders(inv, risks, e.cfg.LeadTimeDays, e.cfg.SafetyBufferDays)
	insights := Synthesize(inv, risks, slowMovers, reorders)

	return Report{
		GeneratedAt: now,
		Inventory:   inv,
		Risks:       risks,
		SlowMovers:  slowMovers,
		Reorders:    reorders,
		Insights:    insights,
	}
}

// Summary condenses the report into counts.
func (r Report) Summary() domain.DecisionSummary {
	return Summarize(r.Inventory, r.Risks, r.SlowMovers, r.Reorders)
}

// Response wraps the report insights for display.
func (r Report) Response() domain.DecisionResponse {
	return NewDecisionResponse(r.GeneratedAt, r.Insights)
}

// Summarize counts risks per tier alongside slow movers, reorders and products.
func Summarize(
	inv domain.Inventory,
	risks []domain.InventoryRisk,
	slowMovers []domain.SlowMovingProduct,
	reorders []domain.ReorderRecommendation,
) domain.DecisionSummary {
	breakdown := domain.RiskBreakdown{Total: len(risks)}
	for _, r := range risks {
		switch r.RiskLevel {
		case domain.RiskCritical:
			breakdown.Critical++
		case domain.RiskHigh:
			breakdown.High++
		case domain.RiskMedium:
			breakdown.Medium++
		case domain.RiskLow:
			breakdown.Low++
		}
	}

	return domain.DecisionSummary{
		InventoryRisks:         breakdown,
		SlowMovingProducts:     len(slowMovers),
		ReorderRecommendations: len(reorders),
		TotalProducts:          inv.Len(),
	}
}

// NewDecisionResponse builds the response envelope for a ranked insight list.
func NewDecisionResponse(now time.Time, insights []domain.DecisionInsight) domain.DecisionResponse {
	if insights == nil {
		insights = make([]domain.DecisionInsight, 0)
	}
	critical := 0
	for _, in := range insights {
		if in.Priority == domain.RiskCritical {
			critical++
		}
	}
	return domain.DecisionResponse{
		Timestamp:       now,
		TotalInsights:   len(insights),
		CriticalActions: critical,
		Insights:        insights,
	}
}
