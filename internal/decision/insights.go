package decision

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

// Synthesize merges the risk stream (with its reorders) and the slow-mover
// stream into one ranked list of insights.
//
// The streams are not deduplicated: a product may appear once from each.
// Risk entries whose product is missing from inv are dropped. The result is
// ordered by priority, then product name.
func Synthesize(
	inv domain.Inventory,
	risks []domain.InventoryRisk,
	slowMovers []domain.SlowMovingProduct,
	reorders []domain.ReorderRecommendation,
) []domain.DecisionInsight {
	insights := make([]domain.DecisionInsight, 0, len(risks)+len(slowMovers))

	reorderByProduct := make(map[string]domain.ReorderRecommendation, len(reorders))
	for _, rec := range reorders {
		reorderByProduct[rec.ProductID] = rec
	}

	for _, risk := range risks {
		if !inv.Has(risk.ProductID) {
			continue
		}

		reasoning := risk.RiskReason
		if rec, ok := reorderByProduct[risk.ProductID]; ok {
			reasoning += fmt.Sprintf(" Recommended order quantity: %d units. %s", rec.RecommendedQuantity, rec.Reasoning)
		}

		impact := "Prevents stockout."
		if risk.DaysUntilStockout != nil && *risk.DaysUntilStockout != 0 {
			impact = fmt.Sprintf(
				"Prevents stockout and potential lost sales. Estimated impact: %.0f days until out of stock.",
				*risk.DaysUntilStockout,
			)
		}

		insights = append(insights, domain.DecisionInsight{
			ProductID:         risk.ProductID,
			ProductName:       risk.ProductName,
			DecisionType:      domain.DecisionReorder,
			Priority:          risk.RiskLevel,
			Summary:           fmt.Sprintf("%s needs immediate attention", risk.ProductName),
			Reasoning:         reasoning,
			RecommendedAction: risk.RecommendedAction,
			EstimatedImpact:   &impact,
		})
	}

	for _, sm := range slowMovers {
		decisionType := domain.DecisionReview
		priority := domain.RiskMedium
		if sm.DaysSinceLastSale >= discontinueAfterDays {
			decisionType = domain.DecisionDiscontinue
			priority = domain.RiskHigh
		}

		impact := fmt.Sprintf(
			"Freeing up $%.2f in working capital. Consider alternative products with better turnover.",
			sm.TotalValue,
		)

		insights = append(insights, domain.DecisionInsight{
			ProductID:    sm.ProductID,
			ProductName:  sm.ProductName,
			DecisionType: decisionType,
			Priority:     priority,
			Summary:      fmt.Sprintf("%s has not sold in %d days", sm.ProductName, sm.DaysSinceLastSale),
			Reasoning: fmt.Sprintf(
				"This product has been sitting in inventory for %d days without a sale, tying up $%.2f in cash.",
				sm.DaysSinceLastSale, sm.TotalValue,
			),
			RecommendedAction: sm.RecommendedAction,
			EstimatedImpact:   &impact,
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		ri, rj := insights[i].Priority.Rank(), insights[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return insights[i].ProductName < insights[j].ProductName
	})

	return insights
}
