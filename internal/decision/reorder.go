package decision

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

const (
	// DefaultLeadTimeDays is the default supplier lead time.
	DefaultLeadTimeDays = 7
	// DefaultSafetyBufferDays is the default extra cover held beyond lead time.
	DefaultSafetyBufferDays = 14

	minimumOrderQty = 10
	orderLotSize    = 10
	trialOrderQty   = 20

	criticalMultiplier = 1.5
	highMultiplier     = 1.3
)

// PlanReorders sizes a reorder for every at-risk product.
//
// Only products present in risks are considered. Quantities cover lead time
// plus safety buffer at the current run-rate, scaled up for critical and high
// urgency, advanced to the next lot of ten and floored at ten units. The
// result is ordered most urgent first.
func PlanReorders(inv domain.Inventory, risks []domain.InventoryRisk, leadTimeDays, safetyBufferDays int) []domain.ReorderRecommendation {
	riskByProduct := make(map[string]domain.InventoryRisk, len(risks))
	for _, r := range risks {
		riskByProduct[r.ProductID] = r
	}

	recommendations := make([]domain.ReorderRecommendation, 0, len(risks))
	for _, product := range inv.Products() {
		risk, ok := riskByProduct[product.ProductID]
		if !ok {
			continue
		}

		// Nothing to size an order from
		if product.CurrentStock == 0 && product.AverageDailySales == 0 {
			continue
		}

		var (
			quantity  int
			reasoning string
		)
		if product.AverageDailySales > 0 {
			totalDaysNeeded := leadTimeDays + safetyBufferDays
			quantity = reorderQuantity(product.AverageDailySales, totalDaysNeeded, risk.RiskLevel)
			reasoning = fmt.Sprintf(
				"Based on average daily sales of %.1f units, you need %d days of stock "+
					"(including %d day lead time and %d day safety buffer). Current stock: %d units.",
				product.AverageDailySales, totalDaysNeeded, leadTimeDays, safetyBufferDays, product.CurrentStock,
			)
		} else {
			quantity = trialOrderQty
			reasoning = fmt.Sprintf(
				"This product has no sales history. Recommended trial order of %d units "+
					"to establish demand patterns. Current stock: %d units.",
				quantity, product.CurrentStock,
			)
		}

		recommendations = append(recommendations, domain.ReorderRecommendation{
			ProductID:           product.ProductID,
			ProductName:         product.ProductName,
			CurrentStock:        product.CurrentStock,
			RecommendedQuantity: quantity,
			Reasoning:           reasoning,
			Urgency:             risk.RiskLevel,
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Urgency.Rank() < recommendations[j].Urgency.Rank()
	})

	return recommendations
}

// reorderQuantity computes the order size for a product with a positive run-rate.
func reorderQuantity(averageDailySales float64, daysNeeded int, urgency domain.RiskLevel) int {
	// 1. Units needed to cover lead time + safety buffer
	needed := averageDailySales * float64(daysNeeded)

	// 2. Scale for urgency
	switch urgency {
	case domain.RiskCritical:
		needed *= criticalMultiplier
	case domain.RiskHigh:
		needed *= highMultiplier
	}

	// 3. Advance to the next lot; an exact lot still moves up one
	whole := int(needed)
	quantity := whole + (orderLotSize - whole%orderLotSize)

	// 4. Minimum order
	if quantity < minimumOrderQty {
		quantity = minimumOrderQty
	}
	return quantity
}
