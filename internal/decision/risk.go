package decision

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

// Days-of-cover thresholds. A value equal to a threshold belongs to the more severe tier.
const (
	criticalCoverDays = 3.0
	highCoverDays     = 7.0
	mediumCoverDays   = 14.0
)

// Classify assigns a stock-out risk tier to every product that has sales.
//
// Products with no run-rate are skipped. A product with zero stock is always
// critical, whatever its days of cover. The result is ordered most severe
// first; products within a tier keep inventory order.
func Classify(inv domain.Inventory) []domain.InventoryRisk {
	risks := make([]domain.InventoryRisk, 0, inv.Len())

	for _, product := range inv.Products() {
		if product.AverageDailySales == 0 {
			continue
		}

		risk := domain.InventoryRisk{
			ProductID:    product.ProductID,
			ProductName:  product.ProductName,
			RiskLevel:    domain.RiskLow,
			CurrentStock: product.CurrentStock,
		}

		if product.DaysOfStockRemaining != nil {
			days := *product.DaysOfStockRemaining
			risk.DaysUntilStockout = &days
			risk.RiskLevel, risk.RiskReason, risk.RecommendedAction = tierForCover(days)
		}

		if product.CurrentStock == 0 {
			zero := 0.0
			risk.RiskLevel = domain.RiskCritical
			risk.RiskReason = "Out of stock - immediate action required"
			risk.RecommendedAction = "Urgent reorder - product is currently unavailable"
			risk.DaysUntilStockout = &zero
		}

		risks = append(risks, risk)
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].RiskLevel.Rank() < risks[j].RiskLevel.Rank()
	})

	return risks
}

func tierForCover(days float64) (domain.RiskLevel, string, string) {
	switch {
	case days <= criticalCoverDays:
		return domain.RiskCritical,
			fmt.Sprintf("Critical: Only %.1f days of stock remaining", days),
			"Urgent reorder required immediately"
	case days <= highCoverDays:
		return domain.RiskHigh,
			fmt.Sprintf("High risk: %.1f days of stock remaining", days),
			"Reorder within 24 hours"
	case days <= mediumCoverDays:
		return domain.RiskMedium,
			fmt.Sprintf("Medium risk: %.1f days of stock remaining", days),
			"Plan reorder within the week"
	default:
		return domain.RiskLow,
			fmt.Sprintf("Low risk: %.1f days of stock remaining", days),
			"Monitor stock levels"
	}
}
