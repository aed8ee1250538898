package decision

import (
	"sort"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
)

const (
	// DefaultSlowMovingThresholdDays is the default number of days without a sale
	// before a product counts as slow-moving.
	DefaultSlowMovingThresholdDays = 90

	// placeholderUnitValue stands in for unit cost, which is not tracked.
	placeholderUnitValue = 10.0

	promoteAfterDays     = 120
	discontinueAfterDays = 180
)

// DetectSlowMovers flags products whose last sale is at least thresholdDays before now.
// The result is ordered stalest first.
func DetectSlowMovers(inv domain.Inventory, now time.Time, thresholdDays int) []domain.SlowMovingProduct {
	slowMovers := make([]domain.SlowMovingProduct, 0)

	for _, product := range inv.Products() {
		if product.LastSaleDate == nil {
			continue
		}

		daysSinceLastSale := wholeDays(now.Sub(*product.LastSaleDate))
		if daysSinceLastSale < thresholdDays {
			continue
		}

		slowMovers = append(slowMovers, domain.SlowMovingProduct{
			ProductID:         product.ProductID,
			ProductName:       product.ProductName,
			DaysSinceLastSale: daysSinceLastSale,
			CurrentStock:      product.CurrentStock,
			TotalValue:        float64(product.CurrentStock) * placeholderUnitValue,
			RecommendedAction: slowMoverAction(daysSinceLastSale, product.CurrentStock),
		})
	}

	sort.SliceStable(slowMovers, func(i, j int) bool {
		return slowMovers[i].DaysSinceLastSale > slowMovers[j].DaysSinceLastSale
	})

	return slowMovers
}

func slowMoverAction(daysSinceLastSale, currentStock int) string {
	if currentStock <= 0 {
		return "No action needed - already out of stock"
	}
	switch {
	case daysSinceLastSale >= discontinueAfterDays:
		return "Consider discontinuing or deep discounting"
	case daysSinceLastSale >= promoteAfterDays:
		return "Run promotional campaign to clear inventory"
	default:
		return "Review pricing and marketing strategy"
	}
}
