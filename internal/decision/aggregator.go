package decision

import (
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// productTotals accumulates per-product sales while folding the transaction log.
type productTotals struct {
	productID    string
	productName  string
	totalSold    int
	totalRevenue decimal.Decimal
	firstSale    time.Time
	lastSale     time.Time
}

// Aggregate folds transactions into one inventory snapshot per product.
//
// Stock is estimated from sales only: initialStock[productID] minus units sold,
// floored at zero. Without an initial stock entry every product that sells ends
// up with zero stock. Products keep the order of their first transaction.
func Aggregate(txns []domain.Transaction, initialStock map[string]int) domain.Inventory {
	order := make([]string, 0)
	totals := make(map[string]*productTotals)

	// 1. Group by product, accumulating totals and date bounds
	for _, t := range txns {
		pt, ok := totals[t.ProductID]
		if !ok {
			pt = &productTotals{
				productID:   t.ProductID,
				productName: t.ProductName,
				firstSale:   t.TransactionDate,
				lastSale:    t.TransactionDate,
			}
			totals[t.ProductID] = pt
			order = append(order, t.ProductID)
		}

		pt.totalSold += t.Quantity
		pt.totalRevenue = pt.totalRevenue.Add(
			decimal.NewFromFloat(t.UnitPrice).Mul(decimal.NewFromInt(int64(t.Quantity))),
		)
		if t.TransactionDate.After(pt.lastSale) {
			pt.lastSale = t.TransactionDate
		}
		if t.TransactionDate.Before(pt.firstSale) {
			pt.firstSale = t.TransactionDate
		}
	}

	// 2. Derive run-rate and stock cover per product
	snapshots := make([]domain.InventorySnapshot, 0, len(order))
	for _, id := range order {
		pt := totals[id]

		daysSpan := wholeDays(pt.lastSale.Sub(pt.firstSale)) + 1
		if daysSpan < 1 {
			daysSpan = 1
		}
		averageDailySales := float64(pt.totalSold) / float64(daysSpan)

		initial := 0
		if initialStock != nil {
			initial = initialStock[id]
		}
		currentStock := initial - pt.totalSold
		if currentStock < 0 {
			currentStock = 0
		}

		var daysRemaining *float64
		if averageDailySales > 0 {
			v := float64(currentStock) / averageDailySales
			daysRemaining = &v
		}

		first, last := pt.firstSale, pt.lastSale
		snapshots = append(snapshots, domain.InventorySnapshot{
			ProductID:            pt.productID,
			ProductName:          pt.productName,
			CurrentStock:         currentStock,
			UnitCost:             0,
			LastSaleDate:         &last,
			AverageDailySales:    averageDailySales,
			DaysOfStockRemaining: daysRemaining,
			FirstSaleDate:        &first,
			TotalUnitsSold:       pt.totalSold,
			TotalRevenue:         pt.totalRevenue,
		})
	}

	return domain.NewInventory(snapshots...)
}

// wholeDays returns the number of whole days in d, rounded toward negative infinity.
func wholeDays(d time.Duration) int {
	days := d / day
	if d < 0 && d%day != 0 {
		days--
	}
	return int(days)
}
