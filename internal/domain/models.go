// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single validated sales line.
type Transaction struct {
	TransactionID   string    `json:"transaction_id" db:"transaction_id" msgpack:"transaction_id"`
	ProductID       string    `json:"product_id" db:"product_id" msgpack:"product_id"`
	ProductName     string    `json:"product_name" db:"product_name" msgpack:"product_name"`
	Quantity        int       `json:"quantity" db:"quantity" msgpack:"quantity"`
	UnitPrice       float64   `json:"unit_price" db:"unit_price" msgpack:"unit_price"`
	TransactionDate time.Time `json:"transaction_date" db:"transaction_date" msgpack:"transaction_date"`
	CustomerID      *string   `json:"customer_id" db:"customer_id" msgpack:"customer_id"`
}

// InventorySnapshot is the derived per-product inventory state.
//
// UnitCost is always 0: unit cost is not tracked. CurrentStock is estimated from
// sales only (initial stock minus units sold, floored at zero).
type InventorySnapshot struct {
	ProductID            string          `json:"product_id"`
	ProductName          string          `json:"product_name"`
	CurrentStock         int             `json:"current_stock"`
	UnitCost             float64         `json:"unit_cost"`
	LastSaleDate         *time.Time      `json:"last_sale_date"`
	AverageDailySales    float64         `json:"average_daily_sales"`
	DaysOfStockRemaining *float64        `json:"days_of_stock_remaining"`
	FirstSaleDate        *time.Time      `json:"first_sale_date"`
	TotalUnitsSold       int             `json:"total_units_sold"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
}

// InventoryRisk is the stock-out assessment of one product
type InventoryRisk struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RiskReason        string    `json:"risk_reason"`
	CurrentStock      int       `json:"current_stock"`
	DaysUntilStockout *float64  `json:"days_until_stockout"`
	RecommendedAction string    `json:"recommended_action"`
}

// SlowMovingProduct is a product without recent sales.
// TotalValue uses a placeholder unit value since no unit cost is available.
type SlowMovingProduct struct {
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	DaysSinceLastSale int     `json:"days_since_last_sale"`
	CurrentStock      int     `json:"current_stock"`
	TotalValue        float64 `json:"total_value"`
	RecommendedAction string  `json:"recommended_action"`
}

// ReorderRecommendation is a sized reorder for an at-risk product
type ReorderRecommendation struct {
	ProductID           string    `json:"product_id"`
	ProductName         string    `json:"product_name"`
	CurrentStock        int       `json:"current_stock"`
	RecommendedQuantity int       `json:"recommended_quantity"`
	Reasoning           string    `json:"reasoning"`
	Urgency             RiskLevel `json:"urgency"`
}

// DecisionInsight is one ranked, actionable decision.
type DecisionInsight struct {
	ProductID         string       `json:"product_id"`
	ProductName       string       `json:"product_name"`
	DecisionType      DecisionType `json:"decision_type"`
	Priority          RiskLevel    `json:"priority"`
	Summary           string       `json:"summary"`
	Reasoning         string       `json:"reasoning"`
	RecommendedAction string       `json:"recommended_action"`
	EstimatedImpact   *string      `json:"estimated_impact"`
}

// DecisionResponse wraps the ranked insights of one analysis run.
type DecisionResponse struct {
	DatasetID       string            `json:"dataset_id,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
	TotalInsights   int               `json:"total_insights"`
	CriticalActions int               `json:"critical_actions"`
	Insights        []DecisionInsight `json:"insights"`
}

// RiskBreakdown counts risks per tier.
type RiskBreakdown struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// DecisionSummary is the compact overview of an analysis run.
type DecisionSummary struct {
	InventoryRisks         RiskBreakdown `json:"inventory_risks"`
	SlowMovingProducts     int           `json:"slow_moving_products"`
	ReorderRecommendations int           `json:"reorder_recommendations"`
	TotalProducts          int           `json:"total_products"`
}

// IngestionResult reports the outcome of ingesting one upload.
type IngestionResult struct {
	Success             bool   `json:"success"`
	DatasetID           string `json:"dataset_id"`
	RecordsProcessed    int    `json:"records_processed"`
	ProductsIdentified  int    `json:"products_identified"`
	RowsSkipped         int    `json:"rows_skipped"`
	Message             string `json:"message"`
	ArchivedObjectKey   string `json:"archived_object_key,omitempty"`
	InitialStockEntries int    `json:"initial_stock_entries"`
}
