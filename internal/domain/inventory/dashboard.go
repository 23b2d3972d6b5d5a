package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockLimit caps the low-stock list on the dashboard
const LowStockLimit = 10

// LowStockItem is a product at or below its reorder point
type LowStockItem struct {
	ProductID        uuid.UUID       `json:"product_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	VirtualAvailable decimal.Decimal `json:"virtual_available"`
	ReorderPoint     decimal.Decimal `json:"reorder_point"`
}

// Dashboard summarises stock for the inventory overview screen
type Dashboard struct {
	TotalProducts   int64               `json:"total_products"`
	LowStock        []LowStockItem      `json:"low_stock"`
	LowStockCount   int                 `json:"low_stock_count"`
	TotalStockValue decimal.Decimal     `json:"total_stock_value"`
	MovesByState    map[MoveState]int64 `json:"moves_by_state"`
}

// LowStockItems filters products below their reorder point, lowest
// virtual availability first, capped at limit (0 means no cap).
func LowStockItems(products []Product, limit int) []LowStockItem {
	items := make([]LowStockItem, 0)
	for i := range products {
		p := &products[i]
		if !p.IsBelowReorderPoint() {
			continue
		}
		items = append(items, LowStockItem{
			ProductID:        p.ID,
			Code:             p.Code,
			Name:             p.Name,
			VirtualAvailable: p.VirtualAvailable,
			ReorderPoint:     p.ReorderPoint,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].VirtualAvailable.LessThan(items[j].VirtualAvailable)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// BuildDashboard assembles the dashboard from already-fetched aggregates.
// Every state appears in MovesByState, zero when no move is in it.
func BuildDashboard(totalProducts int64, lowStock []LowStockItem, stockValue decimal.Decimal, movesByState map[MoveState]int64) Dashboard {
	counts := make(map[MoveState]int64, len(AllMoveStates()))
	for _, s := range AllMoveStates() {
		counts[s] = movesByState[s]
	}
	return Dashboard{
		TotalProducts:   totalProducts,
		LowStock:        lowStock,
		LowStockCount:   len(lowStock),
		TotalStockValue: stockValue.Round(2),
		MovesByState:    counts,
	}
}
