package domain

import (
	"encoding/json"
	"time"
)

// Inventory is an immutable, ordered set of snapshots keyed by product id.
// Products keep the order in which they were first added. Snapshots are
// copied on the way in and out, pointer fields included.
type Inventory struct {
	products []InventorySnapshot
	index    map[string]int
}

// NewInventory builds an inventory from snapshots. A later snapshot for an
// already present product id replaces the earlier one in place.
func NewInventory(snapshots ...InventorySnapshot) Inventory {
	inv := Inventory{
		products: make([]InventorySnapshot, 0, len(snapshots)),
		index:    make(map[string]int, len(snapshots)),
	}
	for _, s := range snapshots {
		s = cloneSnapshot(s)
		if i, ok := inv.index[s.ProductID]; ok {
			inv.products[i] = s
			continue
		}
		inv.index[s.ProductID] = len(inv.products)
		inv.products = append(inv.products, s)
	}
	return inv
}

func (inv Inventory) Len() int {
	return len(inv.products)
}

// Get returns a copy of the snapshot for productID.
func (inv Inventory) Get(productID string) (InventorySnapshot, bool) {
	i, ok := inv.index[productID]
	if !ok {
		return InventorySnapshot{}, false
	}
	return cloneSnapshot(inv.products[i]), true
}

func (inv Inventory) Has(productID string) bool {
	_, ok := inv.index[productID]
	return ok
}

// Products returns a copy of all snapshots in insertion order.
func (inv Inventory) Products() []InventorySnapshot {
	out := make([]InventorySnapshot, len(inv.products))
	for i, p := range inv.products {
		out[i] = cloneSnapshot(p)
	}
	return out
}

// IDs returns product ids in insertion order.
func (inv Inventory) IDs() []string {
	ids := make([]string, len(inv.products))
	for i, p := range inv.products {
		ids[i] = p.ProductID
	}
	return ids
}

func (inv Inventory) MarshalJSON() ([]byte, error) {
	return json.Marshal(inv.Products())
}

func (inv *Inventory) UnmarshalJSON(data []byte) error {
	var snapshots []InventorySnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return err
	}
	*inv = NewInventory(snapshots...)
	return nil
}

func cloneSnapshot(s InventorySnapshot) InventorySnapshot {
	s.LastSaleDate = cloneTime(s.LastSaleDate)
	s.FirstSaleDate = cloneTime(s.FirstSaleDate)
	if s.DaysOfStockRemaining != nil {
		days := *s.DaysOfStockRemaining
		s.DaysOfStockRemaining = &days
	}
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
