package component

import (
	"sort"

	"github.com/plus3/driftworks/gamedata"
)

// Inventory counts resources. Counts are always positive; a kind whose
// count reaches zero is removed.
type Inventory struct {
	Items map[gamedata.Resource]int
}

// NewInventory returns an inventory seeded with items.
func NewInventory(items map[gamedata.Resource]int) Inventory {
	inv := Inventory{}
	for res, n := range items {
		inv.Add(res, n)
	}
	return inv
}

// Add increases the count of res. Non-positive amounts are ignored.
func (inv *Inventory) Add(res gamedata.Resource, n int) {
	if n <= 0 {
		return
	}
	if inv.Items == nil {
		inv.Items = make(map[gamedata.Resource]int)
	}
	inv.Items[res] += n
}

// AddAll adds every entry of amounts.
func (inv *Inventory) AddAll(amounts gamedata.Amounts) {
	for res, n := range amounts {
		inv.Add(res, n)
	}
}

// Remove takes up to n units of res and returns how many were taken.
func (inv *Inventory) Remove(res gamedata.Resource, n int) int {
	have := inv.Items[res]
	if n <= 0 || have <= 0 {
		return 0
	}
	taken := min(n, have)
	if have-taken <= 0 {
		delete(inv.Items, res)
	} else {
		inv.Items[res] = have - taken
	}
	return taken
}

// RemoveAll takes every entry of amounts, each clamped to what is held.
func (inv *Inventory) RemoveAll(amounts gamedata.Amounts) {
	for res, n := range amounts {
		inv.Remove(res, n)
	}
}

// Has reports whether every entry of amounts is covered.
func (inv *Inventory) Has(amounts gamedata.Amounts) bool {
	for res, n := range amounts {
		if inv.Items[res] < n {
			return false
		}
	}
	return true
}

// Count returns the units held of res.
func (inv *Inventory) Count(res gamedata.Resource) int {
	return inv.Items[res]
}

// Total returns the units held across all kinds.
func (inv *Inventory) Total() int {
	total := 0
	for _, n := range inv.Items {
		total += n
	}
	return total
}

// Kinds returns the held kinds in ascending order.
func (inv *Inventory) Kinds() []gamedata.Resource {
	kinds := make([]gamedata.Resource, 0, len(inv.Items))
	for res := range inv.Items {
		kinds = append(kinds, res)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (inv *Inventory) Empty() bool {
	return len(inv.Items) == 0
}

// Clear drops every entry.
func (inv *Inventory) Clear() {
	clear(inv.Items)
}

// Snapshot returns a copy of the counts.
func (inv *Inventory) Snapshot() map[gamedata.Resource]int {
	out := make(map[gamedata.Resource]int, len(inv.Items))
	for res, n := range inv.Items {
		out[res] = n
	}
	return out
}
