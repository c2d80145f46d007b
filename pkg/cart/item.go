package cart

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Item is one cart line. Quantity is at least 1 in any stored snapshot; a
// lower value means the line is being removed.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ThumbnailRef string          `json:"thumbnail,omitempty"`
	Quantity     int             `json:"quantity"`
	Note         string          `json:"note"`
}

// LineTotal is UnitPrice times Quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Snapshot is an ordered list of items with unique ids.
type Snapshot []Item

// Index returns the position of id, or -1.
func (s Snapshot) Index(id string) int {
	return slices.IndexFunc(s, func(it Item) bool { return it.ID == id })
}

// Find returns the item with id.
func (s Snapshot) Find(id string) (Item, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Item{}, false
}

// Count is the total quantity across all lines.
func (s Snapshot) Count() int {
	n := 0
	for _, it := range s {
		n += it.Quantity
	}
	return n
}

// Subtotal sums the line totals.
func (s Snapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Clone returns a copy that shares nothing with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return slices.Clone(s)
}

// normalize drops lines with a non-positive quantity and repeated ids,
// keeping the first occurrence. It reports how many lines were dropped.
func normalize(items []Item) (Snapshot, int) {
	out := make(Snapshot, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, len(items) - len(out)
}
