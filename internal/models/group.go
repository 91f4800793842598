package models

// UnknownSupplier is the group key for lines without a supplier.
const UnknownSupplier = "Неизвестный"

type Supplied interface {
	SupplierName() string
}

// SupplierKey maps an empty supplier to the unknown sentinel.
func SupplierKey(supplier, unknown string) string {
	if supplier == "" {
		return unknown
	}
	return supplier
}

// Groups is a stable partition of lines by supplier. Order lists the keys in
// order of first appearance.
type Groups[T any] struct {
	Order      []string       `json:"order"`
	BySupplier map[string][]T `json:"groups"`
}

// GroupBySupplier partitions lines keeping input order inside every group.
func GroupBySupplier[T Supplied](lines []T, unknown string) Groups[T] {
	g := Groups[T]{BySupplier: make(map[string][]T)}
	for _, line := range lines {
		key := SupplierKey(line.SupplierName(), unknown)
		if _, seen := g.BySupplier[key]; !seen {
			g.Order = append(g.Order, key)
		}
		g.BySupplier[key] = append(g.BySupplier[key], line)
	}
	return g
}
