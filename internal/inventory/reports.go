package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"go-sklad/internal/models"
)

// ValuationItem is one warehouse line priced at its local purchase price.
type ValuationItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Quantity   int             `json:"quantity"`
	PriceTenge decimal.Decimal `json:"priceTenge"`
	TotalCost  decimal.Decimal `json:"totalCost"`
}

type SupplierValuation struct {
	Supplier string          `json:"supplier"`
	Items    []ValuationItem `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Suppliers  []SupplierValuation `json:"suppliers"`
	GrandTotal decimal.Decimal     `json:"grandTotal"`
}

// StockValuation prices the user's whole warehouse, grouped by supplier.
func (e *Engine) StockValuation(ctx context.Context) (Valuation, error) {
	records, err := e.ListWarehouse(ctx, "")
	if err != nil {
		return Valuation{}, err
	}

	groups := models.GroupBySupplier(records, e.unknown)
	v := Valuation{Suppliers: make([]SupplierValuation, 0, len(groups.Order)), GrandTotal: decimal.Zero}
	for _, supplier := range groups.Order {
		sv := SupplierValuation{Supplier: supplier, Subtotal: decimal.Zero}
		for _, w := range groups.BySupplier[supplier] {
			itemTotal := w.PriceTenge.Mul(decimal.NewFromInt(int64(w.Quantity)))
			sv.Items = append(sv.Items, ValuationItem{
				ID:         w.ID,
				Name:       w.Name,
				Code:       w.Code,
				Quantity:   w.Quantity,
				PriceTenge: w.PriceTenge,
				TotalCost:  itemTotal,
			})
			sv.Subtotal = sv.Subtotal.Add(itemTotal)
		}
		v.GrandTotal = v.GrandTotal.Add(sv.Subtotal)
		v.Suppliers = append(v.Suppliers, sv)
	}
	return v, nil
}

// SalesSummary holds revenue and order count for a period
type SalesSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCount   int64           `json:"totalCount"`
}

// SalesReport sums the user's sales with start <= saleDate <= end.
func (e *Engine) SalesReport(ctx context.Context, start, end time.Time) (SalesSummary, error) {
	sales, err := e.ListSales(ctx)
	if err != nil {
		return SalesSummary{}, err
	}
	result := SalesSummary{From: start, To: end, TotalRevenue: decimal.Zero}
	for _, s := range sales {
		if s.SaleDate.Before(start) || s.SaleDate.After(end) {
			continue
		}
		result.TotalRevenue = result.TotalRevenue.Add(s.TotalAmount)
		result.TotalCount++
	}
	return result, nil
}
