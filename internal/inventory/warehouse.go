package inventory

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"go-sklad/internal/apperr"
	"go-sklad/internal/cart"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// WarehouseUpdate lists the editable fields; nil means unchanged.
type WarehouseUpdate struct {
	Name         *string          `json:"name"`
	Code         *string          `json:"code"`
	Color        *string          `json:"color"`
	Quantity     *int             `json:"quantity" validate:"omitempty,gte=0"`
	PriceYuan    *decimal.Decimal `json:"priceYuan"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate"`
	Supplier     *string          `json:"supplier"`
}

// ListWarehouse returns the user's stock newest first, optionally narrowed by
// a case-insensitive substring of name or code.
func (e *Engine) ListWarehouse(ctx context.Context, search string) ([]models.WarehouseRecord, error) {
	const op = "listWarehouse"
	id, err := e.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.Query(ctx, models.CollectionWarehouse, userQuery(id, "createdAt"))
	if err != nil {
		return nil, err
	}
	records, err := DecodeWarehouseRecords(docs)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return records, nil
	}
	found := records[:0]
	for _, w := range records {
		if strings.Contains(strings.ToLower(w.Name), needle) || strings.Contains(strings.ToLower(w.Code), needle) {
			found = append(found, w)
		}
	}
	return found, nil
}

func (e *Engine) GetWarehouseRecord(ctx context.Context, recordID string) (models.WarehouseRecord, error) {
	const op = "getWarehouseRecord"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	return e.warehouseRecord(ctx, op, id, recordID)
}

// UpdateWarehouseRecord overwrites the given fields (last write wins) and
// recomputes the derived prices. Open carts are not consulted.
func (e *Engine) UpdateWarehouseRecord(ctx context.Context, recordID string, upd WarehouseUpdate) (models.WarehouseRecord, error) {
	const op = "updateWarehouseRecord"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	if err := e.validate.Struct(upd); err != nil {
		return models.WarehouseRecord{}, validationError(op, err)
	}
	w, err := e.warehouseRecord(ctx, op, id, recordID)
	if err != nil {
		return models.WarehouseRecord{}, err
	}

	if upd.Name != nil {
		w.Name = *upd.Name
	}
	if upd.Code != nil {
		w.Code = *upd.Code
	}
	if upd.Color != nil {
		w.Color = *upd.Color
	}
	if upd.Quantity != nil {
		w.Quantity = *upd.Quantity
	}
	if upd.PriceYuan != nil {
		if upd.PriceYuan.IsNegative() {
			return models.WarehouseRecord{}, apperr.New(op, apperr.ErrValidation, "priceYuan")
		}
		w.PriceYuan = *upd.PriceYuan
	}
	if upd.ExchangeRate != nil {
		if upd.ExchangeRate.IsNegative() {
			return models.WarehouseRecord{}, apperr.New(op, apperr.ErrValidation, "exchangeRate")
		}
		w.ExchangeRate = *upd.ExchangeRate
	}
	if upd.Supplier != nil {
		w.Supplier = *upd.Supplier
	}
	w.Recompute()

	now := e.now().UTC()
	w.LastUpdated = &now
	w.LastUpdatedBy = id.Email

	err = e.store.Update(ctx, models.CollectionWarehouse, w.ID, docstore.Fields{
		"name":           w.Name,
		"code":           w.Code,
		"color":          w.Color,
		"quantity":       w.Quantity,
		"priceYuan":      w.PriceYuan,
		"priceTenge":     w.PriceTenge,
		"totalPriceYuan": w.TotalPriceYuan,
		"exchangeRate":   w.ExchangeRate,
		"supplier":       w.Supplier,
		"lastUpdated":    docstore.ServerTimestamp,
		"lastUpdatedBy":  id.Email,
	})
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	return w, nil
}

// ReserveToCart puts quantity units of a warehouse record into c, checking
// that what the cart already holds plus quantity fits the current record.
func (e *Engine) ReserveToCart(ctx context.Context, c *cart.Store, recordID string, quantity int) (models.CartLine, error) {
	const op = "reserveToCart"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.CartLine{}, err
	}
	w, err := e.warehouseRecord(ctx, op, id, recordID)
	if err != nil {
		return models.CartLine{}, err
	}
	if quantity < 1 {
		return models.CartLine{}, apperr.New(op, apperr.ErrValidation, w.Label())
	}
	reserved := 0
	if line, ok := c.Get(w.ID); ok {
		reserved = line.SelectedQuantity
	}
	if reserved+quantity > w.Quantity {
		return models.CartLine{}, apperr.New(op, apperr.ErrInsufficientStock, w.Label())
	}
	return c.AddToCart(w, quantity), nil
}
