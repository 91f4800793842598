package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go-sklad/internal/apperr"
	"go-sklad/internal/auth"
	"go-sklad/internal/cart"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// RecordSale sells every line of c.
//
// All lines are checked against the current warehouse quantities before
// anything is written, so a shortfall fails with InsufficientStock and leaves
// the store untouched. After that the sale record is created and each
// warehouse record is decremented in cart order. These writes are not atomic:
// if one fails, earlier lines stay decremented and the applied and pending
// line ids are logged for manual reconciliation. The cart is cleared only
// when every line was applied.
func (e *Engine) RecordSale(ctx context.Context, c *cart.Store) (models.SaleRecord, error) {
	const op = "recordSale"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.SaleRecord{}, err
	}
	lines := c.Items()
	if len(lines) == 0 {
		return models.SaleRecord{}, apperr.New(op, apperr.ErrInvalidState, "empty cart")
	}

	for _, line := range lines {
		if line.SelectedQuantity < 1 {
			return models.SaleRecord{}, apperr.New(op, apperr.ErrValidation, line.Label())
		}
		if _, err := e.remaining(ctx, op, id, line); err != nil {
			return models.SaleRecord{}, err
		}
	}

	sale := buildSale(id, lines)
	fields, err := docstore.FieldsOf(sale)
	if err != nil {
		return models.SaleRecord{}, apperr.Wrap(op, apperr.ErrValidation, "sale", err)
	}
	fields["saleDate"] = docstore.ServerTimestamp

	sale.ID, err = e.store.Create(ctx, models.CollectionSales, fields)
	if err != nil {
		return models.SaleRecord{}, err
	}
	sale.SaleDate = e.now().UTC()

	log := e.logger(op).WithField("sale_id", sale.ID)
	applied := make([]string, 0, len(lines))
	for i, line := range lines {
		if err := e.decrement(ctx, op, id, line); err != nil {
			pending := make([]string, 0, len(lines)-i)
			for _, rest := range lines[i:] {
				pending = append(pending, rest.ID)
			}
			log.WithError(err).WithFields(logrus.Fields{
				"applied": applied,
				"pending": pending,
				"item_id": line.ID,
			}).Error("sale partially applied")
			return sale, err
		}
		applied = append(applied, line.ID)
		log.WithField("item_id", line.ID).Debug("warehouse quantity decremented")
	}

	c.ClearCart()
	log.WithField("total", sale.TotalAmount.String()).Info("sale recorded")
	return sale, nil
}

// remaining re-reads the warehouse record of line and returns the quantity
// left after selling it.
func (e *Engine) remaining(ctx context.Context, op string, id auth.Identity, line models.CartLine) (int, error) {
	w, err := e.warehouseRecord(ctx, op, id, line.ID)
	if err != nil {
		return 0, wrapFor(op, line.Label(), err)
	}
	left := w.Quantity - line.SelectedQuantity
	if left < 0 {
		return 0, apperr.New(op, apperr.ErrInsufficientStock, line.Label())
	}
	return left, nil
}

func (e *Engine) decrement(ctx context.Context, op string, id auth.Identity, line models.CartLine) error {
	left, err := e.remaining(ctx, op, id, line)
	if err != nil {
		return err
	}
	err = e.store.Update(ctx, models.CollectionWarehouse, line.ID, docstore.Fields{
		"quantity":      left,
		"lastUpdated":   docstore.ServerTimestamp,
		"lastUpdatedBy": id.Email,
		"userId":        id.UserID,
	})
	if err != nil {
		return wrapFor(op, line.Label(), err)
	}
	return nil
}

func buildSale(id auth.Identity, lines []models.CartLine) models.SaleRecord {
	sale := models.SaleRecord{
		Items:       make([]models.SaleLine, 0, len(lines)),
		TotalAmount: decimal.Zero,
		SoldBy:      id.Email,
		UserID:      id.UserID,
	}
	for _, line := range lines {
		sale.Items = append(sale.Items, models.SaleLine{
			ProductID:  line.ID,
			Quantity:   line.SelectedQuantity,
			PriceYuan:  line.PriceYuan,
			PriceTenge: line.SellingPrice,
			Name:       line.Name,
			Code:       line.Code,
		})
		sale.TotalAmount = sale.TotalAmount.Add(line.LineTotal())
	}
	return sale
}

// ListSales returns the user's sales newest first.
func (e *Engine) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	const op = "listSales"
	id, err := e.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.Query(ctx, models.CollectionSales, userQuery(id, "saleDate"))
	if err != nil {
		return nil, err
	}
	return DecodeSales(docs)
}
