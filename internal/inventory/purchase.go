package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go-sklad/internal/apperr"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// PurchaseInput is an order entry. Every field is required.
type PurchaseInput struct {
	Name         string          `json:"name" validate:"required"`
	Code         string          `json:"code" validate:"required"`
	Color        string          `json:"color" validate:"required"`
	Size         string          `json:"size" validate:"required"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	PriceYuan    decimal.Decimal `json:"priceYuan"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Supplier     string          `json:"supplier" validate:"required"`
}

// CreatePurchase records an order line in the ordered stage.
func (e *Engine) CreatePurchase(ctx context.Context, in PurchaseInput) (models.PurchaseRecord, error) {
	const op = "createPurchase"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.PurchaseRecord{}, err
	}
	if err := e.validate.Struct(in); err != nil {
		return models.PurchaseRecord{}, validationError(op, err)
	}
	if !in.PriceYuan.IsPositive() {
		return models.PurchaseRecord{}, apperr.New(op, apperr.ErrValidation, "priceYuan")
	}
	if !in.ExchangeRate.IsPositive() {
		return models.PurchaseRecord{}, apperr.New(op, apperr.ErrValidation, "exchangeRate")
	}

	p := models.PurchaseRecord{
		StockUnit: models.StockUnit{
			Name:         in.Name,
			Code:         in.Code,
			Color:        in.Color,
			Size:         in.Size,
			Quantity:     in.Quantity,
			PriceYuan:    in.PriceYuan,
			ExchangeRate: in.ExchangeRate,
			Supplier:     in.Supplier,
			CreatedBy:    id.Email,
			UserID:       id.UserID,
			Stage:        models.StageOrdered,
		},
		Status:       models.PurchaseStatus,
		DocumentType: models.PurchaseDocumentType,
	}
	p.Recompute()

	fields, err := docstore.FieldsOf(p)
	if err != nil {
		return models.PurchaseRecord{}, apperr.Wrap(op, apperr.ErrValidation, p.Label(), err)
	}
	fields["createdAt"] = docstore.ServerTimestamp

	p.ID, err = e.store.Create(ctx, models.CollectionPurchases, fields)
	if err != nil {
		return models.PurchaseRecord{}, err
	}
	p.CreatedAt = e.now().UTC()

	e.logger(op).WithFields(logrus.Fields{"purchase_id": p.ID, "supplier": p.Supplier}).Info("purchase created")
	return p, nil
}

// LastPurchaseForSupplier returns the newest purchase of supplier, used to
// prefill the next order entry.
func (e *Engine) LastPurchaseForSupplier(ctx context.Context, supplier string) (models.PurchaseRecord, error) {
	const op = "lastPurchaseForSupplier"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.PurchaseRecord{}, err
	}
	q := userQuery(id, "createdAt")
	q.Filters = append(q.Filters, docstore.Eq("supplier", supplier))
	q.Limit = 1

	docs, err := e.store.Query(ctx, models.CollectionPurchases, q)
	if err != nil {
		return models.PurchaseRecord{}, err
	}
	if len(docs) == 0 {
		return models.PurchaseRecord{}, apperr.New(op, apperr.ErrNotFound, supplier)
	}
	return DecodePurchase(docs[0])
}

// ListPurchases returns the user's purchases newest first. Archived purchases
// are left out unless includeArchived is set.
func (e *Engine) ListPurchases(ctx context.Context, includeArchived bool) ([]models.PurchaseRecord, error) {
	const op = "listPurchases"
	id, err := e.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	docs, err := e.store.Query(ctx, models.CollectionPurchases, userQuery(id, "createdAt"))
	if err != nil {
		return nil, err
	}
	all, err := DecodePurchases(docs)
	if err != nil {
		return nil, err
	}
	if includeArchived {
		return all, nil
	}
	active := all[:0]
	for _, p := range all {
		if !p.IsArchived {
			active = append(active, p)
		}
	}
	return active, nil
}

// SupplierPurchases returns the active purchases in one supplier group.
func (e *Engine) SupplierPurchases(ctx context.Context, supplier string) ([]models.PurchaseRecord, error) {
	active, err := e.ListPurchases(ctx, false)
	if err != nil {
		return nil, err
	}
	return models.GroupBySupplier(active, e.unknown).BySupplier[supplier], nil
}
