// Package checks turns a supplier group of purchase or cart lines into an
// immutable check record.
package checks

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

type Aggregator struct {
	store   docstore.Gateway
	log     *logrus.Logger
	unknown string
}

func NewAggregator(store docstore.Gateway, log *logrus.Logger, unknown string) *Aggregator {
	if unknown == "" {
		unknown = models.UnknownSupplier
	}
	return &Aggregator{store: store, log: log, unknown: unknown}
}

// GroupBySupplier partitions lines by supplier, keeping input order inside
// every group. Lines without a supplier go under the unknown key.
func GroupBySupplier[T models.Supplied](a *Aggregator, lines []T) models.Groups[T] {
	return models.GroupBySupplier(lines, a.unknown)
}

// ClosePurchaseCheck records the commercial commitment for one supplier's
// purchase order. Totals are in the source currency. The purchases are left
// as they are; stocking them is a separate ReceiveIntoWarehouse per line.
func (a *Aggregator) ClosePurchaseCheck(ctx context.Context, supplier string, lines []models.PurchaseRecord) (models.CheckRecord, error) {
	const op = "closePurchaseCheck"
	id, err := a.identity(ctx, op)
	if err != nil {
		return models.CheckRecord{}, err
	}
	supplier = models.SupplierKey(supplier, a.unknown)
	if err := sameGroup(op, supplier, a.unknown, lines); err != nil {
		return models.CheckRecord{}, err
	}
	if err := a.notYetChecked(ctx, op, id, supplier, lines); err != nil {
		return models.CheckRecord{}, err
	}

	check := models.CheckRecord{
		Kind:           models.CheckKindPurchase,
		Supplier:       supplier,
		Products:       make([]models.CheckLine, 0, len(lines)),
		TotalPriceYuan: decimal.Zero,
		Currency:       models.CurrencySource,
		CreatedBy:      id.Email,
		UserID:         id.UserID,
		Status:         models.CheckStatusPending,
	}
	for _, p := range lines {
		lineTotal := p.PriceYuan.Mul(decimal.NewFromInt(int64(p.Quantity)))
		check.Products = append(check.Products, models.CheckLine{
			ProductID:      p.ID,
			Name:           p.Name,
			Code:           p.Code,
			Color:          p.Color,
			Size:           p.Size,
			Quantity:       p.Quantity,
			PriceYuan:      p.PriceYuan,
			PriceTenge:     p.PriceTenge,
			ExchangeRate:   p.ExchangeRate,
			TotalPriceYuan: lineTotal,
			LineTotal:      lineTotal,
		})
		check.TotalQuantity += p.Quantity
		check.TotalPriceYuan = check.TotalPriceYuan.Add(lineTotal)
	}
	check.TotalAmount = check.TotalPriceYuan

	return a.persist(ctx, op, check)
}

// CloseSaleCheck records one supplier's share of a retail sale in local
// currency and drops those lines from c.
func (a *Aggregator) CloseSaleCheck(ctx context.Context, supplier string, lines []models.CartLine, c *cart.Store) (models.CheckRecord, error) {
	const op = "closeSaleCheck"
	id, err := a.identity(ctx, op)
	if err != nil {
		return models.CheckRecord{}, err
	}
	supplier = models.SupplierKey(supplier, a.unknown)
	if err := sameGroup(op, supplier, a.unknown, lines); err != nil {
		return models.CheckRecord{}, err
	}

	check := models.CheckRecord{
		Kind:           models.CheckKindSale,
		Supplier:       supplier,
		Items:          make([]models.CheckLine, 0, len(lines)),
		TotalPriceYuan: decimal.Zero,
		TotalAmount:    decimal.Zero,
		Currency:       models.CurrencyLocal,
		CreatedBy:      id.Email,
		UserID:         id.UserID,
		Status:         models.CheckStatusCompleted,
	}
	for _, l := range lines {
		lineTotal := l.LineTotal()
		costYuan := l.PriceYuan.Mul(decimal.NewFromInt(int64(l.SelectedQuantity)))
		check.Items = append(check.Items, models.CheckLine{
			ProductID:      l.ID,
			Name:           l.Name,
			Code:           l.Code,
			Color:          l.Color,
			Size:           l.Size,
			Quantity:       l.SelectedQuantity,
			PriceYuan:      l.PriceYuan,
			PriceTenge:     l.PriceTenge,
			ExchangeRate:   l.ExchangeRate,
			SellingPrice:   l.SellingPrice,
			TotalPriceYuan: costYuan,
			LineTotal:      lineTotal,
		})
		check.TotalQuantity += l.SelectedQuantity
		check.TotalPriceYuan = check.TotalPriceYuan.Add(costYuan)
		check.TotalAmount = check.TotalAmount.Add(lineTotal)
	}

	check, err = a.persist(ctx, op, check)
	if err != nil {
		return check, err
	}
	if c != nil {
		c.CompleteSupplierPurchase(supplier)
	}
	return check, nil
}

// sameGroup enforces the caller's grouping: a non-empty set whose lines all
// fall under supplier.
func sameGroup[T models.Supplied](op, supplier, unknown string, lines []T) error {
	if len(lines) == 0 {
		return apperr.New(op, apperr.ErrInvalidState, "no lines for "+supplier)
	}
	want := models.SupplierKey(supplier, unknown)
	for _, l := range lines {
		if k := models.SupplierKey(l.SupplierName(), unknown); k != want {
			return apperr.New(op, apperr.ErrInvalidState, k+" line in "+want+" check")
		}
	}
	return nil
}

// notYetChecked rejects purchases already listed on a purchase check.
// Once a supplier's order is closed the next step is arrival, not another check.
func (a *Aggregator) notYetChecked(ctx context.Context, op string, id auth.Identity, supplier string, lines []models.PurchaseRecord) error {
	docs, err := a.store.Query(ctx, models.CollectionChecks, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("userId", id.UserID),
			docstore.Eq("kind", models.CheckKindPurchase),
			docstore.Eq("supplier", supplier),
		},
	})
	if err != nil {
		return err
	}
	checked := make(map[string]string)
	for _, d := range docs {
		c, err := decodeCheck(d)
		if err != nil {
			return apperr.Wrap(op, apperr.ErrInvalidState, d.ID, err)
		}
		for _, l := range c.Products {
			if l.ProductID != "" {
				checked[l.ProductID] = c.ID
			}
		}
	}
	for _, p := range lines {
		if checkID, ok := checked[p.ID]; ok {
			return apperr.New(op, apperr.ErrInvalidState, p.Label()+" is already on check "+checkID)
		}
	}
	return nil
}

func (a *Aggregator) persist(ctx context.Context, op string, check models.CheckRecord) (models.CheckRecord, error) {
	fields, err := docstore.FieldsOf(check)
	if err != nil {
		return check, apperr.Wrap(op, apperr.ErrValidation, check.Supplier, err)
	}
	fields["createdAt"] = docstore.ServerTimestamp

	check.ID, err = a.store.Create(ctx, models.CollectionChecks, fields)
	if err != nil {
		a.logger(op).WithError(err).WithField("supplier", check.Supplier).Error("check not saved")
		return check, err
	}
	doc, err := a.store.Get(ctx, models.CollectionChecks, check.ID)
	if err == nil {
		if stored, derr := decodeCheck(doc); derr == nil {
			check.CreatedAt = stored.CreatedAt
		}
	}

	a.logger(op).WithFields(logrus.Fields{
		"check_id": check.ID,
		"supplier": check.Supplier,
		"total":    check.TotalAmount.String(),
		"currency": check.Currency,
	}).Info("check closed")
	return check, nil
}

func (a *Aggregator) identity(ctx context.Context, op string) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return auth.Identity{}, apperr.New(op, apperr.ErrUnauthenticated, "")
	}
	return id, nil
}

func (a *Aggregator) logger(op string) *logrus.Entry {
	return a.log.WithFields(logrus.Fields{"module": "checks", "op": op})
}
