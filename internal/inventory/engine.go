// Package inventory moves stock units through their lifecycle: ordered
// purchases, warehouse stock, cart reservations and sales.
package inventory

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"go-sklad/internal/apperr"
	"go-sklad/internal/auth"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// Engine applies lifecycle transitions against the document store. Every
// multi-document transition is a sequence of independent writes.
type Engine struct {
	store    docstore.Gateway
	log      *logrus.Logger
	validate *validator.Validate
	unknown  string
	now      func() time.Time
}

type Option func(*Engine)

func WithUnknownSupplier(name string) Option {
	return func(e *Engine) { e.unknown = name }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store docstore.Gateway, log *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      log,
		validate: newValidator(),
		unknown:  models.UnknownSupplier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) UnknownSupplier() string { return e.unknown }

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError names every field that failed its rule.
func validationError(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(op, apperr.ErrValidation, "", err)
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return apperr.New(op, apperr.ErrValidation, strings.Join(names, ", "))
}

// wrapFor re-labels a store failure with the entity the user knows.
func wrapFor(op, entity string, err error) error {
	kind := apperr.KindOf(err)
	if kind == nil {
		kind = apperr.ErrUnavailable
	}
	return apperr.Wrap(op, kind, entity, err)
}

func (e *Engine) identity(ctx context.Context, op string) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return auth.Identity{}, apperr.New(op, apperr.ErrUnauthenticated, "")
	}
	return id, nil
}

func (e *Engine) logger(op string) *logrus.Entry {
	return e.log.WithFields(logrus.Fields{"module": "inventory", "op": op})
}

func ownedBy(op string, id auth.Identity, owner, entity string) error {
	if owner != id.UserID {
		return apperr.New(op, apperr.ErrPermissionDenied, entity)
	}
	return nil
}

func (e *Engine) purchase(ctx context.Context, op string, id auth.Identity, purchaseID string) (models.PurchaseRecord, error) {
	doc, err := e.store.Get(ctx, models.CollectionPurchases, purchaseID)
	if err != nil {
		return models.PurchaseRecord{}, err
	}
	p, err := DecodePurchase(doc)
	if err != nil {
		return models.PurchaseRecord{}, apperr.Wrap(op, apperr.ErrInvalidState, purchaseID, err)
	}
	return p, ownedBy(op, id, p.UserID, p.Label())
}

func (e *Engine) warehouseRecord(ctx context.Context, op string, id auth.Identity, recordID string) (models.WarehouseRecord, error) {
	doc, err := e.store.Get(ctx, models.CollectionWarehouse, recordID)
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	w, err := DecodeWarehouse(doc)
	if err != nil {
		return models.WarehouseRecord{}, apperr.Wrap(op, apperr.ErrInvalidState, recordID, err)
	}
	return w, ownedBy(op, id, w.UserID, w.Label())
}

func userQuery(id auth.Identity, orderField string) docstore.Query {
	return docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", id.UserID)},
		OrderBy: []docstore.OrderBy{{Field: orderField, Desc: true}},
	}
}

func DecodePurchase(doc docstore.Document) (models.PurchaseRecord, error) {
	var p models.PurchaseRecord
	if err := doc.Decode(&p); err != nil {
		return p, err
	}
	p.ID = doc.ID
	return p, nil
}

func DecodeWarehouse(doc docstore.Document) (models.WarehouseRecord, error) {
	var w models.WarehouseRecord
	if err := doc.Decode(&w); err != nil {
		return w, err
	}
	w.ID = doc.ID
	return w, nil
}

func DecodeSale(doc docstore.Document) (models.SaleRecord, error) {
	var s models.SaleRecord
	if err := doc.Decode(&s); err != nil {
		return s, err
	}
	s.ID = doc.ID
	return s, nil
}

// decodeAll decodes docs with fn, skipping nothing: one bad document fails the listing.
func decodeAll[T any](docs []docstore.Document, fn func(docstore.Document) (T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fn(d)
		if err != nil {
			return nil, apperr.Wrap("decode", apperr.ErrInvalidState, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodePurchases(docs []docstore.Document) ([]models.PurchaseRecord, error) {
	return decodeAll(docs, DecodePurchase)
}

func DecodeWarehouseRecords(docs []docstore.Document) ([]models.WarehouseRecord, error) {
	return decodeAll(docs, DecodeWarehouse)
}

func DecodeSales(docs []docstore.Document) ([]models.SaleRecord, error) {
	return decodeAll(docs, DecodeSale)
}
