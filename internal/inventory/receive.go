package inventory

import (
	"context"

	"github.com/sirupsen/logrus"

	"go-sklad/internal/apperr"
	"go-sklad/internal/auth"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// ReceiveIntoWarehouse stocks an ordered purchase. The warehouse record is
// written before the purchase is archived: a failure in between leaves a
// stocked unit next to an unarchived purchase (repaired by Reconcile), never
// a lost unit. Two concurrent calls for the same purchase both create a
// warehouse record.
func (e *Engine) ReceiveIntoWarehouse(ctx context.Context, purchaseID string) (models.WarehouseRecord, error) {
	const op = "receiveIntoWarehouse"
	id, err := e.identity(ctx, op)
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	p, err := e.purchase(ctx, op, id, purchaseID)
	if err != nil {
		return models.WarehouseRecord{}, err
	}
	return e.receive(ctx, op, id, p)
}

// ReceiveSupplier stocks every active purchase of one supplier group in
// listing order, stopping at the first failure.
func (e *Engine) ReceiveSupplier(ctx context.Context, supplier string) ([]models.WarehouseRecord, error) {
	const op = "receiveSupplier"
	id, err := e.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	purchases, err := e.SupplierPurchases(ctx, supplier)
	if err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return nil, apperr.New(op, apperr.ErrInvalidState, supplier)
	}

	received := make([]models.WarehouseRecord, 0, len(purchases))
	for _, p := range purchases {
		w, err := e.receive(ctx, op, id, p)
		if err != nil {
			return received, err
		}
		received = append(received, w)
	}
	return received, nil
}

func (e *Engine) receive(ctx context.Context, op string, id auth.Identity, p models.PurchaseRecord) (models.WarehouseRecord, error) {
	if err := models.Transition(p.CurrentStage(), models.StageStocked); err != nil {
		return models.WarehouseRecord{}, apperr.Wrap(op, apperr.ErrInvalidState, p.Label(), err)
	}

	w := models.WarehouseRecord{StockUnit: p.StockUnit, PurchaseRef: p.ID}
	w.ID = ""
	w.Stage = models.StageStocked

	fields, err := docstore.FieldsOf(w)
	if err != nil {
		return models.WarehouseRecord{}, apperr.Wrap(op, apperr.ErrValidation, p.Label(), err)
	}
	fields["createdAt"] = docstore.ServerTimestamp

	log := e.logger(op).WithFields(logrus.Fields{"purchase_id": p.ID, "supplier": p.Supplier})

	w.ID, err = e.store.Create(ctx, models.CollectionWarehouse, fields)
	if err != nil {
		log.WithError(err).Error("warehouse record not created")
		return models.WarehouseRecord{}, err
	}
	w.CreatedAt = e.now().UTC()

	err = e.store.Update(ctx, models.CollectionPurchases, p.ID, docstore.Fields{
		"isArchived": true,
		"stage":      models.StageStocked,
	})
	if err != nil {
		log.WithError(err).WithField("item_id", w.ID).
			Error("warehouse record created but purchase not archived; reconcile to repair")
		return w, err
	}

	log.WithField("item_id", w.ID).Info("purchase received into warehouse")
	return w, nil
}
