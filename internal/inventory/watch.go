package inventory

import (
	"context"

	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

// WatchWarehouse subscribes to the user's stock, newest first. The caller
// must Cancel the subscription when its view goes away.
func (e *Engine) WatchWarehouse(ctx context.Context) (*docstore.Subscription, error) {
	return e.watch(ctx, "watchWarehouse", models.CollectionWarehouse, "createdAt")
}

func (e *Engine) WatchPurchases(ctx context.Context) (*docstore.Subscription, error) {
	return e.watch(ctx, "watchPurchases", models.CollectionPurchases, "createdAt")
}

func (e *Engine) WatchSales(ctx context.Context) (*docstore.Subscription, error) {
	return e.watch(ctx, "watchSales", models.CollectionSales, "saleDate")
}

func (e *Engine) watch(ctx context.Context, op, collection, orderField string) (*docstore.Subscription, error) {
	id, err := e.identity(ctx, op)
	if err != nil {
		return nil, err
	}
	return e.store.Subscribe(ctx, collection, userQuery(id, orderField))
}
