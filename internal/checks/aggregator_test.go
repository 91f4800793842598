package checks

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"go-sklad/internal/apperr"
	"go-sklad/internal/auth"
	"go-sklad/internal/cart"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

func newAggregator(t *testing.T) (*Aggregator, *docstore.MemoryStore, context.Context) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := docstore.NewMemoryStore()
	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "u1", Email: "buyer@shop.kz"})
	return NewAggregator(store, log, ""), store, ctx
}

func purchaseLine(id, supplier string, qty int, yuan int64) models.PurchaseRecord {
	p := models.PurchaseRecord{StockUnit: models.StockUnit{
		ID:           id,
		Name:         "Item " + id,
		Code:         id,
		Quantity:     qty,
		PriceYuan:    decimal.NewFromInt(yuan),
		ExchangeRate: decimal.NewFromInt(70),
		Supplier:     supplier,
		UserID:       "u1",
		Stage:        models.StageOrdered,
	}}
	p.Recompute()
	return p
}

func cartLine(id, supplier string, price int64) models.WarehouseRecord {
	w := models.WarehouseRecord{StockUnit: models.StockUnit{
		ID:           id,
		Name:         "Item " + id,
		Code:         id,
		Quantity:     100,
		PriceYuan:    decimal.NewFromInt(1),
		ExchangeRate: decimal.NewFromInt(price),
		Supplier:     supplier,
		UserID:       "u1",
	}}
	w.Recompute()
	return w
}

func TestClosePurchaseCheckTotalsInSourceCurrency(t *testing.T) {
	a, store, ctx := newAggregator(t)

	check, err := a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{
		purchaseLine("p1", "A", 5, 10),
		purchaseLine("p2", "A", 7, 20),
	})
	require.NoError(t, err)

	assert.Equal(t, 12, check.TotalQuantity)
	assert.True(t, check.TotalAmount.Equal(decimal.NewFromInt(190)))
	assert.True(t, check.TotalPriceYuan.Equal(decimal.NewFromInt(190)))
	assert.Equal(t, models.CheckStatusPending, check.Status)
	assert.Equal(t, models.CurrencySource, check.Currency)
	require.Len(t, check.Products, 2)
	assert.Empty(t, check.Items)
	assert.True(t, check.Products[1].LineTotal.Equal(decimal.NewFromInt(140)))
	assert.False(t, check.CreatedAt.IsZero())

	doc, err := store.Get(ctx, models.CollectionChecks, check.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", doc.Fields["status"])
	assert.Equal(t, "buyer@shop.kz", doc.Fields["createdBy"])
	assert.Len(t, doc.Fields["products"], 2)
	assert.NotContains(t, doc.Fields, "items")

	purchases, err := store.Query(ctx, models.CollectionPurchases, docstore.Query{})
	require.NoError(t, err)
	assert.Empty(t, purchases, "closing a check does not touch purchases")
}

func TestClosePurchaseCheckPreconditions(t *testing.T) {
	a, _, ctx := newAggregator(t)

	_, err := a.ClosePurchaseCheck(ctx, "A", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{
		purchaseLine("p1", "A", 1, 1),
		purchaseLine("p2", "B", 1, 1),
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = a.ClosePurchaseCheck(context.Background(), "A", []models.PurchaseRecord{purchaseLine("p1", "A", 1, 1)})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestClosePurchaseCheckUnknownSupplier(t *testing.T) {
	a, _, ctx := newAggregator(t)

	groups := GroupBySupplier(a, []models.PurchaseRecord{
		purchaseLine("p1", "", 1, 3),
		purchaseLine("p2", "A", 1, 1),
		purchaseLine("p3", "", 2, 3),
	})
	assert.Equal(t, []string{models.UnknownSupplier, "A"}, groups.Order)

	check, err := a.ClosePurchaseCheck(ctx, models.UnknownSupplier, groups.BySupplier[models.UnknownSupplier])
	require.NoError(t, err)
	assert.Equal(t, 3, check.TotalQuantity)
	assert.True(t, check.TotalAmount.Equal(decimal.NewFromInt(9)))
}

func TestCloseSaleCheckDropsSupplierFromCart(t *testing.T) {
	a, _, ctx := newAggregator(t)
	c := cart.NewStore()
	c.AddToCart(cartLine("w1", "A", 100), 2)
	c.AddToCart(cartLine("w2", "B", 50), 1)
	c.AddToCart(cartLine("w3", "A", 30), 3)
	c.UpdateItem("w3", 3, decimal.NewFromInt(40))

	lines := c.GetGroupedItems().BySupplier["A"]
	check, err := a.CloseSaleCheck(ctx, "A", lines, c)
	require.NoError(t, err)

	assert.Equal(t, models.CheckStatusCompleted, check.Status)
	assert.Equal(t, models.CurrencyLocal, check.Currency)
	assert.Equal(t, 5, check.TotalQuantity)
	assert.True(t, check.TotalAmount.Equal(decimal.NewFromInt(320)))
	require.Len(t, check.Items, 2)
	assert.Empty(t, check.Products)

	remaining := c.Items()
	require.Len(t, remaining, 1)
	assert.Equal(t, "w2", remaining[0].ID)
}

func TestCloseSaleCheckFailureKeepsCart(t *testing.T) {
	a, _, ctx := newAggregator(t)
	c := cart.NewStore()
	c.AddToCart(cartLine("w1", "A", 100), 1)

	_, err := a.CloseSaleCheck(ctx, "B", c.Items(), c)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, 1, c.Len())
}

func TestCompleteCheck(t *testing.T) {
	a, _, ctx := newAggregator(t)
	check, err := a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{purchaseLine("p1", "A", 1, 1)})
	require.NoError(t, err)

	done, err := a.CompleteCheck(ctx, check.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckStatusCompleted, done.Status)

	_, err = a.CompleteCheck(ctx, check.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	other := auth.WithIdentity(context.Background(), auth.Identity{UserID: "u2"})
	_, err = a.GetCheck(other, check.ID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = a.GetCheck(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListChecksNewestFirst(t *testing.T) {
	a, _, ctx := newAggregator(t)
	first, err := a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{purchaseLine("p1", "A", 1, 1)})
	require.NoError(t, err)
	second, err := a.ClosePurchaseCheck(ctx, "B", []models.PurchaseRecord{purchaseLine("p2", "B", 1, 1)})
	require.NoError(t, err)

	list, err := a.ListChecks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	other := auth.WithIdentity(context.Background(), auth.Identity{UserID: "u2"})
	list, err = a.ListChecks(other)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExportCheck(t *testing.T) {
	a, _, ctx := newAggregator(t)
	check, err := a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{
		purchaseLine("p1", "A", 5, 10),
		purchaseLine("p2", "A", 7, 20),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.ExportCheck(ctx, check.ID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	heading, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Name", heading)

	name, err := f.GetCellValue(sheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Item p1", name)

	qty, err := f.GetCellValue(sheetName, "E6")
	require.NoError(t, err)
	assert.Equal(t, "12", qty)

	total, err := f.GetCellValue(sheetName, "G6")
	require.NoError(t, err)
	assert.Equal(t, "190", total)

	label, err := f.GetCellValue(sheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Total (CNY)", label)

	err = a.ExportCheck(ctx, "missing", &buf)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCloseSaleCheckEmptySupplierClosesUnknownGroup(t *testing.T) {
	a, store, ctx := newAggregator(t)
	c := cart.NewStore()
	c.AddToCart(cartLine("w1", "", 100), 1)
	c.AddToCart(cartLine("w2", "B", 50), 1)

	check, err := a.CloseSaleCheck(ctx, "", c.GetGroupedItems().BySupplier[models.UnknownSupplier], c)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownSupplier, check.Supplier)

	doc, err := store.Get(ctx, models.CollectionChecks, check.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownSupplier, doc.Fields["supplier"])

	remaining := c.Items()
	require.Len(t, remaining, 1, "the unknown-supplier line leaves the cart")
	assert.Equal(t, "w2", remaining[0].ID)
}

func TestClosePurchaseCheckEmptySupplierUsesGroupKey(t *testing.T) {
	a, _, ctx := newAggregator(t)

	check, err := a.ClosePurchaseCheck(ctx, "", []models.PurchaseRecord{purchaseLine("p1", "", 2, 5)})
	require.NoError(t, err)
	assert.Equal(t, models.UnknownSupplier, check.Supplier)
}

func TestClosePurchaseCheckRejectsAlreadyCheckedPurchases(t *testing.T) {
	a, _, ctx := newAggregator(t)
	lines := []models.PurchaseRecord{purchaseLine("p1", "A", 5, 10), purchaseLine("p2", "A", 7, 20)}

	first, err := a.ClosePurchaseCheck(ctx, "A", lines)
	require.NoError(t, err)

	_, err = a.ClosePurchaseCheck(ctx, "A", lines[1:])
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Contains(t, err.Error(), first.ID)

	list, err := a.ListChecks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// A purchase added after the first check can still be checked.
	_, err = a.ClosePurchaseCheck(ctx, "A", []models.PurchaseRecord{purchaseLine("p3", "A", 1, 1)})
	require.NoError(t, err)

	_, err = a.CompleteCheck(ctx, first.ID)
	require.NoError(t, err)
	_, err = a.ClosePurchaseCheck(ctx, "A", lines)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "a completed check still covers its purchases")
}
