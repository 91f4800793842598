package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-sklad/internal/apperr"
	"go-sklad/internal/cart"
	"go-sklad/internal/models"
)

func TestRecordSaleDecrementsStock(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 10, "100")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 3)
	require.NoError(t, err)

	sale, err := f.eng.RecordSale(f.ctx, c)
	require.NoError(t, err)

	assert.NotEmpty(t, sale.ID)
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(300)))
	require.Len(t, sale.Items, 1)
	assert.Equal(t, w.ID, sale.Items[0].ProductID)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, 0, c.Len())

	stored, err := f.eng.GetWarehouseRecord(f.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Quantity)
	assert.Equal(t, "seller@shop.kz", stored.LastUpdatedBy)

	sales, err := f.eng.ListSales(f.ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "seller@shop.kz", sales[0].SoldBy)
	assert.False(t, sales[0].SaleDate.IsZero())
}

func TestRecordSaleUsesSellingPrice(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 10, "100")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 2)
	require.NoError(t, err)
	c.UpdateItem(w.ID, 2, decimal.NewFromInt(150))

	sale, err := f.eng.RecordSale(f.ctx, c)
	require.NoError(t, err)
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, sale.Items[0].PriceTenge.Equal(decimal.NewFromInt(150)))
}

func TestRecordSaleEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.eng.RecordSale(f.ctx, cart.NewStore())
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestRecordSaleShortfallWritesNothing(t *testing.T) {
	f := newFixture(t)
	first := f.stock(t, "Jacket", "A", 10, "100")
	second := f.stock(t, "Hat", "A", 2, "50")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, first.ID, 4)
	require.NoError(t, err)
	_, err = f.eng.ReserveToCart(f.ctx, c, second.ID, 2)
	require.NoError(t, err)

	// Another session sells the hats first.
	one := 1
	_, err = f.eng.UpdateWarehouseRecord(f.ctx, second.ID, WarehouseUpdate{Quantity: &one})
	require.NoError(t, err)

	_, err = f.eng.RecordSale(f.ctx, c)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Hat (Hat-01)")

	stored, err := f.eng.GetWarehouseRecord(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity, "no line is decremented when any line falls short")

	sales, err := f.eng.ListSales(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
	assert.Equal(t, 2, c.Len())
}

func TestRecordSaleMissingRecord(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 10, "100")
	c := cart.NewStore()
	gone := w
	gone.ID = "deleted"
	c.AddToCart(gone, 1)

	_, err := f.eng.RecordSale(f.ctx, c)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "Jacket (Jacket-01)")
}

func TestRecordSalePartialFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	first := f.stock(t, "Jacket", "A", 10, "100")
	second := f.stock(t, "Hat", "A", 5, "50")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, first.ID, 2)
	require.NoError(t, err)
	_, err = f.eng.ReserveToCart(f.ctx, c, second.ID, 1)
	require.NoError(t, err)

	f.store.failUpdate = func(collection, id string) bool {
		return collection == models.CollectionWarehouse && id == second.ID
	}
	sale, err := f.eng.RecordSale(f.ctx, c)
	require.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.NotEmpty(t, sale.ID)
	f.store.failUpdate = nil

	applied, err := f.eng.GetWarehouseRecord(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, applied.Quantity)

	pending, err := f.eng.GetWarehouseRecord(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, pending.Quantity)

	assert.Equal(t, 2, c.Len(), "the cart survives a partial sale")
}

func TestRecordSaleRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 10, "100")
	c := cart.NewStore()
	c.AddToCart(w, 1)

	_, err := f.eng.RecordSale(context.Background(), c)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, 1, c.Len())
}

func TestReserveToCartBounds(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 3, "100")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.eng.ReserveToCart(f.ctx, c, w.ID, 4)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = f.eng.ReserveToCart(f.ctx, c, "missing", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	line, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StageReserved, line.Stage)
	assert.True(t, line.SellingPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, c.Len())
}

func TestReserveToCartCountsWhatIsAlreadyReserved(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 5, "100")
	c := cart.NewStore()

	_, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 5)
	require.NoError(t, err)

	_, err = f.eng.ReserveToCart(f.ctx, c, w.ID, 1)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock, "no silent clamp")

	ten := 10
	_, err = f.eng.UpdateWarehouseRecord(f.ctx, w.ID, WarehouseUpdate{Quantity: &ten})
	require.NoError(t, err)

	line, err := f.eng.ReserveToCart(f.ctx, c, w.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, line.SelectedQuantity)
	assert.Equal(t, 10, line.Quantity)
}

func TestStockValuation(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Jacket", "A", 2, "100")
	f.stock(t, "Hat", "B", 3, "10")
	f.stock(t, "Scarf", "A", 1, "5")

	v, err := f.eng.StockValuation(f.ctx)
	require.NoError(t, err)

	require.Len(t, v.Suppliers, 2)
	bySupplier := map[string]SupplierValuation{}
	for _, s := range v.Suppliers {
		bySupplier[s.Supplier] = s
	}
	assert.True(t, bySupplier["A"].Subtotal.Equal(decimal.NewFromInt(205)))
	assert.Len(t, bySupplier["A"].Items, 2)
	assert.True(t, bySupplier["B"].Subtotal.Equal(decimal.NewFromInt(30)))
	assert.True(t, v.GrandTotal.Equal(decimal.NewFromInt(235)))
}

func TestSalesReport(t *testing.T) {
	f := newFixture(t)
	w := f.stock(t, "Jacket", "A", 10, "100")

	for _, qty := range []int{1, 2} {
		c := cart.NewStore()
		_, err := f.eng.ReserveToCart(f.ctx, c, w.ID, qty)
		require.NoError(t, err)
		_, err = f.eng.RecordSale(f.ctx, c)
		require.NoError(t, err)
	}

	all, err := f.eng.SalesReport(f.ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)
	assert.True(t, all.TotalRevenue.Equal(decimal.NewFromInt(300)))

	none, err := f.eng.SalesReport(f.ctx, base.Add(-48*time.Hour), base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, none.TotalCount)
	assert.True(t, none.TotalRevenue.IsZero())
}

func TestWatchWarehouseSeesArrivals(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()

	sub, err := f.eng.WatchWarehouse(ctx)
	require.NoError(t, err)
	defer sub.Cancel()

	initial := <-sub.Events()
	require.NoError(t, initial.Err)
	assert.Empty(t, initial.Docs)

	f.stock(t, "Jacket", "A", 1, "1")

	require.Eventually(t, func() bool {
		select {
		case snap := <-sub.Events():
			return len(snap.Docs) == 1
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	_, err = f.eng.WatchWarehouse(context.Background())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
