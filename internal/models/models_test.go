package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(id, supplier string) CartLine {
	var l CartLine
	l.ID = id
	l.Supplier = supplier
	return l
}

func TestGroupBySupplierIsStableAndLossless(t *testing.T) {
	lines := []CartLine{line("1", "A"), line("2", ""), line("3", "B"), line("4", "A"), line("5", "")}

	g := GroupBySupplier(lines, UnknownSupplier)

	assert.Equal(t, []string{"A", UnknownSupplier, "B"}, g.Order)
	assert.Equal(t, []string{"1", "4"}, ids(g.BySupplier["A"]))
	assert.Equal(t, []string{"2", "5"}, ids(g.BySupplier[UnknownSupplier]))

	total := 0
	for _, key := range g.Order {
		total += len(g.BySupplier[key])
	}
	assert.Equal(t, len(lines), total)
}

func TestGroupBySupplierCustomSentinel(t *testing.T) {
	g := GroupBySupplier([]PurchaseRecord{{}}, "Unknown")
	assert.Equal(t, []string{"Unknown"}, g.Order)
}

func ids(lines []CartLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.ID)
	}
	return out
}

func TestRecompute(t *testing.T) {
	u := StockUnit{Quantity: 3, PriceYuan: decimal.NewFromInt(20), ExchangeRate: decimal.RequireFromString("68.5")}
	u.Recompute()

	assert.True(t, u.PriceTenge.Equal(decimal.NewFromInt(1370)))
	assert.True(t, u.TotalPriceYuan.Equal(decimal.NewFromInt(60)))
}

func TestStageTransitions(t *testing.T) {
	assert.NoError(t, Transition(StageOrdered, StageStocked))
	assert.NoError(t, Transition(StageStocked, StageReserved))
	assert.NoError(t, Transition(StageReserved, StageSold))
	assert.Error(t, Transition(StageStocked, StageOrdered), "ordered is never revisited")
	assert.Error(t, Transition(StageOrdered, StageSold))
}

func TestLabelAndLineTotal(t *testing.T) {
	l := line("w1", "A")
	l.Name, l.Code = "Jacket", "J-1"
	l.SelectedQuantity = 3
	l.SellingPrice = decimal.NewFromInt(100)

	assert.Equal(t, "Jacket (J-1)", l.Label())
	assert.True(t, l.LineTotal().Equal(decimal.NewFromInt(300)))
	assert.Equal(t, StageStocked, PurchaseRecord{IsArchived: true}.CurrentStage())
}
