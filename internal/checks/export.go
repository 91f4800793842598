package checks

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"go-sklad/internal/apperr"
	"go-sklad/internal/models"
)

const sheetName = "Check"

var exportHeadings = []string{"Name", "Code", "Color", "Size", "Quantity", "Price", "Line total"}

// ExportCheck writes the check as an .xlsx workbook: one row per line and a
// totals row.
func (a *Aggregator) ExportCheck(ctx context.Context, checkID string, w io.Writer) error {
	const op = "exportCheck"
	c, err := a.GetCheck(ctx, checkID)
	if err != nil {
		return err
	}
	f, err := workbook(c)
	if err != nil {
		return apperr.Wrap(op, apperr.ErrInvalidState, "check "+checkID, err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return apperr.Wrap(op, apperr.ErrUnavailable, "check "+checkID, err)
	}
	return nil
}

func workbook(c models.CheckRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s check: %s, %s (%s)", c.Kind, c.Supplier, c.CreatedAt.Format("2006-01-02 15:04"), c.Status)
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, err
	}

	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	row := 4
	for _, l := range c.Lines() {
		price := l.PriceYuan
		if c.Kind == models.CheckKindSale {
			price = l.SellingPrice
		}
		values := []any{l.Name, l.Code, l.Color, l.Size, l.Quantity, price.InexactFloat64(), l.LineTotal.InexactFloat64()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
		row++
	}

	totals := []struct {
		col   int
		value any
	}{
		{1, "Total (" + c.Currency + ")"},
		{5, c.TotalQuantity},
		{7, c.TotalAmount.InexactFloat64()},
	}
	for _, t := range totals {
		cell, _ := excelize.CoordinatesToCellName(t.col, row)
		if err := f.SetCellValue(sheetName, cell, t.value); err != nil {
			return nil, err
		}
	}
	return f, nil
}
