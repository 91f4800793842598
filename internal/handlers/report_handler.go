package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// --- GET: /api/reports/sales?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Defaults to the last 30 days; "to" covers the whole day.
func (h *Handler) GetSalesReport(c *gin.Context) {
	now := time.Now().UTC()
	end := now
	start := now.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		start = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			h.badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		end = t.Add(24*time.Hour - time.Nanosecond)
	}

	report, err := h.engine.SalesReport(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, "salesReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/valuation ---
// Value of the physical stock grouped by supplier.
func (h *Handler) GetStockValuation(c *gin.Context) {
	v, err := h.engine.StockValuation(c.Request.Context())
	if err != nil {
		h.fail(c, "stockValuation", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.engine.ListSales(c.Request.Context())
	if err != nil {
		h.fail(c, "listSales", err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

// --- POST: repair purchases left unarchived by interrupted arrivals ---
func (h *Handler) Reconcile(c *gin.Context) {
	report, err := h.engine.Reconcile(c.Request.Context())
	if err != nil {
		h.fail(c, "reconcile", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
