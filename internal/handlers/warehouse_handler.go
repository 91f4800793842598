package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sklad/internal/inventory"
)

// --- GET: stock, ?search= matches name or code ---
func (h *Handler) ListWarehouse(c *gin.Context) {
	records, err := h.engine.ListWarehouse(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.fail(c, "listWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetWarehouseRecord(c *gin.Context) {
	w, err := h.engine.GetWarehouseRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "getWarehouseRecord", err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// --- PATCH: edit a stock line; only the fields sent change ---
func (h *Handler) UpdateWarehouseRecord(c *gin.Context) {
	var upd inventory.WarehouseUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		h.badRequest(c, "Invalid input")
		return
	}
	w, err := h.engine.UpdateWarehouseRecord(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		h.fail(c, "updateWarehouseRecord", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully", "item": w})
}
