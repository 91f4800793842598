package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sklad/internal/inventory"
	"go-sklad/internal/models"
)

// --- POST: order entry ---
func (h *Handler) CreatePurchase(c *gin.Context) {
	var in inventory.PurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "Invalid input")
		return
	}
	p, err := h.engine.CreatePurchase(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "createPurchase", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// --- GET: purchases grouped by supplier; ?archived=true includes stocked ones ---
func (h *Handler) ListPurchases(c *gin.Context) {
	purchases, err := h.engine.ListPurchases(c.Request.Context(), c.Query("archived") == "true")
	if err != nil {
		h.fail(c, "listPurchases", err)
		return
	}
	c.JSON(http.StatusOK, models.GroupBySupplier(purchases, h.engine.UnknownSupplier()))
}

// --- GET: newest purchase of ?supplier=, for prefilling the next entry ---
func (h *Handler) LastPurchase(c *gin.Context) {
	supplier := c.Query("supplier")
	if supplier == "" {
		h.badRequest(c, "supplier is required")
		return
	}
	p, err := h.engine.LastPurchaseForSupplier(c.Request.Context(), supplier)
	if err != nil {
		h.fail(c, "lastPurchaseForSupplier", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ReceivePurchase(c *gin.Context) {
	w, err := h.engine.ReceiveIntoWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "receiveIntoWarehouse", err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *Handler) ReceiveSupplier(c *gin.Context) {
	received, err := h.engine.ReceiveSupplier(c.Request.Context(), c.Param("supplier"))
	if err != nil {
		// Lines received before the failure stay received.
		status := StatusFor(err)
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "received": received})
		return
	}
	c.JSON(http.StatusCreated, received)
}

// --- POST: close the supplier's open purchase order into a pending check ---
func (h *Handler) ClosePurchaseCheck(c *gin.Context) {
	supplier := c.Param("supplier")
	lines, err := h.engine.SupplierPurchases(c.Request.Context(), supplier)
	if err != nil {
		h.fail(c, "closePurchaseCheck", err)
		return
	}
	check, err := h.checks.ClosePurchaseCheck(c.Request.Context(), supplier, lines)
	if err != nil {
		h.fail(c, "closePurchaseCheck", err)
		return
	}
	c.JSON(http.StatusCreated, check)
}
