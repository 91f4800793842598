package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"go-sklad/internal/models"
)

type CartResponse struct {
	Items models.Groups[models.CartLine] `json:"items"`
	Total decimal.Decimal                `json:"total"`
	Count int                            `json:"count"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type UpdateCartItemRequest struct {
	Quantity     int              `json:"quantity"`
	SellingPrice *decimal.Decimal `json:"sellingPrice"`
}

func (h *Handler) GetCart(c *gin.Context) {
	store := h.cart(c)
	c.JSON(http.StatusOK, CartResponse{
		Items: store.GetGroupedItems(),
		Total: store.Total(),
		Count: store.Len(),
	})
}

// --- POST: reserve stock into the cart, checked against current quantity ---
func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "productId and quantity are required")
		return
	}
	line, err := h.engine.ReserveToCart(c.Request.Context(), h.cart(c), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(c, "addToCart", err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// --- PUT: change quantity and selling price of a line ---
// The range check against stock lives here; the cart itself accepts any value.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid input")
		return
	}
	store := h.cart(c)
	line, ok := store.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Item is not in the cart"})
		return
	}
	if req.Quantity < 1 || req.Quantity > line.Quantity {
		h.badRequest(c, "quantity must be between 1 and the available stock")
		return
	}
	price := line.SellingPrice
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			h.badRequest(c, "sellingPrice must not be negative")
			return
		}
		price = *req.SellingPrice
	}
	store.UpdateItem(line.ID, req.Quantity, price)
	updated, _ := store.Get(line.ID)
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	h.cart(c).RemoveFromCart(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.cart(c).ClearCart()
	c.Status(http.StatusNoContent)
}

// --- POST: sell the whole cart ---
func (h *Handler) Checkout(c *gin.Context) {
	sale, err := h.engine.RecordSale(c.Request.Context(), h.cart(c))
	if err != nil {
		h.fail(c, "recordSale", err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// --- POST: close one supplier's cart lines into a completed sale check ---
func (h *Handler) CloseSaleCheck(c *gin.Context) {
	supplier := c.Param("supplier")
	store := h.cart(c)
	lines := store.GetGroupedItems().BySupplier[supplier]
	check, err := h.checks.CloseSaleCheck(c.Request.Context(), supplier, lines, store)
	if err != nil {
		h.fail(c, "closeSaleCheck", err)
		return
	}
	c.JSON(http.StatusCreated, check)
}
