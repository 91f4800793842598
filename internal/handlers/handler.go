// Package handlers exposes the inventory engine, the cart and the check
// aggregator over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-sklad/internal/ai"
	"go-sklad/internal/apperr"
	"go-sklad/internal/auth"
	"go-sklad/internal/cart"
	"go-sklad/internal/checks"
	"go-sklad/internal/config"
	"go-sklad/internal/inventory"
	"go-sklad/internal/middleware"
)

type Handler struct {
	engine            *inventory.Engine
	checks            *checks.Aggregator
	carts             *cart.Registry
	users             *auth.Users
	issuer            *auth.Issuer
	agent             *ai.Agent
	log               *logrus.Logger
	allowRegistration bool
}

type Deps struct {
	Engine            *inventory.Engine
	Checks            *checks.Aggregator
	Carts             *cart.Registry
	Users             *auth.Users
	Issuer            *auth.Issuer
	Agent             *ai.Agent
	Log               *logrus.Logger
	AllowRegistration bool
}

func New(d Deps) *Handler {
	return &Handler{
		engine:            d.Engine,
		checks:            d.Checks,
		carts:             d.Carts,
		users:             d.Users,
		issuer:            d.Issuer,
		agent:             d.Agent,
		log:               d.Log,
		allowRegistration: d.AllowRegistration,
	}
}

// Routes mounts every endpoint on r.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// Only opens if we explicitly allow it in .env
	if h.allowRegistration {
		r.POST("/register", h.Register)
		h.log.Warn("Registration route is OPEN. Disable this in production!")
	} else {
		h.log.Info("Registration route is DISABLED")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.issuer))
	{
		api.POST("/purchases", h.CreatePurchase)
		api.GET("/purchases", h.ListPurchases)
		api.GET("/purchases/last", h.LastPurchase)
		api.POST("/purchases/:id/receive", h.ReceivePurchase)
		api.POST("/suppliers/:supplier/receive", h.ReceiveSupplier)
		api.POST("/suppliers/:supplier/purchase-check", h.ClosePurchaseCheck)

		api.GET("/warehouse", h.ListWarehouse)
		api.GET("/warehouse/:id", h.GetWarehouseRecord)
		api.PATCH("/warehouse/:id", h.UpdateWarehouseRecord)

		api.GET("/cart", h.GetCart)
		api.POST("/cart/items", h.AddToCart)
		api.PUT("/cart/items/:id", h.UpdateCartItem)
		api.DELETE("/cart/items/:id", h.RemoveFromCart)
		api.DELETE("/cart", h.ClearCart)
		api.POST("/cart/checkout", h.Checkout)
		api.POST("/cart/suppliers/:supplier/sale-check", h.CloseSaleCheck)

		api.GET("/sales", h.ListSales)

		api.GET("/checks", h.ListChecks)
		api.GET("/checks/:id", h.GetCheck)
		api.POST("/checks/:id/complete", h.CompleteCheck)
		api.GET("/checks/:id/export", h.ExportCheck)

		api.GET("/reports/sales", h.GetSalesReport)
		api.GET("/reports/valuation", h.GetStockValuation)

		api.GET("/stream/warehouse", h.StreamWarehouse)
		api.GET("/stream/purchases", h.StreamPurchases)
		api.GET("/stream/sales", h.StreamSales)

		admin := api.Group("/")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)
			admin.POST("/reconcile", h.Reconcile)
		}
	}
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		config.LogError(h.log, "handlers", op, c.FullPath(), nil, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// cart returns the caller's cart; the auth middleware guarantees an identity.
func (h *Handler) cart(c *gin.Context) *cart.Store {
	id, _ := auth.IdentityFrom(c.Request.Context())
	return h.carts.For(id.UserID)
}
