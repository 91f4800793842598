package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CheckStatusPending   = "pending"
	CheckStatusCompleted = "completed"

	CheckKindPurchase = "purchase"
	CheckKindSale     = "sale"

	CurrencySource = "CNY"
	CurrencyLocal  = "KZT"
)

// CheckLine is one product line frozen into a check.
type CheckLine struct {
	ProductID      string          `json:"productId,omitempty"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Color          string          `json:"color"`
	Size           string          `json:"size,omitempty"`
	Quantity       int             `json:"quantity"`
	PriceYuan      decimal.Decimal `json:"priceYuan"`
	PriceTenge     decimal.Decimal `json:"priceTenge"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	SellingPrice   decimal.Decimal `json:"sellingPrice"`
	TotalPriceYuan decimal.Decimal `json:"totalPriceYuan"`
	LineTotal      decimal.Decimal `json:"lineTotal"`
}

// CheckRecord is a supplier receipt. Purchase checks list their lines under
// "products" and total in source currency; sale checks use "items" and local currency.
type CheckRecord struct {
	ID             string          `json:"id,omitempty"`
	Kind           string          `json:"kind"`
	Supplier       string          `json:"supplier"`
	Products       []CheckLine     `json:"products,omitempty"`
	Items          []CheckLine     `json:"items,omitempty"`
	TotalQuantity  int             `json:"totalQuantity"`
	TotalPriceYuan decimal.Decimal `json:"totalPriceYuan"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
	UserID         string          `json:"userId"`
	Status         string          `json:"status"`
}

func (c CheckRecord) Lines() []CheckLine {
	if c.Kind == CheckKindSale {
		return c.Items
	}
	return c.Products
}

// SaleLine is a sold cart line: cost price in source currency, sale price in local.
type SaleLine struct {
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	PriceYuan  decimal.Decimal `json:"priceYuan"`
	PriceTenge decimal.Decimal `json:"priceTenge"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
}

// SaleRecord - the transaction header and its lines
type SaleRecord struct {
	ID          string          `json:"id,omitempty"`
	Items       []SaleLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	SaleDate    time.Time       `json:"saleDate"`
	SoldBy      string          `json:"soldBy"`
	UserID      string          `json:"userId"`
}

// User - the person signing in to the app
type User struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Role         string    `json:"role"` // 'admin', 'seller'
	CreatedAt    time.Time `json:"createdAt"`
}
