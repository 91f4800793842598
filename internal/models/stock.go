package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names are part of the wire contract shared with other tooling.
const (
	CollectionPurchases = "purchases"
	CollectionWarehouse = "warehouse"
	CollectionChecks    = "checks"
	CollectionSales     = "sales"
	CollectionUsers     = "users"
)

// StockUnit - a product line at one price and supplier
type StockUnit struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Color          string          `json:"color"`
	Size           string          `json:"size"`
	Quantity       int             `json:"quantity"`
	PriceYuan      decimal.Decimal `json:"priceYuan"`  // source currency
	PriceTenge     decimal.Decimal `json:"priceTenge"` // local currency
	TotalPriceYuan decimal.Decimal `json:"totalPriceYuan"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"`
	Supplier       string          `json:"supplier"`
	CreatedAt      time.Time       `json:"createdAt"`
	CreatedBy      string          `json:"createdBy"`
	UserID         string          `json:"userId"`
	Stage          Stage           `json:"stage"`
}

// Recompute derives the local price and source-currency total from their inputs.
func (u *StockUnit) Recompute() {
	u.PriceTenge = u.PriceYuan.Mul(u.ExchangeRate)
	u.TotalPriceYuan = u.PriceYuan.Mul(decimal.NewFromInt(int64(u.Quantity)))
}

// Label names the unit in user-facing messages.
func (u StockUnit) Label() string {
	if u.Code == "" {
		return u.Name
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.Code)
}

func (u StockUnit) SupplierName() string { return u.Supplier }

// PurchaseRecord - a unit in the ordered stage
type PurchaseRecord struct {
	StockUnit
	Status       string `json:"status"`
	IsArchived   bool   `json:"isArchived"`
	DocumentType string `json:"documentType"`
}

const (
	PurchaseStatus       = "purchase"
	PurchaseDocumentType = "purchase"
)

// CurrentStage reads the stage from the archive flag, which stays
// authoritative for documents written before the stage tag existed.
func (p PurchaseRecord) CurrentStage() Stage {
	if p.IsArchived {
		return StageStocked
	}
	return StageOrdered
}

// WarehouseRecord - a unit in stock
type WarehouseRecord struct {
	StockUnit
	PurchaseRef   string     `json:"purchaseRef,omitempty"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
	LastUpdatedBy string     `json:"lastUpdatedBy,omitempty"`
}

// CartLine - a warehouse snapshot reserved for the next sale
type CartLine struct {
	WarehouseRecord
	SelectedQuantity int             `json:"selectedQuantity"`
	SellingPrice     decimal.Decimal `json:"sellingPrice"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.SellingPrice.Mul(decimal.NewFromInt(int64(l.SelectedQuantity)))
}
