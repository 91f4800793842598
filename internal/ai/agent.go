// Package ai answers stock and sales questions through Gemini tool calls.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"go-sklad/internal/inventory"
	"go-sklad/internal/models"
)

const (
	modelName    = "gemini-2.0-flash-001"
	maxToolTurns = 4
	dateLayout   = "2006-01-02"
)

// Inventory is the read side of the engine the assistant may query.
type Inventory interface {
	ListWarehouse(ctx context.Context, search string) ([]models.WarehouseRecord, error)
	SalesReport(ctx context.Context, start, end time.Time) (inventory.SalesSummary, error)
	StockValuation(ctx context.Context) (inventory.Valuation, error)
}

type Agent struct {
	apiKey string
	inv    Inventory
	log    *logrus.Logger
	now    func() time.Time
}

var ErrNoAPIKey = errors.New("ai: GEMINI_API_KEY is not set")

func NewAgent(apiKey string, inv Inventory, log *logrus.Logger) *Agent {
	return &Agent{apiKey: apiKey, inv: inv, log: log, now: time.Now}
}

func (a *Agent) Enabled() bool { return a.apiKey != "" }

var tools = []*genai.Tool{{
	FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        "check_warehouse",
			Description: "List warehouse stock. Use this for ANY question about quantity, price, supplier or code of a product.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"search": {Type: genai.TypeString, Description: "Optional part of a product name or code"},
				},
			},
		},
		{
			Name:        "get_sales_report",
			Description: "Get total sales revenue (tenge) and number of sales for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "get_stock_valuation",
			Description: "Get the value of all warehouse stock in tenge, grouped by supplier.",
		},
	},
}}

// Ask runs one question through the model, answering its tool calls against
// the caller's inventory until it replies with text.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	if !a.Enabled() {
		return "", ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.Tools = tools

	prompt := fmt.Sprintf(`SYSTEM: Today is %s. You are a warehouse assistant for a clothing shop.

	RULES:
	1. STOCK: For quantity, price, code or supplier of a product call 'check_warehouse' and read the JSON.
	   Do NOT say you cannot see the stock.
	2. SALES: For revenue or number of sales use 'get_sales_report'.
	3. VALUE: For how much the stock is worth use 'get_stock_valuation'.
	Prices: priceYuan is the purchase price in yuan, priceTenge is the price in tenge.

	USER: %s`, a.now().Format(dateLayout), question)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	for turn := 0; turn < maxToolTurns; turn++ {
		call, ok := functionCall(resp)
		if !ok {
			return printResponse(resp), nil
		}
		a.log.WithFields(logrus.Fields{"module": "ai", "tool": call.Name}).Debug("tool call")
		resp, err = session.SendMessage(ctx, genai.FunctionResponse{
			Name:     call.Name,
			Response: a.runTool(ctx, call),
		})
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

// runTool executes one function call. Failures are reported to the model
// rather than aborting the conversation.
func (a *Agent) runTool(ctx context.Context, call genai.FunctionCall) map[string]any {
	switch call.Name {
	case "check_warehouse":
		search, _ := call.Args["search"].(string)
		records, err := a.inv.ListWarehouse(ctx, search)
		if err != nil {
			return toolError(err)
		}
		type stockLine struct {
			ID         string `json:"id"`
			Name       string `json:"name"`
			Code       string `json:"code"`
			Color      string `json:"color"`
			Size       string `json:"size"`
			Quantity   int    `json:"quantity"`
			PriceYuan  string `json:"priceYuan"`
			PriceTenge string `json:"priceTenge"`
			Supplier   string `json:"supplier"`
		}
		lines := make([]stockLine, 0, len(records))
		for _, w := range records {
			lines = append(lines, stockLine{
				ID:         w.ID,
				Name:       w.Name,
				Code:       w.Code,
				Color:      w.Color,
				Size:       w.Size,
				Quantity:   w.Quantity,
				PriceYuan:  w.PriceYuan.String(),
				PriceTenge: w.PriceTenge.String(),
				Supplier:   w.Supplier,
			})
		}
		return map[string]any{"warehouse": lines}

	case "get_sales_report":
		start, err1 := time.Parse(dateLayout, fmt.Sprint(call.Args["start_date"]))
		end, err2 := time.Parse(dateLayout, fmt.Sprint(call.Args["end_date"]))
		if err1 != nil || err2 != nil {
			return map[string]any{"error": "dates must be in YYYY-MM-DD format"}
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		report, err := a.inv.SalesReport(ctx, start, end)
		if err != nil {
			return toolError(err)
		}
		return map[string]any{
			"revenue":     report.TotalRevenue.String(),
			"sales_count": report.TotalCount,
		}

	case "get_stock_valuation":
		v, err := a.inv.StockValuation(ctx)
		if err != nil {
			return toolError(err)
		}
		subtotals := make(map[string]string, len(v.Suppliers))
		for _, s := range v.Suppliers {
			subtotals[s.Supplier] = s.Subtotal.String()
		}
		return map[string]any{"grand_total": v.GrandTotal.String(), "by_supplier": subtotals}
	}
	return map[string]any{"error": "unknown tool " + call.Name}
}

func toolError(err error) map[string]any {
	return map[string]any{"error": err.Error()}
}

func functionCall(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			return call, true
		}
	}
	return genai.FunctionCall{}, false
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				return string(txt)
			}
		}
	}
	return "I completed the action."
}
