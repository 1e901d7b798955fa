package httpapi

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
)

type errorResponse struct {
	Error string `json:"error"`
}

type displayResponse struct {
	Display string `json:"display"`
}

type lineResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type itemResponse struct {
	Name          string             `json:"name"`
	Color         string             `json:"color,omitempty"`
	Sizes         []domain.SizeEntry `json:"sizes"`
	SizesDisplay  string             `json:"sizesDisplay"`
	TotalQuantity int                `json:"totalQuantity"`
	PricePerItem  json.Number        `json:"pricePerItem"`
	TotalPrice    json.Number        `json:"totalPrice"`
}

type summaryResponse struct {
	OrderID       string         `json:"orderId,omitempty"`
	Items         []itemResponse `json:"items"`
	LineCount     int            `json:"lineCount"`
	TotalQuantity int            `json:"totalQuantity"`
	TotalPrice    json.Number    `json:"totalPrice"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}

type cashboxResponse struct {
	ID             string      `json:"id"`
	BusinessDate   string      `json:"businessDate"`
	OpeningBalance json.Number `json:"openingBalance"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func newSummaryResponse(summary domain.OrderSummary) summaryResponse {
	items := make([]itemResponse, 0, len(summary.Items))
	for _, item := range summary.Items {
		sizes := item.Sizes
		if sizes == nil {
			sizes = []domain.SizeEntry{}
		}
		items = append(items, itemResponse{
			Name:          item.Name,
			Color:         item.Color,
			Sizes:         sizes,
			SizesDisplay:  orderitems.FormatSizesDisplay(item.Sizes),
			TotalQuantity: item.TotalQuantity,
			PricePerItem:  json.Number(item.PricePerItem.String()),
			TotalPrice:    json.Number(item.TotalPrice.String()),
		})
	}
	return summaryResponse{
		OrderID:       summary.OrderID,
		Items:         items,
		LineCount:     summary.LineCount,
		TotalQuantity: summary.TotalQuantity,
		TotalPrice:    json.Number(summary.TotalPrice.String()),
		GeneratedAt:   summary.GeneratedAt,
	}
}

func newCashboxResponse(cashbox domain.Cashbox) cashboxResponse {
	return cashboxResponse{
		ID:             cashbox.ID,
		BusinessDate:   cashbox.BusinessDate,
		OpeningBalance: json.Number(cashbox.OpeningBalance.String()),
		Status:         string(cashbox.Status),
		CreatedAt:      cashbox.CreatedAt,
	}
}
