package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DeletedProductName подставляется, когда у позиции не удалось определить название товара.
const DeletedProductName = "منتج محذوف"

// NoSize подставляется вместо отсутствующего размера.
const NoSize = "-"

// ResolvedProduct — сведения о товаре позиции после разбора product_details.
type ResolvedProduct struct {
	Name  string
	Price string
	Size  string
	Color string
}

// SizeEntry — количество единиц одного размера внутри группы.
type SizeEntry struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// FormattedItem — группа позиций заказа с одинаковыми названием и цветом.
type FormattedItem struct {
	Name  string
	Color string
	// Sizes хранит размеры в порядке первого появления.
	Sizes         []SizeEntry
	TotalQuantity int
	// PricePerItem фиксируется по первой позиции группы.
	PricePerItem decimal.Decimal
	TotalPrice   decimal.Decimal
}

type formattedItemJSON struct {
	Name          string      `json:"name"`
	Color         string      `json:"color,omitempty"`
	Sizes         []SizeEntry `json:"sizes"`
	TotalQuantity int         `json:"totalQuantity"`
	PricePerItem  json.Number `json:"pricePerItem"`
	TotalPrice    json.Number `json:"totalPrice"`
}

// MarshalJSON кодирует цены числами, а не строками (поведение decimal по умолчанию).
func (f FormattedItem) MarshalJSON() ([]byte, error) {
	sizes := f.Sizes
	if sizes == nil {
		sizes = []SizeEntry{}
	}
	return json.Marshal(formattedItemJSON{
		Name:          f.Name,
		Color:         f.Color,
		Sizes:         sizes,
		TotalQuantity: f.TotalQuantity,
		PricePerItem:  json.Number(f.PricePerItem.String()),
		TotalPrice:    json.Number(f.TotalPrice.String()),
	})
}

// UnmarshalJSON нужен клиентам, читающим ответы HTTP API.
func (f *FormattedItem) UnmarshalJSON(data []byte) error {
	var raw formattedItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	perItem, err := decimal.NewFromString(string(raw.PricePerItem))
	if err != nil {
		return err
	}
	total, err := decimal.NewFromString(string(raw.TotalPrice))
	if err != nil {
		return err
	}
	*f = FormattedItem{
		Name:          raw.Name,
		Color:         raw.Color,
		Sizes:         raw.Sizes,
		TotalQuantity: raw.TotalQuantity,
		PricePerItem:  perItem,
		TotalPrice:    total,
	}
	return nil
}

// OrderSummary агрегирует сгруппированные позиции одного заказа.
type OrderSummary struct {
	OrderID       string
	Items         []FormattedItem
	LineCount     int
	TotalQuantity int
	TotalPrice    decimal.Decimal
	GeneratedAt   time.Time
}
