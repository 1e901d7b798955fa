package grpcsvc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/orderitems"
)

// linesFromStruct декодирует поле lines. Каждый элемент проходит через protojson
// и общий парсер позиций, чтобы типы полей трактовались так же, как в HTTP API.
func linesFromStruct(req *structpb.Struct) ([]domain.RawOrderLine, error) {
	value, ok := req.GetFields()["lines"]
	if !ok {
		return nil, errors.New("lines is required")
	}
	list := value.GetListValue()
	if list == nil {
		return nil, errors.New("lines must be a list")
	}

	lines := make([]domain.RawOrderLine, 0, len(list.GetValues()))
	for idx, element := range list.GetValues() {
		object := element.GetStructValue()
		if object == nil {
			return nil, fmt.Errorf("lines[%d] must be an object", idx)
		}
		data, err := protojson.Marshal(object)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", idx, err)
		}
		line, err := domain.ParseRawOrderLine(data)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", idx, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// sizesFromStruct декодирует поле sizes тем же парсером, что и HTTP API.
func sizesFromStruct(req *structpb.Struct) ([]domain.SizeEntry, error) {
	list := req.GetFields()["sizes"].GetListValue()
	if list == nil {
		return nil, errors.New("sizes must be a list")
	}
	data, err := protojson.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("sizes: %w", err)
	}
	return domain.ParseSizeEntries(data)
}

// summaryToStruct кодирует деньги строками decimal, чтобы клиенты получали точные суммы.
func summaryToStruct(summary domain.OrderSummary) (*structpb.Struct, error) {
	items := make([]any, 0, len(summary.Items))
	for _, item := range summary.Items {
		items = append(items, itemToMap(item))
	}

	fields := map[string]any{
		"items":          items,
		"line_count":     summary.LineCount,
		"total_quantity": summary.TotalQuantity,
		"total_price":    summary.TotalPrice.String(),
	}
	if summary.OrderID != "" {
		fields["order_id"] = summary.OrderID
	}
	if !summary.GeneratedAt.IsZero() {
		fields["generated_at"] = summary.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return structpb.NewStruct(fields)
}

func itemToMap(item domain.FormattedItem) map[string]any {
	sizes := make([]any, 0, len(item.Sizes))
	for _, size := range item.Sizes {
		sizes = append(sizes, map[string]any{
			"size":     size.Size,
			"quantity": size.Quantity,
		})
	}

	result := map[string]any{
		"name":           item.Name,
		"sizes":          sizes,
		"sizes_display":  orderitems.FormatSizesDisplay(item.Sizes),
		"total_quantity": item.TotalQuantity,
		"price_per_item": item.PricePerItem.String(),
		"total_price":    item.TotalPrice.String(),
	}
	if item.Color != "" {
		result["color"] = item.Color
	}
	return result
}
