package orderitems

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Stats описывает один проход группировки; используется для метрик и логов.
type Stats struct {
	Lines          int
	Groups         int
	JSONDetails    int
	LiteralDetails int
	MissingDetails int
}

type groupKey struct {
	name  string
	color string
}

// FormatOrderItems группирует позиции по (название, цвет) за один проход слева направо.
// Группы и размеры внутри групп возвращаются в порядке первого появления.
func FormatOrderItems(lines []domain.RawOrderLine) []domain.FormattedItem {
	items, _ := FormatOrderItemsWithStats(lines)
	return items
}

// FormatOrderItemsWithStats делает то же, что FormatOrderItems, и дополнительно
// считает, откуда были взяты сведения о товарах.
func FormatOrderItemsWithStats(lines []domain.RawOrderLine) ([]domain.FormattedItem, Stats) {
	stats := Stats{Lines: len(lines)}
	items := make([]domain.FormattedItem, 0)
	index := make(map[groupKey]int)

	for _, line := range lines {
		resolution := Resolve(line)
		switch resolution.Source {
		case SourceJSON:
			stats.JSONDetails++
		case SourceLiteral:
			stats.LiteralDetails++
		default:
			stats.MissingDetails++
		}

		product := resolution.Product
		quantity := line.Quantity
		if quantity == 0 {
			quantity = 1
		}

		key := groupKey{name: product.Name, color: product.Color}
		pos, ok := index[key]
		if !ok {
			items = append(items, domain.FormattedItem{
				Name:         product.Name,
				Color:        product.Color,
				Sizes:        make([]domain.SizeEntry, 0, 1),
				PricePerItem: ParsePrice(product.Price),
				TotalPrice:   decimal.Zero,
			})
			pos = len(items) - 1
			index[key] = pos
		}
		item := &items[pos]

		size := firstNonEmpty(product.Size, line.Size, domain.NoSize)
		addSize(item, size, quantity)

		item.TotalQuantity += quantity
		// Цена за единицу фиксирована первой позицией группы, цена текущей позиции не учитывается.
		item.TotalPrice = item.TotalPrice.Add(item.PricePerItem.Mul(decimal.NewFromInt(int64(quantity))))
	}

	stats.Groups = len(items)
	return items, stats
}

func addSize(item *domain.FormattedItem, size string, quantity int) {
	for i := range item.Sizes {
		if item.Sizes[i].Size == size {
			item.Sizes[i].Quantity += quantity
			return
		}
	}
	item.Sizes = append(item.Sizes, domain.SizeEntry{Size: size, Quantity: quantity})
}
