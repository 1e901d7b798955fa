package orderitems

import (
	"github.com/tidwall/gjson"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DetailsSource показывает, откуда взяты сведения о товаре позиции.
type DetailsSource int

const (
	// SourceMissing — product_details отсутствует, используются плоские поля и products.name.
	SourceMissing DetailsSource = iota
	// SourceJSON — product_details является корректным JSON.
	SourceJSON
	// SourceLiteral — product_details не JSON, вся строка считается названием товара.
	SourceLiteral
)

// String возвращает метку источника для логов и метрик.
func (s DetailsSource) String() string {
	switch s {
	case SourceJSON:
		return "json"
	case SourceLiteral:
		return "literal"
	default:
		return "missing"
	}
}

// Resolution — результат разбора одной позиции.
type Resolution struct {
	Product domain.ResolvedProduct
	Source  DetailsSource
}

// Resolve определяет название, цену, размер и цвет товара позиции.
// Значения из JSON в product_details приоритетнее плоских полей позиции.
func Resolve(line domain.RawOrderLine) Resolution {
	if line.ProductDetails == "" {
		return Resolution{
			Product: domain.ResolvedProduct{
				Name:  firstNonEmpty(line.ProductName(), domain.DeletedProductName),
				Price: line.Price,
				Size:  line.Size,
				Color: line.Color,
			},
			Source: SourceMissing,
		}
	}

	details, ok := parseDetails(line.ProductDetails)
	if !ok {
		return Resolution{
			Product: domain.ResolvedProduct{
				Name:  line.ProductDetails,
				Price: line.Price,
				Size:  line.Size,
				Color: line.Color,
			},
			Source: SourceLiteral,
		}
	}

	return Resolution{
		Product: domain.ResolvedProduct{
			Name: firstNonEmpty(
				truthyText(details.Get("name")),
				truthyText(details.Get("product_name")),
				line.ProductName(),
				domain.DeletedProductName,
			),
			Price: firstNonEmpty(truthyText(details.Get("price")), line.Price),
			Size:  firstNonEmpty(truthyText(details.Get("size")), line.Size),
			Color: firstNonEmpty(truthyText(details.Get("color")), line.Color),
		},
		Source: SourceJSON,
	}
}

// parseDetails возвращает ok=false, если строка не является корректным JSON.
func parseDetails(raw string) (gjson.Result, bool) {
	if !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

// truthyText возвращает текстовое значение поля или "", если поле пустое:
// отсутствует, null, false, 0 или пустая строка.
func truthyText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.Raw
	case gjson.True:
		return "true"
	case gjson.JSON:
		return r.Raw
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
