package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ProductRef — вложенная ссылка на товар из каталога (join по product_id).
type ProductRef struct {
	Name string `json:"name"`
}

// RawOrderLine представляет одну позицию заказа в том виде, в каком её отдаёт хранилище.
// Пустая строка в любом текстовом поле означает «значение отсутствует».
type RawOrderLine struct {
	ID      string
	OrderID string
	// Quantity == 0 трактуется как отсутствие количества (при группировке станет 1).
	Quantity int
	// Price хранит исходное текстовое представление цены: число или строка.
	Price string
	Size  string
	Color string
	// ProductDetails — JSON-строка с описанием товара либо просто название.
	ProductDetails string
	Product        *ProductRef
	CreatedAt      time.Time
}

// ProductName возвращает название из вложенной ссылки products, если оно есть.
func (l RawOrderLine) ProductName() string {
	if l.Product == nil {
		return ""
	}
	return l.Product.Name
}

// Validate проверяет поля, обязательные для сохранения позиции.
func (l RawOrderLine) Validate() []error {
	var errs []error
	if strings.TrimSpace(l.OrderID) == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if l.Quantity < 0 {
		errs = append(errs, ErrLineQuantityInvalid)
	}
	return errs
}

// ParseRawOrderLine разбирает одну запись позиции из произвольного JSON-объекта.
// Типы полей не навязываются: quantity и price могут быть числом или строкой,
// product_details — строкой, объектом или null. Ошибка возвращается только
// если запись не является JSON-объектом.
func ParseRawOrderLine(data []byte) (RawOrderLine, error) {
	if !gjson.ValidBytes(data) {
		return RawOrderLine{}, fmt.Errorf("%w: malformed json", ErrLineInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return RawOrderLine{}, fmt.Errorf("%w: expected json object", ErrLineInvalid)
	}
	return lineFromResult(root), nil
}

// ParseRawOrderLines разбирает JSON-массив позиций.
func ParseRawOrderLines(data []byte) ([]RawOrderLine, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrLineInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected json array", ErrLineInvalid)
	}

	elements := root.Array()
	lines := make([]RawOrderLine, 0, len(elements))
	for idx, value := range elements {
		if !value.IsObject() {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrLineInvalid, idx)
		}
		lines = append(lines, lineFromResult(value))
	}
	return lines, nil
}

// ParseSizeEntries разбирает JSON-массив {size, quantity} с теми же правилами типов,
// что и у позиций: size может быть числом, quantity — числовой строкой.
func ParseSizeEntries(data []byte) ([]SizeEntry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed json", ErrSizesInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, ErrSizesInvalid
	}

	elements := root.Array()
	sizes := make([]SizeEntry, 0, len(elements))
	for idx, value := range elements {
		if !value.IsObject() {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrSizesInvalid, idx)
		}
		sizes = append(sizes, SizeEntry{
			Size:     scalarText(value.Get("size")),
			Quantity: quantityOf(value.Get("quantity")),
		})
	}
	return sizes, nil
}

// UnmarshalJSON позволяет декодировать позицию стандартным encoding/json.
func (l *RawOrderLine) UnmarshalJSON(data []byte) error {
	line, err := ParseRawOrderLine(data)
	if err != nil {
		return err
	}
	*l = line
	return nil
}

func lineFromResult(r gjson.Result) RawOrderLine {
	line := RawOrderLine{
		ID:             scalarText(r.Get("id")),
		OrderID:        scalarText(r.Get("order_id")),
		Quantity:       quantityOf(r.Get("quantity")),
		Price:          scalarText(r.Get("price")),
		Size:           scalarText(r.Get("size")),
		Color:          scalarText(r.Get("color")),
		ProductDetails: detailsText(r.Get("product_details")),
	}

	product := r.Get("products")
	if !product.Exists() {
		product = r.Get("product")
	}
	if product.IsObject() {
		if name := scalarText(product.Get("name")); name != "" {
			line.Product = &ProductRef{Name: name}
		}
	}

	if created := r.Get("created_at"); created.Type == gjson.String {
		if ts, err := time.Parse(time.RFC3339Nano, created.Str); err == nil {
			line.CreatedAt = ts
		}
	}

	return line
}

// scalarText приводит скалярное значение к строке; null, false и пустые значения дают "".
func scalarText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True:
		return "true"
	default:
		return ""
	}
}

// detailsText сохраняет product_details как текст: строку как есть, объект — сырым JSON.
func detailsText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.JSON, gjson.Number, gjson.True:
		return r.Raw
	default:
		return ""
	}
}

func quantityOf(r gjson.Result) int {
	switch r.Type {
	case gjson.Number:
		return int(r.Int())
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
