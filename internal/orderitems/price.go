package orderitems

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Ведущий числовой префикс строки: "12.5", "-3", ".5", "5.", "1.e5", "50 SAR".
var numericPrefix = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d*)?|\.\d+)((?:[eE][+-]?\d+)?)`)

// ParsePrice читает цену как число с плавающей точкой по ведущему числовому префиксу.
// Пустые и нечисловые значения дают ноль.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	m := numericPrefix.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero
	}
	sign, mantissa, exponent := m[1], m[2], m[3]
	if sign == "+" {
		sign = ""
	}
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	mantissa = strings.TrimSuffix(mantissa, ".")

	value, err := decimal.NewFromString(sign + mantissa + exponent)
	if err != nil {
		return decimal.Zero
	}
	return value
}
