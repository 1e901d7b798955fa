package orderitems

import (
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// SizesSeparator — арабская запятая с пробелом.
const SizesSeparator = "، "

// FormatSizesDisplay рендерит размеры группы: "M×2، L". Количество выводится только если оно больше 1.
func FormatSizesDisplay(sizes []domain.SizeEntry) string {
	parts := make([]string, 0, len(sizes))
	for _, entry := range sizes {
		if entry.Quantity > 1 {
			parts = append(parts, entry.Size+"×"+strconv.Itoa(entry.Quantity))
			continue
		}
		parts = append(parts, entry.Size)
	}
	return strings.Join(parts, SizesSeparator)
}
