package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// ErrOrderNotFound возвращается, если у заказа нет ни одной позиции.
	ErrOrderNotFound = errors.New("order not found")
	// ErrLineInvalid — запись позиции не удалось прочитать как JSON-объект.
	ErrLineInvalid = errors.New("order line is invalid")
	// ErrSizesInvalid — список размеров не является JSON-массивом объектов.
	ErrSizesInvalid = errors.New("sizes must be a json array of {size, quantity}")
	// Ошибка отрицательного количества в позиции.
	ErrLineQuantityInvalid = errors.New("order line quantity must be non-negative")
	// ErrCashboxNotFound возвращается, если касса за дату ещё не создана.
	ErrCashboxNotFound = errors.New("cashbox not found")
	// ErrCashboxAlreadyExists — касса за эту дату уже создана (конкурентное создание).
	ErrCashboxAlreadyExists = errors.New("cashbox already exists")
	// Ошибка некорректной даты кассового дня.
	ErrBusinessDateInvalid = errors.New("business date must be YYYY-MM-DD")
	// Ошибка отрицательного начального остатка.
	ErrOpeningBalanceNegative = errors.New("opening balance must be non-negative")
	// Ошибка неизвестного статуса кассы.
	ErrCashboxStatusInvalid = errors.New("cashbox status is invalid")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующим сущностям.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrCashboxNotFound)
}
