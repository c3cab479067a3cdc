package domain

import "errors"

var (
	// ErrProductNotFound — позиция с указанным id отсутствует в корзине.
	ErrProductNotFound = errors.New("product not found in cart")
	// ErrInsufficientStock — запрошенное количество превышает остаток на складе.
	ErrInsufficientStock = errors.New("requested quantity out of stock")
	// ErrInvalidAmount — количество должно быть больше нуля.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrRemoteUnavailable — сервис остатков/каталога не ответил или вернул ошибку.
	ErrRemoteUnavailable = errors.New("catalog service unavailable")
	// ErrPersistenceFailure — не удалось записать снимок корзины.
	ErrPersistenceFailure = errors.New("cart snapshot persistence failed")
	// ErrSnapshotNotFound возвращается хранилищем, если слот ещё пуст.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrSnapshotInvalid — снимок не удалось разобрать или он нарушает инварианты корзины.
	ErrSnapshotInvalid = errors.New("cart snapshot is invalid")
	// ErrDuplicateProduct — в снимке одна и та же позиция встречается дважды.
	ErrDuplicateProduct = errors.New("duplicate product id in cart")
	// ErrStoreClosed — операция вызвана после закрытия корзины.
	ErrStoreClosed = errors.New("cart store is closed")
)

// IsRemoteUnavailable проверяет, связана ли ошибка с недоступностью каталога.
func IsRemoteUnavailable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
