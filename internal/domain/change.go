package domain

// Operation — тип изменения корзины.
type Operation string

const (
	OperationAdd    Operation = "add"
	OperationRemove Operation = "remove"
	OperationUpdate Operation = "update"
)

// CartChange описывает успешно применённое изменение и новое состояние корзины.
type CartChange struct {
	Operation Operation
	ProductID int
	// Amount — итоговое количество позиции (0 для удаления).
	Amount int
	Cart   Cart
}
