package domain

import "context"

// CatalogService описывает удалённый сервис товаров и остатков.
type CatalogService interface {
	// GetStock возвращает актуальный остаток товара.
	GetStock(ctx context.Context, productID int) (Stock, error)
	// GetProduct возвращает карточку товара (без количества в корзине).
	GetProduct(ctx context.Context, productID int) (Product, error)
}

// SnapshotStore — key-value слот, в котором переживает перезапуск снимок корзины.
type SnapshotStore interface {
	// Load возвращает сохранённый снимок или ErrSnapshotNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save целиком перезаписывает слот.
	Save(ctx context.Context, key string, data []byte) error
}

// Notifier — поверхность кратковременных уведомлений пользователю (fire-and-forget).
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotificationLevel — важность уведомления.
type NotificationLevel string

const (
	NotificationError NotificationLevel = "error"
	NotificationInfo  NotificationLevel = "info"
)

// Notification — сообщение для пользователя.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}
