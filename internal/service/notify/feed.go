package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

const defaultCapacity = 32

// Entry — уведомление с моментом возникновения.
type Entry struct {
	domain.Notification
	At time.Time `json:"at"`
}

// Feed — ограниченная очередь уведомлений, которую забирает слой отображения.
// При переполнении вытесняются самые старые записи.
type Feed struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	logger   *log.Entry
}

// NewFeed создаёт feed указанной ёмкости (<=0: значение по умолчанию).
func NewFeed(capacity int, logger *log.Entry) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if logger == nil {
		logger = log.WithField("component", "notifications")
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Notify добавляет уведомление. Никогда не блокируется на потребителе.
func (f *Feed) Notify(_ context.Context, n domain.Notification) {
	f.mu.Lock()
	if len(f.entries) == f.capacity {
		copy(f.entries, f.entries[1:])
		f.entries = f.entries[:len(f.entries)-1]
	}
	f.entries = append(f.entries, Entry{Notification: n, At: time.Now().UTC()})
	f.mu.Unlock()

	f.logger.WithField("level", n.Level).Debug(n.Message)
}

// Drain возвращает накопленные уведомления и очищает очередь.
func (f *Feed) Drain() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	f.entries = f.entries[:0]
	return out
}

// Len возвращает число ожидающих уведомлений.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

var _ domain.Notifier = (*Feed)(nil)
