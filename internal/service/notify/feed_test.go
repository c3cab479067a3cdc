package notify

import (
	"context"
	"fmt"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

func TestFeed_NotifyAndDrain(t *testing.T) {
	feed := NewFeed(4, nil)
	ctx := context.Background()

	feed.Notify(ctx, domain.Notification{Level: domain.NotificationError, Message: "Error adding product"})
	feed.Notify(ctx, domain.Notification{Level: domain.NotificationError, Message: "Requested quantity out of stock"})
	require.Equal(t, 2, feed.Len())

	entries := feed.Drain()
	require.Len(t, entries, 2)
	assert.Equal(t, "Error adding product", entries[0].Message)
	assert.Equal(t, "Requested quantity out of stock", entries[1].Message)
	assert.False(t, entries[0].At.IsZero())

	assert.Equal(t, 0, feed.Len())
	assert.Empty(t, feed.Drain())
}

func TestFeed_EvictsOldest(t *testing.T) {
	feed := NewFeed(3, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		feed.Notify(ctx, domain.Notification{Level: domain.NotificationInfo, Message: fmt.Sprintf("msg-%d", i)})
	}

	entries := feed.Drain()
	require.Len(t, entries, 3)
	assert.Equal(t, "msg-2", entries[0].Message)
	assert.Equal(t, "msg-4", entries[2].Message)
}

func TestFeed_DefaultCapacity(t *testing.T) {
	feed := NewFeed(0, nil)
	assert.Equal(t, defaultCapacity, feed.capacity)
}

func TestFeed_LogsNotificationsAtDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	feed := NewFeed(2, logger.WithField("component", "notifications"))

	feed.Notify(context.Background(), domain.Notification{Level: domain.NotificationError, Message: "Error removing product"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.DebugLevel, entry.Level)
	assert.Equal(t, "Error removing product", entry.Message)
}
