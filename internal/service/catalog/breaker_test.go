package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shopcart/internal/domain"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute, nil)
	boom := errors.New("boom")

	require.ErrorIs(t, cb.Execute("op", func() error { return boom }, nil), boom)
	assert.Equal(t, CircuitClosed, cb.State())

	require.ErrorIs(t, cb.Execute("op", func() error { return boom }, nil), boom)
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	err := cb.Execute("op", func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called, "fn must not run while breaker is open")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Second, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	_ = cb.Execute("op", func() error { return errors.New("down") }, nil)
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Second)
	require.NoError(t, cb.Execute("op", func() error { return nil }, nil))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Second, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = cb.Execute("op", func() error { return errors.New("down") }, nil)
	}
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute("op", func() error { return errors.New("still down") }, nil)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_IgnoresNonCountableErrors(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute, nil)

	err := cb.Execute("op", func() error { return ErrUnknownProduct }, isOutage)
	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerService(t *testing.T) {
	mock := NewDemoService()
	svc := NewBreakerService(mock, NewCircuitBreaker(1, time.Minute, nil))
	ctx := context.Background()

	stock, err := svc.GetStock(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Amount)

	_, err = svc.GetProduct(ctx, 404)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, CircuitClosed, svc.Breaker().State(), "unknown product must not trip the breaker")

	mock.StockErr = errors.New("connection refused")
	_, err = svc.GetStock(ctx, 1)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, CircuitOpen, svc.Breaker().State())

	mock.StockErr = nil
	_, err = svc.GetStock(ctx, 1)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
