package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

func TestChangeValidate(t *testing.T) {
	assert.NoError(t, NewChange(ResourceTransactions, "u1", at).Validate())
	assert.ErrorIs(t, NewChange("budgets", "u1", at).Validate(), ErrInvalidChange)
	assert.ErrorIs(t, NewChange(ResourceProfile, "", at).Validate(), ErrInvalidChange)
	assert.Equal(t, "transactions:changed", ResourceTransactions.Trigger())
	assert.Equal(t, at.UnixNano(), NewChange(ResourceProfile, "u1", at).Version)
}

func TestBusFiltersByResource(t *testing.T) {
	bus := NewBus(nil)
	txs, cancelTxs := bus.Subscribe(4, ResourceTransactions)
	defer cancelTxs()
	all, cancelAll := bus.Subscribe(4)
	defer cancelAll()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewChange(ResourceCategories, "u1", at)))
	require.NoError(t, bus.Publish(ctx, NewChange(ResourceTransactions, "u1", at)))

	got := <-txs
	assert.Equal(t, ResourceTransactions, got.Resource)
	assert.Len(t, txs, 0)

	assert.Equal(t, ResourceCategories, (<-all).Resource)
	assert.Equal(t, ResourceTransactions, (<-all).Resource)
}

func TestBusDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), NewChange(ResourceProfile, "u1", at)))
	}
	assert.Len(t, ch, 1)

	cancel()
	cancel()
	assert.Equal(t, 0, bus.Subscribers())
	<-ch // buffered change survives the close
	_, open := <-ch
	assert.False(t, open)
}

func TestBusRejectsInvalidChange(t *testing.T) {
	bus := NewBus(nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), Change{}), ErrInvalidChange)
}

func TestMulti(t *testing.T) {
	var calls int
	ok := PublisherFunc(func(context.Context, Change) error { calls++; return nil })
	boom := errors.New("boom")
	failing := PublisherFunc(func(context.Context, Change) error { calls++; return boom })

	err := Multi(ok, nil, failing).Publish(context.Background(), NewChange(ResourceProfile, "u1", at))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
