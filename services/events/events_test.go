package eventsvc

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/services/logger"
)

type countingMetrics struct {
	core.NopMetrics
	dropped map[string]int
}

func (m *countingMetrics) EventDropped(topic string) { m.dropped[topic]++ }

func receive(t *testing.T, sub core.Subscription) core.Event {
	t.Helper()
	select {
	case evt, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return core.Event{}
}

func assertNoEvent(t *testing.T, sub core.Subscription) {
	t.Helper()
	select {
	case evt, ok := <-sub.C():
		if ok {
			t.Errorf("unexpected event %+v", evt)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewMemoryBus(nil)
	ctx := context.Background()

	all, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	sessions, err := bus.Subscribe(ctx, core.TopicSessions)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, core.NewEvent(core.TopicRecords, core.ActionCreated, "r1")))
	require.NoError(t, bus.Publish(ctx, core.NewEvent(core.TopicSessions, core.ActionStarted, "s1")))

	evt := receive(t, all)
	assert.Equal(t, core.TopicRecords, evt.Topic)
	assert.Equal(t, []string{"r1"}, evt.IDs)
	evt = receive(t, all)
	assert.Equal(t, core.ActionStarted, evt.Action)

	evt = receive(t, sessions)
	assert.Equal(t, core.TopicSessions, evt.Topic)
	assertNoEvent(t, sessions)

	require.NoError(t, sessions.Close())
	require.NoError(t, sessions.Close()) // idempotent
	_, ok := <-sessions.C()
	assert.False(t, ok)

	require.NoError(t, bus.Close())
	_, ok = <-all.C()
	assert.False(t, ok)
	assert.Equal(t, ErrClosed, bus.Publish(ctx, core.NewEvent(core.TopicRecords, core.ActionCreated)))
	_, err = bus.Subscribe(ctx)
	assert.Equal(t, ErrClosed, err)
}

func TestMemoryBus_dropOnFullSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	metrics := &countingMetrics{dropped: map[string]int{}}
	bus := NewMemoryBus(metrics)
	defer bus.Close()

	sub, err := bus.Subscribe(context.Background(), core.TopicRecords)
	require.NoError(t, err)
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, bus.Publish(context.Background(), core.NewEvent(core.TopicRecords, core.ActionCreated)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = bus.Publish(ctx, core.NewEvent(core.TopicRecords, core.ActionCreated))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, metrics.dropped[core.TopicRecords])
}

func TestMemoryBus_deliveryTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	metrics := &countingMetrics{dropped: map[string]int{}}
	bus := NewMemoryBus(metrics)
	bus.deliveryTimeout = 20 * time.Millisecond
	defer bus.Close()

	full, err := bus.Subscribe(context.Background(), core.TopicRecords)
	require.NoError(t, err)
	for i := 0; i < cap(full.C()); i++ {
		require.NoError(t, bus.Publish(context.Background(), core.NewEvent(core.TopicRecords, core.ActionCreated)))
	}
	sessions, err := bus.Subscribe(context.Background(), core.TopicSessions)
	require.NoError(t, err)

	// a publish without deadline gives up on the full subscriber
	start := time.Now()
	err = bus.Publish(context.Background(), core.NewEvent(core.TopicRecords, core.ActionCreated))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))
	assert.Equal(t, 1, metrics.dropped[core.TopicRecords])

	// other topics keep flowing meanwhile
	done := make(chan error, 1)
	go func() {
		done <- bus.Publish(context.Background(), core.NewEvent(core.TopicRecords, core.ActionCreated))
	}()
	require.NoError(t, bus.Publish(context.Background(), core.NewEvent(core.TopicSessions, core.ActionStarted, "s1")))
	assert.Equal(t, core.ActionStarted, receive(t, sessions).Action)

	select {
	case err = <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("publish on a full subscriber did not return")
	}
}

func TestMemoryBus_subscriptionEndsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewMemoryBus(nil)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}

func setupRedisBus(t *testing.T) (*miniredis.Miniredis, *RedisBus) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, NewRedisBusFromClient(client, "test:events", nil, logsvc.NewTestLogger())
}

func TestRedisBus(t *testing.T) {
	_, bus := setupRedisBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, core.TopicRecords, core.TopicSessions)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, core.NewEvent(core.TopicStudents, core.ActionCreated, "st1")))
	require.NoError(t, bus.Publish(ctx, core.NewEvent(core.TopicRecords, core.ActionCreated, "r1", "r2")))

	evt := receive(t, sub)
	assert.Equal(t, core.TopicRecords, evt.Topic)
	assert.Equal(t, core.ActionCreated, evt.Action)
	assert.Equal(t, []string{"r1", "r2"}, evt.IDs)
	assertNoEvent(t, sub)
}

func TestRedisBus_Close(t *testing.T) {
	_, bus := setupRedisBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.NoError(t, bus.Close()) // client not owned
}
