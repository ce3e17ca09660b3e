package eventsvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/sajili/core"
)

// ErrClosed is returned when using a closed bus.
var ErrClosed = errors.New("event bus closed")

const (
	subBuffer = 64

	// DeliveryTimeout bounds the wait on a full subscriber.
	DeliveryTimeout = 100 * time.Millisecond
)

// MemoryBus delivers events to the subscribers of the same process.
// A publish waits on a full subscriber until DeliveryTimeout elapses or its context ends,
// the event is then dropped for that subscriber.
type MemoryBus struct {
	mu              sync.RWMutex
	subs            map[*memSub]struct{}
	closed          bool
	metrics         core.Metrics
	deliveryTimeout time.Duration
}

var _ core.EventBus = (*MemoryBus)(nil)

func NewMemoryBus(metrics core.Metrics) *MemoryBus {
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &MemoryBus{subs: make(map[*memSub]struct{}), metrics: metrics, deliveryTimeout: DeliveryTimeout}
}

func (b *MemoryBus) Publish(ctx context.Context, evt core.Event) error {
	if ctx == nil {
		return errors.New("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	var (
		dropped int
		lastErr error
	)
	for sub := range b.subs {
		if !sub.wants(evt.Topic) {
			continue
		}
		if err := b.deliver(ctx, sub, evt); err != nil {
			b.metrics.EventDropped(evt.Topic)
			dropped++
			lastErr = err
		}
	}
	if dropped > 0 {
		return errors.Wrapf(lastErr, "publish %s/%s: dropped for %d subscriber(s)", evt.Topic, evt.Action, dropped)
	}
	return nil
}

// deliver hands evt to sub, waiting at most deliveryTimeout when sub is full.
func (b *MemoryBus) deliver(ctx context.Context, sub *memSub, evt core.Event) error {
	select {
	case sub.ch <- evt:
		return nil
	case <-sub.done: // closing
		return nil
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
	defer cancel()
	select {
	case sub.ch <- evt:
		return nil
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBus) Subscribe(ctx context.Context, topics ...string) (core.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	sub := &memSub{
		bus:    b,
		topics: topicSet(topics),
		ch:     make(chan core.Event, subBuffer),
		done:   make(chan struct{}),
	}
	b.subs[sub] = struct{}{}
	go sub.closeOnDone(ctx)
	return sub, nil
}

// Close closes every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*memSub, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	return nil
}

type memSub struct {
	bus    *MemoryBus
	topics map[string]struct{}
	ch     chan core.Event
	done   chan struct{}
	once   sync.Once
}

func (s *memSub) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

func (s *memSub) closeOnDone(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.Close()
	case <-s.done:
	}
}

func (s *memSub) C() <-chan core.Event {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		close(s.done) // unblocks publishers before taking the lock

		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		close(s.ch)
		s.bus.mu.Unlock()
	})
	return nil
}

func topicSet(topics []string) map[string]struct{} {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return set
}
