package eventsvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/sajili/core"
)

// RedisBus propagates events between processes through Redis Pub/Sub.
// Events are JSON encoded on a single channel; subscribers filter topics locally.
type RedisBus struct {
	client  *redis.Client
	channel string
	metrics core.Metrics
	logger  core.Logger
	owned   bool // client created by the bus
}

var _ core.EventBus = (*RedisBus)(nil)

// NewRedisBus connects to the Redis server of conf.
func NewRedisBus(conf core.EventsConfig, metrics core.Metrics, logger core.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.RedisAddr,
		Password:     conf.RedisPassword,
		DB:           conf.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}

	bus := NewRedisBusFromClient(client, conf.RedisChannel, metrics, logger)
	bus.owned = true
	return bus, nil
}

func NewRedisBusFromClient(client *redis.Client, channel string, metrics core.Metrics, logger core.Logger) *RedisBus {
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	if channel == "" {
		channel = "sajili:events"
	}
	return &RedisBus{client: client, channel: channel, metrics: metrics, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, evt core.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	if err = b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.metrics.EventDropped(evt.Topic)
		return errors.Wrapf(err, "publish %s/%s", evt.Topic, evt.Action)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, topics ...string) (core.Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription to be confirmed so no event published afterwards is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribing")
	}

	sub := &redisSub{
		bus:    b,
		pubsub: pubsub,
		topics: topicSet(topics),
		ch:     make(chan core.Event, subBuffer),
		done:   make(chan struct{}),
	}
	sub.wg.Add(1)
	go sub.forward(ctx)
	return sub, nil
}

func (b *RedisBus) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}

type redisSub struct {
	bus    *RedisBus
	pubsub *redis.PubSub
	topics map[string]struct{}
	ch     chan core.Event
	done   chan struct{}
	once   sync.Once
	psOnce sync.Once
	psErr  error
	wg     sync.WaitGroup
}

func (s *redisSub) closePubSub() error {
	s.psOnce.Do(func() { s.psErr = s.pubsub.Close() })
	return s.psErr
}

// forward decodes the messages of the channel until the subscription or its context is closed.
func (s *redisSub) forward(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.ch)

	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.closePubSub()
			return
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var evt core.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				if s.bus.logger != nil {
					s.bus.logger.Warn("decoding event", err)
				}
				continue
			}
			if len(s.topics) > 0 {
				if _, ok := s.topics[evt.Topic]; !ok {
					continue
				}
			}
			select {
			case s.ch <- evt:
			default:
				s.bus.metrics.EventDropped(evt.Topic) // slow subscriber
			}
		}
	}
}

func (s *redisSub) C() <-chan core.Event {
	return s.ch
}

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.closePubSub()
		s.wg.Wait()
	})
	return err
}
