package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker implements EventBroker over Redis Pub/Sub so that every API
// replica sees events published by any other.
type RedisBroker struct {
	rdb *redis.Client
	log *zap.Logger

	mu   sync.Mutex
	subs map[chan Event]*redis.PubSub
}

func NewRedisBroker(url string, log *zap.Logger) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisBroker{rdb: rdb, log: log, subs: map[chan Event]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(tenantID string) chan Event {
	ch := make(chan Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, chanName(tenantID))
	// wait for the subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		b.log.Warn("redis subscribe failed", zap.String("tenant", tenantID), zap.Error(err))
	}
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				b.log.Debug("dropping undecodable event", zap.Error(err))
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

// Unsubscribe closes the Pub/Sub connection; the fan-in goroutine then
// closes ch.
func (b *RedisBroker) Unsubscribe(tenantID string, ch chan Event) {
	b.mu.Lock()
	ps, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(tenantID string, evt Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, chanName(tenantID), data).Err(); err != nil {
		b.log.Warn("redis publish failed", zap.String("tenant", tenantID), zap.Error(err))
	}
}

// Ping lets the readiness probe check Redis.
func (b *RedisBroker) Ping(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }

func (b *RedisBroker) Close() error {
	b.mu.Lock()
	for ch, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, ch)
	}
	b.mu.Unlock()
	return b.rdb.Close()
}

func chanName(tenantID string) string { return "ispnet:events:" + tenantID }
