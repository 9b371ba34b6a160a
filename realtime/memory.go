package realtime

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// MemoryBroker fans events out inside one process. Slow subscribers lose events rather
// than block publishers.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[chan []byte]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[chan []byte]struct{})}
}

func (b *MemoryBroker) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return &Subscription{C: ch}, nil
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[chan []byte]struct{})
	}
	b.topics[topic][ch] = struct{}{}

	var once sync.Once
	return &Subscription{
		C: ch,
		close: func() {
			once.Do(func() { b.unsubscribe(topic, ch) })
		},
	}, nil
}

func (b *MemoryBroker) unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subscribers, ok := b.topics[topic]
	if !ok {
		return
	}
	if _, ok := subscribers[ch]; !ok {
		return
	}
	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(b.topics, topic)
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subscribers := range b.topics {
		for ch := range subscribers {
			close(ch)
		}
		delete(b.topics, topic)
	}
	return nil
}

var _ Broker = (*MemoryBroker)(nil)
