package notify

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when publishing to or subscribing on a closed broker.
var ErrClosed = errors.New("notify: broker closed")

// DefaultBuffer is the subscription buffer used when Subscribe gets a
// non-positive size.
const DefaultBuffer = 64

// Subscription receives the events of one topic.
type Subscription[E any] struct {
	topic  string
	ch     chan E
	broker *Broker[E]
	once   sync.Once
}

// C returns the delivery channel. It is closed when the subscription or the
// broker is closed.
func (s *Subscription[E]) C() <-chan E { return s.ch }

// Topic returns the subscribed topic.
func (s *Subscription[E]) Topic() string { return s.topic }

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription[E]) Close() {
	s.broker.unsubscribe(s)
}

// Broker is an in-process topic publisher.
type Broker[E any] struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription[E]]struct{}
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewBroker creates an empty broker.
func NewBroker[E any]() *Broker[E] {
	return &Broker[E]{
		subs: make(map[string]map[*Subscription[E]]struct{}),
	}
}

// Subscribe registers a subscriber for topic with the given buffer size.
func (b *Broker[E]) Subscribe(topic string, buffer int) (*Subscription[E], error) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	s := &Subscription[E]{
		topic:  topic,
		ch:     make(chan E, buffer),
		broker: b,
	}
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription[E]]struct{})
		b.subs[topic] = set
	}
	set[s] = struct{}{}
	return s, nil
}

// Publish delivers event to every subscriber of topic. It never blocks.
func (b *Broker[E]) Publish(topic string, event E) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	b.published.Add(1)
	for s := range b.subs[topic] {
		select {
		case s.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers returns the number of subscribers of topic.
func (b *Broker[E]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Published returns the number of accepted Publish calls.
func (b *Broker[E]) Published() uint64 { return b.published.Load() }

// Dropped returns the number of deliveries skipped because a subscriber was full.
func (b *Broker[E]) Dropped() uint64 { return b.dropped.Load() }

// Close closes every subscription. Further calls are no-ops.
func (b *Broker[E]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for topic, set := range b.subs {
		for s := range set {
			s.once.Do(func() { close(s.ch) })
		}
		delete(b.subs, topic)
	}
	return nil
}

func (b *Broker[E]) unsubscribe(s *Subscription[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[s.topic]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.topic)
		}
	}
	s.once.Do(func() { close(s.ch) })
}
