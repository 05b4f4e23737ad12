// Package pubsub provides an in-process broadcast primitive: one Broker per
// topic, any number of subscribers, each with its own buffered queue.
//
// Publish never blocks. A subscriber whose queue is full misses the event;
// events are FIFO per subscriber and there is no replay for late subscribers.
package pubsub

import (
	"sync"
	"sync/atomic"
)

var nextSubscriberID atomic.Uint64

// Broker fans out values of type T to its current subscribers.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription[T]
	buffer int
	closed bool
	onIdle func()
}

// NewBroker creates a broker whose subscriber queues hold up to buffer values.
func NewBroker[T any](buffer int) *Broker[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker[T]{
		subs:   make(map[uint64]*Subscription[T]),
		buffer: buffer,
	}
}

// Subscription is a handle on one subscriber's queue.
type Subscription[T any] struct {
	id     uint64
	ch     chan T
	broker *Broker[T]
	once   sync.Once
}

// ID identifies the subscription within the process.
func (s *Subscription[T]) ID() uint64 { return s.id }

// Events yields published values. It is closed when the subscription is
// closed or the broker shuts down.
func (s *Subscription[T]) Events() <-chan T { return s.ch }

// Close removes the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { s.broker.remove(s.id) })
}

// Subscribe registers a new subscriber. On a closed broker the returned
// subscription's channel is already closed.
func (b *Broker[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		id:     nextSubscriberID.Add(1),
		ch:     make(chan T, b.buffer),
		broker: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers v to every current subscriber and returns how many
// queues accepted it.
func (b *Broker[T]) Publish(v T) int {
	// Channels are only closed under the write lock, so sending under the
	// read lock cannot hit a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		select {
		case sub.ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of current subscribers.
func (b *Broker[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// OnIdle registers fn to run, outside the broker's lock, each time the last
// subscriber of an open broker leaves.
func (b *Broker[T]) OnIdle(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onIdle = fn
}

// Close drops every subscriber and closes their channels. Later
// subscriptions are closed immediately.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}

func (b *Broker[T]) remove(id uint64) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, id)
	close(sub.ch)
	var idle func()
	if len(b.subs) == 0 && !b.closed {
		idle = b.onIdle
	}
	b.mu.Unlock()

	if idle != nil {
		idle()
	}
}
