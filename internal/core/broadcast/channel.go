// Package broadcast provides a synchronous, ordered, in-process fan-out of a
// value to an open set of handlers.
//
// A Channel remembers the latest value so late subscribers start from the
// current state. Publishing is split into Post (queue a value, cheap enough to
// call under the publisher's own lock) and Dispatch (deliver queued values with
// no lock held). Values are delivered in the order they were posted and every
// active handler sees each value, in subscription order.
//
// Delivery is synchronous for the caller: Publish, Subscribe and Dispatch
// return once everything queued before the call has been delivered, waiting
// for a delivery in progress on another goroutine if need be. Calls made by a
// handler on the delivering goroutine are the exception; they queue their
// value and return, and it is delivered after the current one.
package broadcast

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Handler receives published values.
type Handler[T any] func(T)

// Option configures a Channel.
type Option[T any] func(*Channel[T])

// WithClone sets a function applied to a value before it is handed to each
// handler, so handlers cannot affect one another through shared memory.
func WithClone[T any](fn func(T) T) Option[T] {
	return func(c *Channel[T]) { c.clone = fn }
}

// WithLogger sets the logger used to report recovered handler panics.
func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(c *Channel[T]) { c.logger = l }
}

type registration[T any] struct {
	id      uint64
	handler Handler[T]
	active  atomic.Bool
}

// delivery pairs a value with the handlers registered when it was queued.
type delivery[T any] struct {
	seq     uint64
	value   T
	targets []*registration[T]
}

// Channel is safe for concurrent use. Handlers may publish or subscribe from
// inside a delivery; such calls are queued behind the current delivery.
type Channel[T any] struct {
	mu          sync.Mutex
	latest      T
	handlers    []*registration[T]
	queue       []delivery[T]
	posted      uint64 // seq of the newest queued delivery
	delivered   uint64 // seq of the newest finished delivery
	dispatching bool
	owner       uint64 // goroutine running the current dispatch
	done        *sync.Cond
	nextID      uint64
	closed      bool

	clone  func(T) T
	logger zerolog.Logger
	hooks  hooks[T]
}

// New creates a Channel whose current value is initial.
func New[T any](initial T, opts ...Option[T]) *Channel[T] {
	c := &Channel[T]{
		latest: initial,
		logger: zerolog.Nop(),
	}
	c.done = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers h and delivers the current value to it. The returned
// function unregisters h; later calls to it do nothing. After it returns, h
// receives no further values, including ones already queued.
func (c *Channel[T]) Subscribe(h Handler[T]) (unsubscribe func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}

	c.nextID++
	reg := &registration[T]{id: c.nextID, handler: h}
	reg.active.Store(true)
	c.handlers = append(c.handlers, reg)
	c.enqueueLocked(c.latest, []*registration[T]{reg})
	c.mu.Unlock()

	c.runOnSubscribe(reg.id)
	c.Dispatch()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(reg) })
	}
}

// Publish posts v and dispatches it.
func (c *Channel[T]) Publish(v T) {
	c.Post(v)
	c.Dispatch()
}

// Post records v as the current value and queues it for every handler
// without invoking any of them. Callers that need deliveries to follow the
// order of their own critical sections Post while holding their lock and
// Dispatch after releasing it.
func (c *Channel[T]) Post(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.latest = v
	targets := make([]*registration[T], len(c.handlers))
	copy(targets, c.handlers)
	c.enqueueLocked(v, targets)
}

func (c *Channel[T]) enqueueLocked(v T, targets []*registration[T]) {
	c.posted++
	c.queue = append(c.queue, delivery[T]{seq: c.posted, value: v, targets: targets})
}

// Dispatch delivers every value queued before the call and returns when they
// have all been delivered. If another goroutine is delivering, Dispatch waits
// for it to reach those values. A handler that calls Dispatch on the
// delivering goroutine returns at once; its values follow the current one.
func (c *Channel[T]) Dispatch() {
	me := goroutineID()

	c.mu.Lock()
	target := c.posted
	for {
		if c.delivered >= target {
			c.mu.Unlock()
			return
		}
		if !c.dispatching {
			break
		}
		if c.owner == me {
			c.mu.Unlock()
			return
		}
		c.done.Wait()
	}
	c.dispatching = true
	c.owner = me

	for len(c.queue) > 0 {
		d := c.queue[0]
		c.queue[0] = delivery[T]{}
		c.queue = c.queue[1:]

		c.mu.Unlock()

		for _, reg := range d.targets {
			if !reg.active.Load() {
				continue
			}
			c.invoke(reg, d.value)
		}
		c.runOnPublish(d.value, len(d.targets))

		c.mu.Lock()
		c.delivered = max(c.delivered, d.seq)
		c.done.Broadcast()
	}

	c.dispatching = false
	c.owner = 0
	c.done.Broadcast()
	c.mu.Unlock()
}

// Latest returns the most recently posted value.
func (c *Channel[T]) Latest() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Len returns the number of active handlers.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Close unregisters every handler and drops queued deliveries. Subsequent
// Post and Subscribe calls are ignored.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, reg := range c.handlers {
		reg.active.Store(false)
	}
	c.handlers = nil
	c.queue = nil
	c.delivered = c.posted
	c.done.Broadcast()
}

func (c *Channel[T]) remove(reg *registration[T]) {
	reg.active.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.handlers {
		if r == reg {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// invoke calls a single handler, isolating the others from its panics.
func (c *Channel[T]) invoke(reg *registration[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Uint64("subscriber", reg.id).
				Str("panic", fmt.Sprint(r)).
				Msg("subscriber panicked")
			c.runOnPanic(reg.id, r)
		}
	}()

	if c.clone != nil {
		v = c.clone(v)
	}
	reg.handler(v)
}
