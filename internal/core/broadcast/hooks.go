package broadcast

import (
	"fmt"
	"sync"
)

// hooks holds lifecycle observers for a Channel. They run outside the
// channel lock and must not block. A panicking hook is recovered and logged.
type hooks[T any] struct {
	mu          sync.RWMutex
	onPublish   []func(T, int)
	onSubscribe []func(uint64)
	onPanic     []func(uint64, any)
}

// OnPublish registers a hook that fires after a value has been delivered,
// with the number of handlers it was addressed to.
func (c *Channel[T]) OnPublish(fn func(value T, handlers int)) {
	c.hooks.mu.Lock()
	c.hooks.onPublish = append(c.hooks.onPublish, fn)
	c.hooks.mu.Unlock()
}

// OnSubscribe registers a hook that fires after a handler is registered.
func (c *Channel[T]) OnSubscribe(fn func(subscriber uint64)) {
	c.hooks.mu.Lock()
	c.hooks.onSubscribe = append(c.hooks.onSubscribe, fn)
	c.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a handler panics.
func (c *Channel[T]) OnPanic(fn func(subscriber uint64, recovered any)) {
	c.hooks.mu.Lock()
	c.hooks.onPanic = append(c.hooks.onPanic, fn)
	c.hooks.mu.Unlock()
}

func (c *Channel[T]) guardHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("hook", name).Str("panic", fmt.Sprint(r)).Msg("broadcast hook panicked")
		}
	}()
	fn()
}

func (c *Channel[T]) runOnPublish(value T, n int) {
	c.hooks.mu.RLock()
	hooks := make([]func(T, int), len(c.hooks.onPublish))
	copy(hooks, c.hooks.onPublish)
	c.hooks.mu.RUnlock()
	for _, fn := range hooks {
		c.guardHook("publish", func() { fn(value, n) })
	}
}

func (c *Channel[T]) runOnSubscribe(id uint64) {
	c.hooks.mu.RLock()
	hooks := make([]func(uint64), len(c.hooks.onSubscribe))
	copy(hooks, c.hooks.onSubscribe)
	c.hooks.mu.RUnlock()
	for _, fn := range hooks {
		c.guardHook("subscribe", func() { fn(id) })
	}
}

func (c *Channel[T]) runOnPanic(id uint64, recovered any) {
	c.hooks.mu.RLock()
	hooks := make([]func(uint64, any), len(c.hooks.onPanic))
	copy(hooks, c.hooks.onPanic)
	c.hooks.mu.RUnlock()
	for _, fn := range hooks {
		c.guardHook("panic", func() { fn(id, recovered) })
	}
}
