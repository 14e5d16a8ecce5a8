package eventbus

import (
	"context"
	"sync"
)

// Event names a kind of domain event.
type Event string

const (
	EventAPIRecovered   Event = "api.recovered"
	EventAPIUnreachable Event = "api.unreachable"
	EventAuthFailed     Event = "auth.failed"
	EventAuthSignedIn   Event = "auth.signed-in"
	EventAuthSignedOut  Event = "auth.signed-out"
	EventTaskCreated    Event = "task.created"
	EventTaskDeleted    Event = "task.deleted"
	EventTaskFailed     Event = "task.failed"
	EventTaskUpdated    Event = "task.updated"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers events to subscribers on a single goroutine started with
// Start. Publishing never blocks: when the buffer is full the event is dropped
// and OnDrop hooks fire.
type EventBus struct {
	ch chan envelope

	mu   sync.RWMutex
	subs map[Event][]func(any)

	hooks hooks
}

// New creates a bus whose queue holds up to bufSize undelivered events.
func New(bufSize int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, max(bufSize, 1)),
		subs: make(map[Event][]func(any)),
	}
}

// Start delivers queued events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.runOnSubscribe(event)
}

// PublishTaskCreated enqueues a task.created event.
func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) { bus.send(EventTaskCreated, p) }

// SubscribeTaskCreated registers fn for task.created events.
func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	bus.subscribe(EventTaskCreated, func(p any) { fn(p.(TaskCreatedPayload)) })
}

// PublishTaskUpdated enqueues a task.updated event.
func (bus *EventBus) PublishTaskUpdated(p TaskUpdatedPayload) { bus.send(EventTaskUpdated, p) }

// SubscribeTaskUpdated registers fn for task.updated events.
func (bus *EventBus) SubscribeTaskUpdated(fn func(TaskUpdatedPayload)) {
	bus.subscribe(EventTaskUpdated, func(p any) { fn(p.(TaskUpdatedPayload)) })
}

// PublishTaskDeleted enqueues a task.deleted event.
func (bus *EventBus) PublishTaskDeleted(p TaskDeletedPayload) { bus.send(EventTaskDeleted, p) }

// SubscribeTaskDeleted registers fn for task.deleted events.
func (bus *EventBus) SubscribeTaskDeleted(fn func(TaskDeletedPayload)) {
	bus.subscribe(EventTaskDeleted, func(p any) { fn(p.(TaskDeletedPayload)) })
}

// PublishTaskFailed enqueues a task.failed event.
func (bus *EventBus) PublishTaskFailed(p TaskFailedPayload) { bus.send(EventTaskFailed, p) }

// SubscribeTaskFailed registers fn for task.failed events.
func (bus *EventBus) SubscribeTaskFailed(fn func(TaskFailedPayload)) {
	bus.subscribe(EventTaskFailed, func(p any) { fn(p.(TaskFailedPayload)) })
}

// PublishAuthSignedIn enqueues an auth.signed-in event.
func (bus *EventBus) PublishAuthSignedIn(p AuthSignedInPayload) { bus.send(EventAuthSignedIn, p) }

// SubscribeAuthSignedIn registers fn for auth.signed-in events.
func (bus *EventBus) SubscribeAuthSignedIn(fn func(AuthSignedInPayload)) {
	bus.subscribe(EventAuthSignedIn, func(p any) { fn(p.(AuthSignedInPayload)) })
}

// PublishAuthSignedOut enqueues an auth.signed-out event.
func (bus *EventBus) PublishAuthSignedOut(p AuthSignedOutPayload) { bus.send(EventAuthSignedOut, p) }

// SubscribeAuthSignedOut registers fn for auth.signed-out events.
func (bus *EventBus) SubscribeAuthSignedOut(fn func(AuthSignedOutPayload)) {
	bus.subscribe(EventAuthSignedOut, func(p any) { fn(p.(AuthSignedOutPayload)) })
}

// PublishAuthFailed enqueues an auth.failed event.
func (bus *EventBus) PublishAuthFailed(p AuthFailedPayload) { bus.send(EventAuthFailed, p) }

// SubscribeAuthFailed registers fn for auth.failed events.
func (bus *EventBus) SubscribeAuthFailed(fn func(AuthFailedPayload)) {
	bus.subscribe(EventAuthFailed, func(p any) { fn(p.(AuthFailedPayload)) })
}

// PublishAPIUnreachable enqueues an api.unreachable event.
func (bus *EventBus) PublishAPIUnreachable(p APIUnreachablePayload) {
	bus.send(EventAPIUnreachable, p)
}

// SubscribeAPIUnreachable registers fn for api.unreachable events.
func (bus *EventBus) SubscribeAPIUnreachable(fn func(APIUnreachablePayload)) {
	bus.subscribe(EventAPIUnreachable, func(p any) { fn(p.(APIUnreachablePayload)) })
}

// PublishAPIRecovered enqueues an api.recovered event.
func (bus *EventBus) PublishAPIRecovered(p APIRecoveredPayload) { bus.send(EventAPIRecovered, p) }

// SubscribeAPIRecovered registers fn for api.recovered events.
func (bus *EventBus) SubscribeAPIRecovered(fn func(APIRecoveredPayload)) {
	bus.subscribe(EventAPIRecovered, func(p any) { fn(p.(APIRecoveredPayload)) })
}

// Drain delivers every queued event on the calling goroutine and returns how
// many were delivered. It is meant for buses that are never started, such as
// the scenario runner's; do not mix it with Start.
func (bus *EventBus) Drain() int {
	n := 0
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
			n++
		default:
			return n
		}
	}
}
