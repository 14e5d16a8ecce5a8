package eventbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/toast"
)

// NotificationRouter maps domain events to user-facing toasts.
type NotificationRouter struct {
	bus    *EventBus
	toasts *toast.Service
	logger zerolog.Logger

	mu          sync.Mutex
	unreachable map[string]string // endpoint -> toast id
}

// NewNotificationRouter constructs a router for event-to-toast mappings.
func NewNotificationRouter(bus *EventBus, toasts *toast.Service, logger zerolog.Logger) *NotificationRouter {
	return &NotificationRouter{
		bus:         bus,
		toasts:      toasts,
		logger:      logger,
		unreachable: make(map[string]string),
	}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeTaskCreated(func(p TaskCreatedPayload) {
		r.show(r.toasts.Success, "Task created", notify.WithDescription(p.Title))
	})

	r.bus.SubscribeTaskUpdated(func(p TaskUpdatedPayload) {
		r.show(r.toasts.Success, "Task updated", notify.WithDescription(p.Title))
	})

	r.bus.SubscribeTaskDeleted(func(p TaskDeletedPayload) {
		r.show(r.toasts.Info, "Task deleted", notify.WithDescription(p.Title))
	})

	r.bus.SubscribeTaskFailed(func(p TaskFailedPayload) {
		op := p.Operation
		if op == "" {
			op = "save"
		}
		opts := []notify.Option{notify.WithDescription(errText(p.Err))}
		if p.Retry != nil {
			opts = append(opts, notify.WithAction("Retry", p.Retry))
		}
		r.show(r.toasts.Error, fmt.Sprintf("Could not %s task", op), opts...)
	})

	r.bus.SubscribeAuthSignedIn(func(p AuthSignedInPayload) {
		msg := "Signed in"
		if p.User != "" {
			msg = fmt.Sprintf("Welcome back, %s", p.User)
		}
		r.show(r.toasts.Success, msg)
	})

	r.bus.SubscribeAuthSignedOut(func(AuthSignedOutPayload) {
		r.show(r.toasts.Info, "Signed out")
	})

	r.bus.SubscribeAuthFailed(func(p AuthFailedPayload) {
		reason := p.Reason
		if reason == "" {
			reason = "check your credentials and try again"
		}
		r.show(r.toasts.Error, "Sign-in failed", notify.WithDescription(reason))
	})

	r.bus.SubscribeAPIUnreachable(func(p APIUnreachablePayload) {
		r.mu.Lock()
		defer r.mu.Unlock()
		// One toast per endpoint while it is on screen. Once it has been
		// dismissed or evicted, a repeated outage shows it again.
		if id, ok := r.unreachable[p.Endpoint]; ok {
			if _, active, err := r.toasts.Get(id); err == nil && active {
				return
			}
			delete(r.unreachable, p.Endpoint)
		}
		id := r.show(r.toasts.Warning, "Server unreachable",
			notify.WithDescription(fmt.Sprintf("%s: %s", p.Endpoint, errText(p.Err))),
			notify.WithDuration(notify.Infinite),
		)
		if id != "" {
			r.unreachable[p.Endpoint] = id
		}
	})

	r.bus.SubscribeAPIRecovered(func(p APIRecoveredPayload) {
		r.mu.Lock()
		id, ok := r.unreachable[p.Endpoint]
		delete(r.unreachable, p.Endpoint)
		r.mu.Unlock()
		if !ok {
			return
		}
		if err := r.toasts.Dismiss(id); err != nil {
			r.logger.Warn().Err(err).Str("endpoint", p.Endpoint).Msg("dismiss unreachable toast")
			return
		}
		r.show(r.toasts.Success, "Connection restored", notify.WithDescription(p.Endpoint))
	})
}

func (r *NotificationRouter) show(fn func(string, ...notify.Option) (string, error), message string, opts ...notify.Option) string {
	id, err := fn(message, opts...)
	if err != nil {
		if !errors.Is(err, toast.ErrNotInitialized) {
			r.logger.Error().Err(err).Str("message", message).Msg("route notification")
		}
		return ""
	}
	return id
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
