package eventbus_test

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/clock/fakeclock"
	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/eventbus/testbus"
	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/internal/core/toast"
)

func newRouted(t *testing.T) (*testbus.Bus, *toast.Service) {
	t.Helper()
	tb := testbus.NewManual(t)
	svc := toast.New(toast.WithClock(fakeclock.New()))
	t.Cleanup(func() { _ = svc.Close() })
	eventbus.NewNotificationRouter(tb.EventBus, svc, zerolog.Nop()).Register()
	return tb, svc
}

func active(t *testing.T, svc *toast.Service) []notify.Notification {
	t.Helper()
	list, err := svc.List()
	require.NoError(t, err)
	return list
}

func TestNotificationRouter_Mappings(t *testing.T) {
	tests := []struct {
		name        string
		publish     func(bus *eventbus.EventBus)
		kind        notify.Kind
		message     string
		description string
	}{
		{
			name:        "task created",
			publish:     func(b *eventbus.EventBus) { b.PublishTaskCreated(eventbus.TaskCreatedPayload{Title: "Buy milk"}) },
			kind:        notify.KindSuccess,
			message:     "Task created",
			description: "Buy milk",
		},
		{
			name:        "task updated",
			publish:     func(b *eventbus.EventBus) { b.PublishTaskUpdated(eventbus.TaskUpdatedPayload{Title: "Buy oat milk"}) },
			kind:        notify.KindSuccess,
			message:     "Task updated",
			description: "Buy oat milk",
		},
		{
			name:        "task deleted",
			publish:     func(b *eventbus.EventBus) { b.PublishTaskDeleted(eventbus.TaskDeletedPayload{Title: "Buy milk"}) },
			kind:        notify.KindInfo,
			message:     "Task deleted",
			description: "Buy milk",
		},
		{
			name: "task failed",
			publish: func(b *eventbus.EventBus) {
				b.PublishTaskFailed(eventbus.TaskFailedPayload{Operation: "update", Err: errors.New("409 conflict")})
			},
			kind:        notify.KindError,
			message:     "Could not update task",
			description: "409 conflict",
		},
		{
			name:    "signed in",
			publish: func(b *eventbus.EventBus) { b.PublishAuthSignedIn(eventbus.AuthSignedInPayload{User: "ada"}) },
			kind:    notify.KindSuccess,
			message: "Welcome back, ada",
		},
		{
			name:    "signed out",
			publish: func(b *eventbus.EventBus) { b.PublishAuthSignedOut(eventbus.AuthSignedOutPayload{}) },
			kind:    notify.KindInfo,
			message: "Signed out",
		},
		{
			name:        "auth failed without reason",
			publish:     func(b *eventbus.EventBus) { b.PublishAuthFailed(eventbus.AuthFailedPayload{User: "ada"}) },
			kind:        notify.KindError,
			message:     "Sign-in failed",
			description: "check your credentials and try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, svc := newRouted(t)

			tt.publish(tb.EventBus)
			tb.Drain()

			list := active(t, svc)
			require.Len(t, list, 1)
			assert.Equal(t, tt.kind, list[0].Kind)
			assert.Equal(t, tt.message, list[0].Message)
			assert.Equal(t, tt.description, list[0].Description)
			assert.Equal(t, notify.DefaultDuration, list[0].Duration)
		})
	}
}

func TestNotificationRouter_TaskFailedRetryAction(t *testing.T) {
	tb, svc := newRouted(t)

	retried := false
	tb.PublishTaskFailed(eventbus.TaskFailedPayload{
		Operation: "create",
		Err:       errors.New("timeout"),
		Retry:     func() { retried = true },
	})
	tb.Drain()

	list := active(t, svc)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Action)
	assert.Equal(t, "Retry", list[0].Action.Label)

	list[0].Action.Run()
	assert.True(t, retried)
}

func TestNotificationRouter_UnreachableUntilRecovered(t *testing.T) {
	tb, svc := newRouted(t)

	tb.PublishAPIUnreachable(eventbus.APIUnreachablePayload{Endpoint: "/tasks", Err: errors.New("dial tcp: refused")})
	tb.PublishAPIUnreachable(eventbus.APIUnreachablePayload{Endpoint: "/tasks"})
	tb.Drain()

	list := active(t, svc)
	require.Len(t, list, 1, "repeated outages for one endpoint show one toast")
	assert.Equal(t, notify.KindWarning, list[0].Kind)
	assert.True(t, list[0].Persistent())
	assert.Contains(t, list[0].Description, "dial tcp: refused")

	tb.PublishAPIRecovered(eventbus.APIRecoveredPayload{Endpoint: "/tasks"})
	tb.Drain()

	list = active(t, svc)
	require.Len(t, list, 1)
	assert.Equal(t, "Connection restored", list[0].Message)
	assert.Equal(t, notify.KindSuccess, list[0].Kind)
}

func TestNotificationRouter_UnreachableReshownAfterDismiss(t *testing.T) {
	tb, svc := newRouted(t)

	tb.PublishAPIUnreachable(eventbus.APIUnreachablePayload{Endpoint: "/tasks"})
	tb.Drain()
	list := active(t, svc)
	require.Len(t, list, 1)
	require.NoError(t, svc.Dismiss(list[0].ID))

	tb.PublishAPIUnreachable(eventbus.APIUnreachablePayload{Endpoint: "/tasks", Err: errors.New("still down")})
	tb.Drain()

	list = active(t, svc)
	require.Len(t, list, 1, "a dismissed outage toast comes back on the next failure")
	assert.Equal(t, "Server unreachable", list[0].Message)
	assert.Contains(t, list[0].Description, "still down")

	tb.PublishAPIUnreachable(eventbus.APIUnreachablePayload{Endpoint: "/tasks"})
	tb.Drain()
	assert.Len(t, active(t, svc), 1, "the re-shown toast is deduplicated again")

	tb.PublishAPIRecovered(eventbus.APIRecoveredPayload{Endpoint: "/tasks"})
	tb.Drain()
	list = active(t, svc)
	require.Len(t, list, 1)
	assert.Equal(t, "Connection restored", list[0].Message)
}

func TestNotificationRouter_RecoveredWithoutOutageIsSilent(t *testing.T) {
	tb, svc := newRouted(t)

	tb.PublishAPIRecovered(eventbus.APIRecoveredPayload{Endpoint: "/tasks"})
	tb.Drain()

	assert.Empty(t, active(t, svc))
}

func TestNotificationRouter_ClosedServiceIsIgnored(t *testing.T) {
	tb, svc := newRouted(t)
	require.NoError(t, svc.Close())

	tb.PublishTaskCreated(eventbus.TaskCreatedPayload{Title: "late"})
	assert.NotPanics(t, func() { tb.Drain() })
	tb.AssertPublished(t, eventbus.EventTaskCreated)
}

func TestNotificationRouter_NilIsNoop(t *testing.T) {
	var r *eventbus.NotificationRouter
	assert.NotPanics(t, r.Register)
}
