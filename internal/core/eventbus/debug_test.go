package eventbus_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/toast/internal/core/eventbus"
	"github.com/colonyops/toast/internal/core/eventbus/testbus"
)

func TestRegisterDebugLogger(t *testing.T) {
	var buf bytes.Buffer
	tb := testbus.NewManual(t)

	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.New(&buf))

	tb.SubscribeTaskCreated(func(eventbus.TaskCreatedPayload) { panic("boom") })
	tb.PublishTaskCreated(eventbus.TaskCreatedPayload{Title: "write docs"})
	tb.PublishAuthSignedOut(eventbus.AuthSignedOutPayload{})
	tb.Drain()

	out := buf.String()
	assert.Contains(t, out, "event subscriber added")
	assert.Contains(t, out, `"event":"task.created"`)
	assert.Contains(t, out, "eventbus.TaskCreatedPayload")
	assert.Contains(t, out, "subscriber panicked")
	assert.Contains(t, out, `"event":"auth.signed-out"`)
}
