package logging

import "github.com/rs/zerolog"

// ContextHook copies the Fields of an event's context onto the event.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	f := FieldsFrom(e.GetCtx())
	if f.SessionID != "" {
		e.Str("session_id", f.SessionID)
	}
	if f.NotificationID != "" {
		e.Str("notification_id", f.NotificationID)
	}
	if f.Scenario != "" {
		e.Str("scenario", f.Scenario)
	}
}
