package logging

import "context"

type fieldsKey struct{}

// Fields are correlation ids carried in a context and copied onto log events
// by ContextHook. Empty fields are omitted.
type Fields struct {
	SessionID      string
	NotificationID string
	Scenario       string
}

// WithFields returns ctx carrying f merged over any fields already present.
func WithFields(ctx context.Context, f Fields) context.Context {
	cur := FieldsFrom(ctx)
	if f.SessionID != "" {
		cur.SessionID = f.SessionID
	}
	if f.NotificationID != "" {
		cur.NotificationID = f.NotificationID
	}
	if f.Scenario != "" {
		cur.Scenario = f.Scenario
	}
	return context.WithValue(ctx, fieldsKey{}, cur)
}

// FieldsFrom returns the fields carried by ctx, or the zero value.
func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(Fields)
	return f
}

// WithSessionID adds a toast session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, Fields{SessionID: id})
}

// WithNotificationID adds a notification id to ctx.
func WithNotificationID(ctx context.Context, id string) context.Context {
	return WithFields(ctx, Fields{NotificationID: id})
}
