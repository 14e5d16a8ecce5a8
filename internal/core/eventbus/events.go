// Package eventbus provides a typed publish/subscribe event bus that lets
// application code announce what happened without knowing who shows it to
// the user.
package eventbus

// Events defines all event types and their payload structs.
var Events = map[string]any{
	// Keep list sorted A-Z
	"api.recovered":   APIRecoveredPayload{},
	"api.unreachable": APIUnreachablePayload{},
	"auth.failed":     AuthFailedPayload{},
	"auth.signed-in":  AuthSignedInPayload{},
	"auth.signed-out": AuthSignedOutPayload{},
	"task.created":    TaskCreatedPayload{},
	"task.deleted":    TaskDeletedPayload{},
	"task.failed":     TaskFailedPayload{},
	"task.updated":    TaskUpdatedPayload{},
}

// TaskCreatedPayload is emitted after a task is saved for the first time.
type TaskCreatedPayload struct {
	TaskID string
	Title  string
}

// TaskUpdatedPayload is emitted after a task is modified.
type TaskUpdatedPayload struct {
	TaskID string
	Title  string
}

// TaskDeletedPayload is emitted after a task is removed.
type TaskDeletedPayload struct {
	TaskID string
	Title  string
}

// TaskFailedPayload is emitted when a task operation fails. Retry, when set,
// repeats the operation.
type TaskFailedPayload struct {
	Operation string // create, update, delete, load
	Title     string
	Err       error
	Retry     func()
}

// AuthSignedInPayload is emitted after a successful sign-in.
type AuthSignedInPayload struct {
	User string
}

// AuthSignedOutPayload is emitted after the user signs out.
type AuthSignedOutPayload struct {
	User string
}

// AuthFailedPayload is emitted when sign-in is rejected.
type AuthFailedPayload struct {
	User   string
	Reason string
}

// APIUnreachablePayload is emitted when the backend cannot be reached.
type APIUnreachablePayload struct {
	Endpoint string
	Err      error
}

// APIRecoveredPayload is emitted when the backend answers again.
type APIRecoveredPayload struct {
	Endpoint string
}
