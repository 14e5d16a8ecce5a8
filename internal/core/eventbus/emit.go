package eventbus

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// EventNames returns the names of all known events, sorted.
func EventNames() []string {
	names := make([]string, 0, len(Events))
	for name := range Events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Emit publishes the named event with a payload built from string
// attributes. It serves callers that only have text, such as scenario files
// and the demo. Recognized attributes: id, title, operation, error, user,
// reason, endpoint.
func (bus *EventBus) Emit(name string, attrs map[string]string) error {
	if !slices.Contains(EventNames(), name) {
		return fmt.Errorf("unknown event %q", name)
	}

	var err error
	if msg := attrs["error"]; msg != "" {
		err = errors.New(msg)
	}

	switch Event(name) {
	case EventTaskCreated:
		bus.PublishTaskCreated(TaskCreatedPayload{TaskID: attrs["id"], Title: attrs["title"]})
	case EventTaskUpdated:
		bus.PublishTaskUpdated(TaskUpdatedPayload{TaskID: attrs["id"], Title: attrs["title"]})
	case EventTaskDeleted:
		bus.PublishTaskDeleted(TaskDeletedPayload{TaskID: attrs["id"], Title: attrs["title"]})
	case EventTaskFailed:
		bus.PublishTaskFailed(TaskFailedPayload{Operation: attrs["operation"], Title: attrs["title"], Err: err})
	case EventAuthSignedIn:
		bus.PublishAuthSignedIn(AuthSignedInPayload{User: attrs["user"]})
	case EventAuthSignedOut:
		bus.PublishAuthSignedOut(AuthSignedOutPayload{User: attrs["user"]})
	case EventAuthFailed:
		bus.PublishAuthFailed(AuthFailedPayload{User: attrs["user"], Reason: attrs["reason"]})
	case EventAPIUnreachable:
		bus.PublishAPIUnreachable(APIUnreachablePayload{Endpoint: attrs["endpoint"], Err: err})
	case EventAPIRecovered:
		bus.PublishAPIRecovered(APIRecoveredPayload{Endpoint: attrs["endpoint"]})
	}
	return nil
}
