package notify

import "time"

// Reason records why a notification left the Store.
type Reason string

const (
	ReasonExpired   Reason = "expired"
	ReasonDismissed Reason = "dismissed"
	ReasonEvicted   Reason = "evicted"
	ReasonCleared   Reason = "cleared"
)

// Retired is a notification that is no longer active.
type Retired struct {
	Notification
	Reason    Reason
	RetiredAt time.Time
}

// history is a bounded ring of retired notifications. Not safe for
// concurrent use; the Store guards it.
type history struct {
	limit int
	items []Retired
}

func (h *history) add(r Retired) {
	if h.limit <= 0 {
		return
	}
	h.items = append(h.items, r)
	if len(h.items) > h.limit {
		h.items = h.items[len(h.items)-h.limit:]
	}
}

// newestFirst returns a copy of the history in reverse retirement order.
func (h *history) newestFirst() []Retired {
	out := make([]Retired, len(h.items))
	for i, r := range h.items {
		out[len(h.items)-1-i] = r
	}
	return out
}

func (h *history) clear() {
	h.items = nil
}
