package tui

import (
	"time"

	"github.com/colonyops/toast/internal/core/notify"
)

const (
	defaultMaxVisible = 5
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 50
)

// ToastController mirrors the service's active list for rendering. The
// service owns expiry; the controller only decides what is visible.
type ToastController struct {
	toasts     []notify.Notification
	maxVisible int
	ticking    bool
}

func NewToastController(maxVisible int) *ToastController {
	if maxVisible <= 0 {
		maxVisible = defaultMaxVisible
	}
	return &ToastController{maxVisible: maxVisible}
}

// Sync replaces the mirrored list with the latest broadcast.
func (c *ToastController) Sync(list []notify.Notification) {
	c.toasts = list
}

// HasToasts returns true if there are any active toasts.
func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// Toasts returns the visible toasts, oldest first. When more are active than
// fit, the newest ones are shown.
func (c *ToastController) Toasts() []notify.Notification {
	if len(c.toasts) > c.maxVisible {
		return c.toasts[len(c.toasts)-c.maxVisible:]
	}
	return c.toasts
}

// Hidden returns how many active toasts do not fit on screen.
func (c *ToastController) Hidden() int {
	return max(len(c.toasts)-c.maxVisible, 0)
}

// Newest returns the bottom-most toast.
func (c *ToastController) Newest() (notify.Notification, bool) {
	if len(c.toasts) == 0 {
		return notify.Notification{}, false
	}
	return c.toasts[len(c.toasts)-1], true
}

// NewestWithAction returns the most recent toast that carries an action.
func (c *ToastController) NewestWithAction() (notify.Notification, bool) {
	for i := len(c.toasts) - 1; i >= 0; i-- {
		if c.toasts[i].Action != nil {
			return c.toasts[i], true
		}
	}
	return notify.Notification{}, false
}

// NeedsTick reports whether any toast has a countdown to animate.
func (c *ToastController) NeedsTick() bool {
	for _, n := range c.toasts {
		if !n.Persistent() {
			return true
		}
	}
	return false
}

// Ticking returns whether the tick timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}

// progress returns the fraction of n's lifetime left at now, in [0, 1].
// Persistent toasts report 1.
func progress(n notify.Notification, now time.Time) float64 {
	if n.Persistent() {
		return 1
	}
	return min(max(float64(n.Remaining(now))/float64(n.Duration), 0), 1)
}
