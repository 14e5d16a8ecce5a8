package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/toast/internal/core/notify"
	"github.com/colonyops/toast/pkg/tuitest"
)

type fakeHistory struct {
	items    []notify.Retired
	err      error
	clearErr error
}

func (f *fakeHistory) History() ([]notify.Retired, error) { return f.items, f.err }

func (f *fakeHistory) ClearHistory() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.items = nil
	return nil
}

func retired(msg string, reason notify.Reason) notify.Retired {
	return notify.Retired{
		Notification: notify.Notification{ID: msg, Kind: notify.KindInfo, Message: msg},
		Reason:       reason,
		RetiredAt:    time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestHistoryView_Empty(t *testing.T) {
	h := NewHistoryView(&fakeHistory{}, 100, 30)
	out := tuitest.StripANSI(h.View())
	assert.Contains(t, out, "History")
	assert.Contains(t, out, "No notifications")
}

func TestHistoryView_NilSource(t *testing.T) {
	h := NewHistoryView(nil, 100, 30)
	assert.Contains(t, tuitest.StripANSI(h.View()), "No notifications")
	assert.NoError(t, h.Clear())
}

func TestHistoryView_ListsRetired(t *testing.T) {
	src := &fakeHistory{items: []notify.Retired{
		retired("newest", notify.ReasonDismissed),
		retired("oldest", notify.ReasonExpired),
	}}
	h := NewHistoryView(src, 100, 30)

	out := tuitest.StripANSI(h.View())
	assert.Contains(t, out, "09:30:00")
	assert.Contains(t, out, "newest")
	assert.Contains(t, out, "(dismissed)")
	assert.Contains(t, out, "(expired)")
	assert.Less(t, strings.Index(out, "newest"), strings.Index(out, "oldest"))
}

func TestHistoryView_Clear(t *testing.T) {
	src := &fakeHistory{items: []notify.Retired{retired("gone", notify.ReasonCleared)}}
	h := NewHistoryView(src, 100, 30)

	require.NoError(t, h.Clear())
	assert.Contains(t, tuitest.StripANSI(h.View()), "No notifications")
}

func TestHistoryView_Errors(t *testing.T) {
	src := &fakeHistory{err: errors.New("closed")}
	h := NewHistoryView(src, 100, 30)
	assert.Contains(t, tuitest.StripANSI(h.View()), "failed to load notifications: closed")

	src = &fakeHistory{clearErr: errors.New("nope")}
	h = NewHistoryView(src, 100, 30)
	assert.EqualError(t, h.Clear(), "nope")
}

func TestCalcHistoryWidth(t *testing.T) {
	assert.Equal(t, 60, calcHistoryWidth(80))
	assert.Equal(t, 130, calcHistoryWidth(200))
	assert.Equal(t, 36, calcHistoryWidth(40))
}
