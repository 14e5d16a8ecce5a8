package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, tty bool, w, h int, sizeErr error, colorterm string) {
	t.Helper()
	origTTY, origSize, origEnv := isTerminalFunc, getSizeFunc, getenvFunc
	t.Cleanup(func() {
		isTerminalFunc, getSizeFunc, getenvFunc = origTTY, origSize, origEnv
	})

	isTerminalFunc = func(int) bool { return tty }
	getSizeFunc = func(int) (int, int, error) { return w, h, sizeErr }
	getenvFunc = func(key string) string {
		if key == "COLORTERM" {
			return colorterm
		}
		return ""
	}
}

func TestTerminalCheck_NotATerminal(t *testing.T) {
	stubTerminal(t, false, 0, 0, nil, "")

	result := NewTerminalCheck(1, 50).Run(context.Background())
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusWarn, result.Items[0].Status)
}

func TestTerminalCheck_AllGood(t *testing.T) {
	stubTerminal(t, true, 120, 40, nil, "truecolor")

	result := NewTerminalCheck(1, 50).Run(context.Background())
	require.Len(t, result.Items, 3)
	for _, item := range result.Items {
		assert.Equal(t, StatusPass, item.Status, item.Label)
	}
	assert.Equal(t, "120x40", result.Items[1].Detail)
}

func TestTerminalCheck_Narrow(t *testing.T) {
	stubTerminal(t, true, 40, 20, nil, "")

	result := NewTerminalCheck(1, 50).Run(context.Background())
	require.Len(t, result.Items, 3)
	assert.Equal(t, StatusWarn, result.Items[1].Status)
	assert.Contains(t, result.Items[1].Detail, "narrower than tui.width (50)")
	assert.Equal(t, StatusWarn, result.Items[2].Status)
}

func TestTerminalCheck_SizeError(t *testing.T) {
	stubTerminal(t, true, 0, 0, errors.New("ioctl failed"), "24bit")

	result := NewTerminalCheck(1, 50).Run(context.Background())
	assert.Equal(t, "ioctl failed", result.Items[1].Detail)
	assert.Equal(t, StatusPass, result.Items[2].Status)
}
