package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/toast/internal/core/config"
)

const appName = "toast"

// Flags carries the global CLI options shared by every subcommand.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is set by the root Before hook. Nil when a command runs
	// outside the app, as in tests.
	Config *config.Config
}

// Settings returns the loaded config, or the defaults when none was loaded.
func (f *Flags) Settings() *config.Config {
	if f == nil || f.Config == nil {
		cfg := config.DefaultConfig()
		return &cfg
	}
	return f.Config
}

// DefaultConfigPath is $XDG_CONFIG_HOME/toast/config.yaml, falling back to
// ~/.config.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.yaml")
}

// DefaultLogFile is $XDG_STATE_HOME/toast/toast.log. Without XDG_STATE_HOME
// macOS uses ~/Library/Logs and everything else ~/.local/state.
func DefaultLogFile() string {
	base := xdgDir("XDG_STATE_HOME", ".local", "state")
	if os.Getenv("XDG_STATE_HOME") == "" && runtime.GOOS == "darwin" {
		base = filepath.Join(homeDir(), "Library", "Logs")
	}
	return filepath.Join(base, appName, appName+".log")
}

// xdgDir returns the value of env, or fallback joined under the home dir.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return filepath.Join(append([]string{homeDir()}, fallback...)...)
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}
