package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Success    key.Binding
	Error      key.Binding
	Warning    key.Binding
	Info       key.Binding
	Persistent key.Binding
	WithAction key.Binding
	Event      key.Binding
	Dismiss    key.Binding
	DismissAll key.Binding
	Run        key.Binding
	History    key.Binding
	Clear      key.Binding
	Up         key.Binding
	Down       key.Binding
	Close      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Success:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "success")),
		Error:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "error")),
		Warning:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "warning")),
		Info:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "info")),
		Persistent: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "sticky")),
		WithAction: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "with action")),
		Event:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "app event")),
		Dismiss:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss newest")),
		DismissAll: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "dismiss all")),
		Run:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run action")),
		History:    key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "history")),
		Clear:      key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear history")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Success, k.Error, k.Dismiss, k.Run, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Success, k.Error, k.Warning, k.Info},
		{k.Persistent, k.WithAction, k.Event},
		{k.Dismiss, k.DismissAll, k.Run},
		{k.History, k.Help, k.Quit},
	}
}
