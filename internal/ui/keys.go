package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Refresh    key.Binding

	// View switching
	ViewPins      key.Binding
	ViewSchedules key.Binding
	ViewLogs      key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Actions
	Run       key.Binding
	Stop      key.Binding
	StopAll   key.Binding
	Toggle    key.Binding
	RainLock  key.Binding
	ClearRain key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Refresh now"),
		),

		ViewPins: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Pins"),
		),
		ViewSchedules: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Schedules"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),

		Run: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Run pin"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Stop pin"),
		),
		StopAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Stop all"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "Enable/disable schedule"),
		),
		RainLock: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Rain lock 24h"),
		),
		ClearRain: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Clear rain lock"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Run, k.Stop, k.Toggle, k.RainLock, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewPins, k.ViewSchedules, k.ViewLogs, k.Tab},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Run, k.Stop, k.StopAll, k.Toggle},
		{k.RainLock, k.ClearRain, k.Refresh, k.CycleTheme, k.Quit},
	}
}
