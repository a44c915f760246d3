package bubbletea

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the results reviewer.
type KeyMap struct {
	// Navigation
	NextScenario key.Binding
	PrevScenario key.Binding
	NextFailing  key.Binding
	PrevFailing  key.Binding
	NextMetric   key.Binding

	// Panels
	StepsPanel  key.Binding
	ReportPanel key.Binding
	TogglePanel key.Binding

	// Scrolling
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	GotoTop      key.Binding
	GotoBottom   key.Binding

	// General
	CopyReport key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings for the results reviewer.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextScenario: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next scenario"),
		),
		PrevScenario: key.NewBinding(
			key.WithKeys("N", "left"),
			key.WithHelp("N", "previous scenario"),
		),
		NextFailing: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "next failing"),
		),
		PrevFailing: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "previous failing"),
		),
		NextMetric: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "switch metric"),
		),
		StepsPanel: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "steps panel"),
		),
		ReportPanel: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "report panel"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch panel"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		CopyReport: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy report"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextScenario, k.PrevScenario, k.NextFailing, k.NextMetric, k.TogglePanel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextScenario, k.PrevScenario, k.NextFailing, k.PrevFailing, k.NextMetric},
		{k.StepsPanel, k.ReportPanel, k.TogglePanel},
		{k.HalfPageUp, k.HalfPageDown, k.GotoTop, k.GotoBottom},
		{k.CopyReport, k.Quit},
	}
}
