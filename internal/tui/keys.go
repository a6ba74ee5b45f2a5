package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of the main view. It implements help.KeyMap.
type keyMap struct {
	Random   key.Binding
	Previous key.Binding
	Next     key.Binding
	Mark     key.Binding
	Unmark   key.Binding
	Delete   key.Binding
	Settings key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Random: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "random"),
		),
		Previous: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Mark: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark"),
		),
		Unmark: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unmark"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Random, k.Mark, k.Settings, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.Random},
		{k.Mark, k.Unmark, k.Delete},
		{k.Settings, k.Help, k.Quit},
	}
}

// panelKeyMap holds the bindings of the settings panel
type panelKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Mode    key.Binding
	Shuffle key.Binding
	Save    key.Binding
	Close   key.Binding
}

func defaultPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "gallery"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "gallery"),
		),
		Mode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "show mode"),
		),
		Shuffle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "shuffle"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Mode, k.Shuffle, k.Save, k.Close}
}

func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
