package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// confirmModal asks before an image is deleted. Enter or y confirms; Esc cancels.
type confirmModal struct {
	name string
}

func newConfirmModal(name string) *confirmModal {
	return &confirmModal{name: name}
}

func (m *confirmModal) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "esc", "n":
		return func() tea.Msg { return dismissModalMsg{} }
	case "enter", "y":
		return func() tea.Msg { return deleteConfirmedMsg{name: m.name} }
	}
	return nil
}

func (m *confirmModal) View() string {
	content := Styles.TitleWarning.Render("Delete image?") + "\n\n"
	content += Styles.Name.Render(m.name) + "\n\n"
	content += Styles.Hint.Render("y/Enter: confirm  Esc: cancel")
	return Styles.BoxDanger.Render(content)
}
