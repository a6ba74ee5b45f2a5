package tui

import (
	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/session"
)

// viewMsg carries the result of an operation that ran as a command
type viewMsg struct {
	op    string
	view  session.View
	err   error
	saved bool
}

// galleriesMsg is sent when the gallery list for the settings panel arrives
type galleriesMsg struct {
	galleries []gallery.Gallery
	err       error
}

// saveSettingsMsg is sent by the settings panel on Enter
type saveSettingsMsg struct {
	settings gallery.Settings
}

// deleteConfirmedMsg is sent by the confirm modal
type deleteConfirmedMsg struct {
	name string
}

// dismissModalMsg closes whichever modal is open
type dismissModalMsg struct{}
