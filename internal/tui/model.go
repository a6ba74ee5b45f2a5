// Package tui is the terminal front end of the viewer. Local navigation runs
// inline; calls to the picker service run as commands and come back as messages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gallery-viewer/internal/domain/gallery"
	"gallery-viewer/internal/observability"
	"gallery-viewer/internal/session"
)

// modal is an overlay that takes the keys while it is open
type modal interface {
	Update(msg tea.Msg) tea.Cmd
	View() string
}

// Model is the bubbletea model of the terminal viewer
type Model struct {
	ctx     context.Context
	session *session.Session
	service gallery.Service
	logger  *observability.Logger

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	view    session.View
	err     error
	pending int
	modal   modal
	width   int
}

// New creates the model. Init runs the startup chain.
func New(ctx context.Context, s *session.Session, service gallery.Service, logger *observability.Logger) Model {
	if logger == nil {
		logger = observability.NopLogger()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = Styles.Position

	return Model{
		ctx:     ctx,
		session: s,
		service: service,
		logger:  logger,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		view:    session.View{Index: -1},
		pending: 1,
	}
}

// Run starts the terminal viewer and blocks until the user quits
func Run(ctx context.Context, s *session.Session, service gallery.Service, logger *observability.Logger, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, s, service, logger), opts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal viewer: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run("start", m.session.Start))
}

// run executes a session operation as a command
func (m Model) run(op string, fn func(ctx context.Context) (session.View, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		view, err := fn(ctx)
		return viewMsg{op: op, view: view, err: err}
	}
}

func (m Model) saveSettings(settings gallery.Settings) tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		saved, view, err := s.SaveSettings(ctx, settings)
		return viewMsg{op: "save_settings", view: view, err: err, saved: saved}
	}
}

func (m Model) listGalleries() tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		galleries, err := service.ListGalleries(ctx)
		return galleriesMsg{galleries: galleries, err: err}
	}
}

// busy starts a command and keeps the spinner going while it runs
func (m Model) busy(cmd tea.Cmd) (Model, tea.Cmd) {
	m.pending++
	if m.pending == 1 {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.pending > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.modal != nil {
			cmds = append(cmds, m.modal.Update(msg))
		}
		return m, tea.Batch(cmds...)

	case viewMsg:
		return m.applyView(msg)

	case galleriesMsg:
		if panel, ok := m.modal.(*settingsPanel); ok {
			panel.setGalleries(msg.galleries, msg.err)
		}
		if msg.err != nil {
			m.logger.Warn(m.ctx).Err(msg.err).Msg("Failed to list galleries")
		}
		return m, nil

	case dismissModalMsg:
		m.modal = nil
		return m, nil

	case deleteConfirmedMsg:
		m.modal = nil
		m.logger.Info(m.ctx).Str("image", msg.name).Msg("Deleting image")
		return m.busy(m.run("delete", m.session.DeleteCurrent))

	case saveSettingsMsg:
		m.modal = nil
		return m.busy(m.saveSettings(msg.settings))

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (m.modal == nil || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		if m.modal != nil {
			return m, m.modal.Update(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Random):
		m.show(m.session.SelectRandom())
	case key.Matches(msg, m.keys.Previous):
		m.show(m.session.SelectPrevious())
	case key.Matches(msg, m.keys.Next):
		m.show(m.session.SelectNext())
	case key.Matches(msg, m.keys.Mark):
		return m.busy(m.run("mark", m.session.MarkCurrent))
	case key.Matches(msg, m.keys.Unmark):
		return m.busy(m.run("unmark", m.session.UnmarkCurrent))
	case key.Matches(msg, m.keys.Delete):
		if m.view.Image == nil {
			m.err = session.ErrNoImageSelected
			return m, nil
		}
		m.modal = newConfirmModal(m.view.Image.Name)
	case key.Matches(msg, m.keys.Settings):
		panel := newSettingsPanel(m.session.Settings())
		m.modal = panel
		return m, tea.Batch(m.listGalleries(), panel.spinner.Tick)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// show replaces the drawn view and clears a previous error
func (m *Model) show(view session.View) {
	m.view = view
	m.err = nil
}

func (m Model) applyView(msg viewMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.view = msg.view

	switch {
	case msg.err == nil:
		m.err = nil
		m.logger.Debug(m.ctx).
			Str("op", msg.op).
			Int("position", msg.view.Position()).
			Int("count", msg.view.Count).
			Msg("View updated")
	case errors.Is(msg.err, session.ErrStaleResponse):
		// a newer operation replaced the list; its own message follows
		m.logger.Debug(m.ctx).Str("op", msg.op).Msg("Stale response dropped")
	case gallery.IsExpected(msg.err):
		m.err = msg.err
		m.logger.Info(m.ctx).Str("op", msg.op).Err(msg.err).Msg("Nothing to show")
	default:
		m.err = msg.err
		m.logger.Error(m.ctx).Str("op", msg.op).Err(msg.err).Msg("Operation failed")
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := Styles.Title.Render("Gallery Viewer")
	if settings := m.view.Settings; settings.SelectedGallery != "" {
		title += Styles.Muted.Render(fmt.Sprintf("  %s · %s", settings.SelectedGallery, settings.ShowMode))
	}
	if m.pending > 0 {
		title += " " + m.spinner.View()
	}
	b.WriteString(title + "\n")

	if m.modal != nil {
		b.WriteString(m.modal.View() + "\n")
	} else {
		b.WriteString(m.imageView() + "\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// imageView renders the drawn image, or the error box that replaces it
func (m Model) imageView() string {
	if m.err != nil {
		box := Styles.BoxDanger
		if gallery.IsExpected(m.err) {
			box = Styles.BoxNotice
		}
		return box.Render(errorMessage(m.err))
	}

	if m.view.Empty() {
		if m.pending > 0 {
			return Styles.Box.Render(Styles.Empty.Render("loading..."))
		}
		return Styles.Box.Render(Styles.Empty.Render("No image selected"))
	}
	img := m.view.Image

	name := Styles.Name.Render(img.Name)
	if img.Marked {
		name += " " + Styles.Marked.Render("[marked]")
	}
	if img.IsFav {
		name += " " + Styles.Selected.Render("♥")
	}

	lines := []string{
		name,
		Styles.Position.Render(fmt.Sprintf("%d / %d", m.view.Position(), m.view.Count)),
		Styles.Muted.Render(img.ModDate.Local().Format("2006-01-02 15:04")),
		Styles.Muted.Render(img.URL),
	}
	return Styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// errorMessage drops the operation prefixes from expected conditions
func errorMessage(err error) string {
	switch {
	case errors.Is(err, gallery.ErrEmptyResult):
		return gallery.ErrEmptyResult.Error()
	case errors.Is(err, gallery.ErrConfigurationRequired):
		return gallery.ErrConfigurationRequired.Error() + " (press s)"
	default:
		return err.Error()
	}
}
