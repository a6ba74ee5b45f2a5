package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gallery-viewer/internal/domain/gallery"
)

// settingsPanel edits the gallery, the show mode and the shuffle flag
type settingsPanel struct {
	keys    panelKeyMap
	help    help.Model
	spinner spinner.Model

	loading   bool
	err       error
	galleries []gallery.Gallery
	cursor    int
	mode      int
	shuffle   bool
	selected  string
}

func newSettingsPanel(current gallery.Settings) *settingsPanel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = Styles.Position

	mode := slices.Index(gallery.ShowModes, current.ShowMode)
	if mode < 0 {
		mode = 0
	}

	return &settingsPanel{
		keys:     defaultPanelKeyMap(),
		help:     help.New(),
		spinner:  s,
		loading:  true,
		mode:     mode,
		shuffle:  current.ShufflePicsWhenLoaded,
		selected: current.SelectedGallery,
	}
}

// setGalleries fills the list and puts the cursor on the selected gallery
func (p *settingsPanel) setGalleries(galleries []gallery.Gallery, err error) {
	p.loading = false
	p.err = err
	p.galleries = galleries
	p.cursor = max(0, slices.IndexFunc(galleries, func(g gallery.Gallery) bool {
		return g.Slug == p.selected
	}))
}

func (p *settingsPanel) settings() gallery.Settings {
	var slug string
	if p.cursor < len(p.galleries) {
		slug = p.galleries[p.cursor].Slug
	}
	return gallery.Settings{
		SelectedGallery:       slug,
		ShowMode:              gallery.ShowModes[p.mode],
		ShufflePicsWhenLoaded: p.shuffle,
	}
}

func (p *settingsPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.loading {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Close):
			return func() tea.Msg { return dismissModalMsg{} }
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.galleries)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Mode):
			p.mode = (p.mode + 1) % len(gallery.ShowModes)
		case key.Matches(msg, p.keys.Shuffle):
			p.shuffle = !p.shuffle
		case key.Matches(msg, p.keys.Save):
			if p.loading || len(p.galleries) == 0 {
				return nil
			}
			settings := p.settings()
			return func() tea.Msg { return saveSettingsMsg{settings: settings} }
		}
	}
	return nil
}

func (p *settingsPanel) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Settings") + "\n\n")

	switch {
	case p.loading:
		b.WriteString(p.spinner.View() + " loading galleries\n")
	case p.err != nil:
		b.WriteString(Styles.TitleWarning.Render(p.err.Error()) + "\n")
	case len(p.galleries) == 0:
		b.WriteString(Styles.Empty.Render("no galleries") + "\n")
	default:
		for i, g := range p.galleries {
			line := g.Title
			if g.Pinned {
				line = "★ " + line
			}
			if i == p.cursor {
				b.WriteString(Styles.Selected.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	shuffle := "off"
	if p.shuffle {
		shuffle = "on"
	}
	fmt.Fprintf(&b, "\nShow: %s\nShuffle when loaded: %s\n\n",
		Styles.Selected.Render(string(gallery.ShowModes[p.mode])), shuffle)
	b.WriteString(p.help.View(p.keys))

	return Styles.BoxCompact.Render(b.String())
}
