// Package help renders the expanded shortcut reference, grouped the way
// the app is used: moving around, finding mail, acting on it, shaping
// the board, and switching accounts.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/keys"
	"github.com/mpham/mailboard/internal/theme"
)

// sectionTitles label the binding groups in keys.FullHelp order.
var sectionTitles = []string{
	"Navigate",
	"Find & filter",
	"Mail",
	"Board",
	"Accounts",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the grouped shortcut reference.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorMagenta)

	m.help.Width = m.width - 4

	blocks := []string{titleStyle.Render("Mailboard Shortcuts")}
	for i, group := range m.keys.FullHelp() {
		title := "Other"
		if i < len(sectionTitles) {
			title = sectionTitles[i]
		}
		blocks = append(blocks,
			sectionStyle.Render(title),
			m.help.FullHelpView([][]key.Binding{group}),
			"",
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
