// Package maillist renders one page of emails as a flat list: the search
// results view and the folder listings outside the board. Selection and
// its remote side effects are owned by the navigator; this component only
// translates keys into transitions and renders the result.
package maillist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/keys"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/navigator"
	"github.com/mpham/mailboard/internal/theme"
)

// OpenEmailMsg asks the parent to open the reading pane for an email.
type OpenEmailMsg struct {
	EmailID string
}

// LoadPageMsg asks the parent to fetch another page for the current query.
type LoadPageMsg struct {
	Page int
}

// MarkReadMsg asks the parent to persist a read-state change.
type MarkReadMsg struct {
	EmailID string
}

// StarMsg asks the parent to persist a star-state change.
type StarMsg struct {
	EmailID string
	Starred bool
}

// DeleteMsg asks the parent to delete an email.
type DeleteMsg struct {
	EmailID string
}

// Model is the email list view component.
type Model struct {
	nav    *navigator.Navigator
	keys   *keys.KeyMap
	title  string
	width  int
	height int
}

// New creates an email list over a shared navigator.
func New(nav *navigator.Navigator, k *keys.KeyMap, width, height int) Model {
	return Model{
		nav:    nav,
		keys:   k,
		title:  "Emails",
		width:  width,
		height: height,
	}
}

// SetTitle sets the listing header (folder name or search summary).
func (m *Model) SetTitle(title string) {
	m.title = title
}

// Update translates keys into navigator transitions and forwards their
// effects to the parent as messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		return m, effectCmd(m.nav.Next())
	case key.Matches(keyMsg, m.keys.Up):
		return m, effectCmd(m.nav.Previous())
	case key.Matches(keyMsg, m.keys.Select):
		action := m.nav.Open()
		id, selected := m.nav.SelectedID()
		if !selected {
			return m, nil
		}
		cmds := []tea.Cmd{func() tea.Msg { return OpenEmailMsg{EmailID: id} }}
		if action.Effect == navigator.EffectMarkRead {
			cmds = append(cmds, effectCmd(action))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(keyMsg, m.keys.Star):
		return m, effectCmd(m.nav.Star())
	case key.Matches(keyMsg, m.keys.Delete):
		return m, effectCmd(m.nav.Delete())
	}

	return m, nil
}

// effectCmd maps a navigator action onto the message the parent handles.
func effectCmd(action navigator.Action) tea.Cmd {
	switch action.Effect {
	case navigator.EffectLoadPage:
		return func() tea.Msg { return LoadPageMsg{Page: action.Page} }
	case navigator.EffectMarkRead:
		return func() tea.Msg { return MarkReadMsg{EmailID: action.EmailID} }
	case navigator.EffectStar:
		return func() tea.Msg { return StarMsg{EmailID: action.EmailID, Starred: action.Starred} }
	case navigator.EffectDelete:
		return func() tea.Msg { return DeleteMsg{EmailID: action.EmailID} }
	default:
		return nil
	}
}

// View renders the listing.
func (m Model) View() string {
	emails := m.nav.Emails()
	if len(emails) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No emails here.")
	}

	header := theme.HeaderStyle.Render(
		fmt.Sprintf("%s — page %d", m.title, m.nav.Page()),
	)

	rows := make([]string, 0, len(emails)+1)
	rows = append(rows, header)

	selected := m.nav.SelectedIndex()
	visible := m.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	end := start + visible
	if end > len(emails) {
		end = len(emails)
	}

	for i := start; i < end; i++ {
		rows = append(rows, m.renderRow(emails[i], i == selected))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderRow renders one listing line: flags, sender, subject, relevance.
func (m Model) renderRow(e model.Email, selected bool) string {
	marker := " "
	if !e.IsRead {
		marker = "●"
	}
	star := " "
	if e.IsStarred {
		star = "★"
	}
	attach := " "
	if e.HasAttachments {
		attach = "📎"
	}

	line := fmt.Sprintf("%s%s%s %-24.24s %s", marker, star, attach, e.Sender(), e.Subject)
	if e.RelevanceScore > 0 {
		line += theme.HelpStyle.Render(fmt.Sprintf(" (%.0f%%)", e.RelevanceScore*100))
	}

	style := theme.ListItemStyle
	if selected {
		style = theme.SelectedItemStyle
	}
	if !e.IsRead {
		style = style.Inherit(theme.UnreadStyle)
	}

	return style.MaxWidth(m.width).Render(line)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
