// Package detail is the reading pane for one opened email.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/keys"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/theme"
)

// BackMsg signals the parent to close the reading pane.
type BackMsg struct{}

// EmailLoadedMsg carries the fully fetched email (with body).
type EmailLoadedMsg struct {
	Email *model.Email
}

// ReplyMsg asks the parent to open the compose form pre-filled as a reply.
type ReplyMsg struct {
	Email model.Email
}

// Model is the reading pane component.
type Model struct {
	email    *model.Email
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a reading pane model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// StartLoading clears the pane while the body fetch is in flight.
func (m *Model) StartLoading() {
	m.loading = true
	m.email = nil
}

// Update handles messages for the reading pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailLoadedMsg:
		m.email = msg.Email
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Compose):
			if m.email != nil {
				email := *m.email
				return m, func() tea.Msg { return ReplyMsg{Email: email} }
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reading pane.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading email...")
	}
	if m.email == nil {
		return ""
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(m.viewport.View())
}

// renderContent builds the header block and body text.
func (m Model) renderContent() string {
	e := m.email

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	b.WriteString(titleStyle.Render(e.Subject))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("From: "))
	b.WriteString(fmt.Sprintf("%s <%s>\n", e.FromName, e.FromEmail))
	b.WriteString(labelStyle.Render("Date: "))
	b.WriteString(e.ReceivedAt.Format("Mon, 2 Jan 2006 15:04"))
	b.WriteString("\n")

	if e.Category != "" {
		b.WriteString(labelStyle.Render("Category: "))
		b.WriteString(theme.CategoryStyle(string(e.Category)).Render(string(e.Category)))
		b.WriteString("\n")
	}
	if e.TaskStatus != model.TaskStatusNone {
		b.WriteString(labelStyle.Render("Status: "))
		b.WriteString(theme.StatusStyle(string(e.TaskStatus)).Render(string(e.TaskStatus)))
		b.WriteString("\n")
	}
	if e.AISummary != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Summary: "))
		b.WriteString(e.AISummary)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(1, m.width-8)))
	b.WriteString("\n\n")

	if e.Body != "" {
		b.WriteString(e.Body)
	} else {
		b.WriteString(e.Snippet)
	}

	return b.String()
}

// SetSize updates the reading pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 8
	m.viewport.Height = height - 4
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
