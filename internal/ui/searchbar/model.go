// Package searchbar is the search input with typeahead suggestions. A
// submitted non-empty query flips the app into the search results view;
// clearing it returns to the board.
package searchbar

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/theme"
)

// minSuggestionLen is the query length at which suggestions start.
const minSuggestionLen = 2

// SubmitMsg carries a submitted search query.
type SubmitMsg struct {
	Query string
}

// ClearMsg signals that the search was dismissed.
type ClearMsg struct{}

// FetchSuggestionsMsg asks the parent to fetch typeahead completions.
type FetchSuggestionsMsg struct {
	Query string
}

// SuggestionsMsg delivers fetched completions back to the bar.
type SuggestionsMsg struct {
	Query       string
	Suggestions api.Suggestions
}

// Model is the search bar component.
type Model struct {
	input       textinput.Model
	suggestions []string
	width       int
}

// New creates a search bar.
func New(width int) Model {
	ti := textinput.New()
	ti.Placeholder = "search emails..."
	ti.Prompt = "/ "
	ti.Width = width - 4

	return Model{
		input: ti,
		width: width,
	}
}

// Focus activates the input for typing.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	m.suggestions = nil
	return m.input.Focus()
}

// Value returns the current input text.
func (m Model) Value() string {
	return m.input.Value()
}

// Update handles key input and suggestion delivery.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SuggestionsMsg:
		// Stale responses for an old prefix are dropped.
		if msg.Query != m.input.Value() {
			return m, nil
		}
		m.suggestions = append(msg.Suggestions.Contacts, msg.Suggestions.Keywords...)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			query := strings.TrimSpace(m.input.Value())
			m.suggestions = nil
			if query == "" {
				return m, func() tea.Msg { return ClearMsg{} }
			}
			return m, func() tea.Msg { return SubmitMsg{Query: query} }

		case "esc":
			m.input.Reset()
			m.suggestions = nil
			return m, func() tea.Msg { return ClearMsg{} }
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		after := m.input.Value()

		if after != before && len(after) >= minSuggestionLen {
			query := after
			return m, tea.Batch(cmd, func() tea.Msg {
				return FetchSuggestionsMsg{Query: query}
			})
		}
		if len(after) < minSuggestionLen {
			m.suggestions = nil
		}
		return m, cmd
	}

	return m, nil
}

// View renders the input line plus any suggestions beneath it.
func (m Model) View() string {
	bar := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Padding(0, 1).
		Render(m.input.View())

	if len(m.suggestions) == 0 {
		return bar
	}

	lines := make([]string, 0, len(m.suggestions)+1)
	lines = append(lines, bar)
	for _, s := range m.suggestions {
		lines = append(lines, theme.HelpStyle.PaddingLeft(3).Render(s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the input width.
func (m *Model) SetSize(width int) {
	m.width = width
	m.input.Width = width - 4
}
