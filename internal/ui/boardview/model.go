// Package boardview renders the kanban partition as side-by-side columns
// and turns move keys into board move requests. It never mutates the
// board itself; the parent owns the optimistic transaction lifecycle.
package boardview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/board"
	"github.com/mpham/mailboard/internal/keys"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/theme"
	"github.com/mpham/mailboard/internal/ui"
)

// MoveRequestedMsg asks the parent to run one optimistic move.
type MoveRequestedMsg struct {
	EmailID     string
	SrcColumnID string
	DstColumnID string
	DstIndex    int
}

// OpenEmailMsg asks the parent to open the reading pane.
type OpenEmailMsg struct {
	EmailID string
}

// StarEmailMsg asks the parent to toggle the star on an email.
type StarEmailMsg struct {
	EmailID string
	Starred bool
}

// DeleteEmailMsg asks the parent to delete an email.
type DeleteEmailMsg struct {
	EmailID string
}

// InitializeColumnsMsg asks the parent to create the default columns.
type InitializeColumnsMsg struct{}

// Model is the kanban board view component.
type Model struct {
	board  *board.Board
	keys   *keys.KeyMap
	col    int // focused column index
	row    int // focused row within the column
	width  int
	height int
}

// New creates a board view over a shared board.
func New(b *board.Board, k *keys.KeyMap, width, height int) Model {
	return Model{
		board:  b,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetBoard swaps the underlying board (after a column config change).
func (m *Model) SetBoard(b *board.Board) {
	m.board = b
	m.col = 0
	m.row = 0
}

// ClampCursor pulls the cursor back inside the partition after a reload
// shrank a column.
func (m *Model) ClampCursor() {
	columns := m.board.Columns()
	if len(columns) == 0 {
		m.col, m.row = 0, 0
		return
	}
	if m.col >= len(columns) {
		m.col = len(columns) - 1
	}
	seq := m.board.Sequence(columns[m.col].ID)
	if m.row >= len(seq) {
		m.row = len(seq) - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// Selected returns the email under the cursor.
func (m Model) Selected() (model.Email, bool) {
	columns := m.board.Columns()
	if m.col >= len(columns) {
		return model.Email{}, false
	}
	seq := m.board.Sequence(columns[m.col].ID)
	if m.row >= len(seq) {
		return model.Email{}, false
	}
	return seq[m.row], true
}

// SelectedColumn returns the column under the cursor.
func (m Model) SelectedColumn() (model.Column, bool) {
	columns := m.board.Columns()
	if m.col >= len(columns) {
		return model.Column{}, false
	}
	return columns[m.col], true
}

// Update handles board navigation and move keys.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	columns := m.board.Columns()
	if len(columns) == 0 {
		if key.Matches(keyMsg, m.keys.Select) {
			return m, func() tea.Msg { return InitializeColumnsMsg{} }
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.ClampCursor()
		}
	case key.Matches(keyMsg, m.keys.Right):
		if m.col < len(columns)-1 {
			m.col++
			m.ClampCursor()
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.row < len(m.board.Sequence(columns[m.col].ID))-1 {
			m.row++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(keyMsg, m.keys.MoveLeft):
		return m, m.moveCmd(columns, m.col-1)
	case key.Matches(keyMsg, m.keys.MoveRight):
		return m, m.moveCmd(columns, m.col+1)
	case key.Matches(keyMsg, m.keys.Select):
		if email, ok := m.Selected(); ok {
			return m, func() tea.Msg { return OpenEmailMsg{EmailID: email.ID} }
		}
	case key.Matches(keyMsg, m.keys.Star):
		if email, ok := m.Selected(); ok {
			starred := !email.IsStarred
			return m, func() tea.Msg { return StarEmailMsg{EmailID: email.ID, Starred: starred} }
		}
	case key.Matches(keyMsg, m.keys.Delete):
		if email, ok := m.Selected(); ok {
			return m, func() tea.Msg { return DeleteEmailMsg{EmailID: email.ID} }
		}
	}

	return m, nil
}

// moveCmd emits a move of the selected email into the neighbor column,
// appended at the end.
func (m Model) moveCmd(columns []model.Column, dstCol int) tea.Cmd {
	if dstCol < 0 || dstCol >= len(columns) {
		return nil
	}
	email, ok := m.Selected()
	if !ok {
		return nil
	}

	src := columns[m.col].ID
	dst := columns[dstCol].ID
	dstIndex := len(m.board.Sequence(dst))

	return func() tea.Msg {
		return MoveRequestedMsg{
			EmailID:     email.ID,
			SrcColumnID: src,
			DstColumnID: dst,
			DstIndex:    dstIndex,
		}
	}
}

// View renders the columns side by side.
func (m Model) View() string {
	columns := m.board.Columns()
	if len(columns) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No board columns yet.\n\nPress enter to create the default board.")
	}

	layout := ui.NewLayout(m.width, m.height)
	colWidth := layout.ColumnWidth(len(columns))

	rendered := make([]string, 0, len(columns))
	for i, col := range columns {
		rendered = append(rendered, m.renderColumn(col, colWidth, i == m.col))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderColumn renders one column with its title, count, and cards.
func (m Model) renderColumn(col model.Column, width int, focused bool) string {
	seq := m.board.Sequence(col.ID)

	title := fmt.Sprintf("%s (%d)", col.Title, len(seq))
	lines := []string{theme.HeaderStyle.MaxWidth(width).Render(title)}

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 1
	}

	start := 0
	if focused && m.row >= maxRows {
		start = m.row - maxRows + 1
	}
	end := start + maxRows
	if end > len(seq) {
		end = len(seq)
	}

	for i := start; i < end; i++ {
		lines = append(lines, m.renderCard(seq[i], width, focused && i == m.row))
	}
	if len(seq) == 0 {
		lines = append(lines, theme.HelpStyle.Render("empty"))
	}

	style := theme.ColumnStyle
	if focused {
		style = theme.FocusedColumnStyle
	}

	return style.
		Width(width).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderCard renders one email as a single board line.
func (m Model) renderCard(e model.Email, width int, selected bool) string {
	marker := " "
	if !e.IsRead {
		marker = "●"
	}
	star := ""
	if e.IsStarred {
		star = "★ "
	}

	line := fmt.Sprintf("%s %s%s — %s", marker, star, e.Sender(), e.Subject)

	style := theme.ListItemStyle
	if selected {
		style = theme.SelectedItemStyle
	}
	if !e.IsRead {
		style = style.Inherit(theme.UnreadStyle)
	}

	return style.MaxWidth(width).Render(line)
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
