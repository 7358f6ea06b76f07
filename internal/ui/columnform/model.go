// Package columnform is the huh-based form for creating or editing a
// board column.
package columnform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/theme"
)

// SavedMsg carries the finished column input. ColumnID is empty when
// creating.
type SavedMsg struct {
	ColumnID string
	Input    model.ColumnInput
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title      string
	label      string
	color      string
	orderIndex string
}

// Model is the Bubble Tea model for the column form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a column form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new column appended at the
// given order index.
func (m *Model) StartCreate(nextOrder int) tea.Cmd {
	m.editMode = false
	m.editID = ""
	m.fb.title = ""
	m.fb.label = ""
	m.fb.color = ""
	m.fb.orderIndex = strconv.Itoa(nextOrder)
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing column.
func (m *Model) StartEdit(col model.Column) tea.Cmd {
	m.editMode = true
	m.editID = col.ID
	m.fb.title = col.Title
	m.fb.label = col.GmailLabelID
	m.fb.color = col.Color
	m.fb.orderIndex = strconv.Itoa(col.OrderIndex)
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	labelOptions := []huh.Option[string]{
		huh.NewOption("(none)", ""),
		huh.NewOption("Inbox", model.LabelInbox),
		huh.NewOption("Starred", model.LabelStarred),
		huh.NewOption("Important", model.LabelImportant),
		huh.NewOption("Archive", model.LabelArchive),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Gmail label").
				Options(labelOptions...).
				Value(&m.fb.label),
			huh.NewInput().
				Title("Color").
				Description("hex value, e.g. #5B9BD5").
				Value(&m.fb.color),
			huh.NewInput().
				Title("Position").
				Value(&m.fb.orderIndex).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("position must be a number")
					}
					return nil
				}),
		),
	).WithWidth(min(m.width-4, 60))
}

// Update handles messages for the column form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		order, _ := strconv.Atoi(strings.TrimSpace(m.fb.orderIndex))
		input := model.ColumnInput{
			Title:        m.fb.title,
			GmailLabelID: m.fb.label,
			Color:        m.fb.color,
			OrderIndex:   order,
		}
		id := m.editID
		return m, func() tea.Msg { return SavedMsg{ColumnID: id, Input: input} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the column form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Column"
	if m.editMode {
		titleText = "Edit Column"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(titleText) + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
