// Package connectform is the huh-based form that attaches a new mailbox
// account. The OAuth handshake happens in the browser; this form accepts
// the authorization code (and PKCE verifier) the handshake yields.
package connectform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/theme"
)

// SubmitMsg carries the completed connect request.
type SubmitMsg struct {
	Request api.ConnectRequest
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	code     string
	verifier string
}

// Model is the Bubble Tea model for the connect-mailbox form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a connect form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh form.
func (m *Model) Start() tea.Cmd {
	m.fb.code = ""
	m.fb.verifier = ""
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Authorization code").
				Description("Paste the code from the provider's consent page").
				Value(&m.fb.code).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("authorization code is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Code verifier (optional)").
				Value(&m.fb.verifier),
		),
	).WithWidth(min(m.width-4, 72))
}

// Update handles messages for the connect form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		req := api.ConnectRequest{
			Code:         strings.TrimSpace(m.fb.code),
			CodeVerifier: strings.TrimSpace(m.fb.verifier),
		}
		return m, func() tea.Msg { return SubmitMsg{Request: req} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the connect form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Connect Mailbox") + "\n" + m.form.View())
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
