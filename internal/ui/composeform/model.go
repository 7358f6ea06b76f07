// Package composeform is the huh-based form for writing a new email or a
// reply.
package composeform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/theme"
)

// SubmitMsg carries a finished draft for sending.
type SubmitMsg struct {
	Draft model.Draft
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to      string
	cc      string
	subject string
	body    string
}

// Model is the Bubble Tea model for the compose form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	mailboxID string
	inReplyTo string
	replyMode bool
	width     int
	height    int
}

// New creates a compose form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCompose initializes a blank form for a new message.
func (m *Model) StartCompose(mailboxID string) tea.Cmd {
	m.mailboxID = mailboxID
	m.inReplyTo = ""
	m.replyMode = false
	m.fb.to = ""
	m.fb.cc = ""
	m.fb.subject = ""
	m.fb.body = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartReply initializes the form as a reply to an existing email.
func (m *Model) StartReply(mailboxID string, original model.Email) tea.Cmd {
	m.mailboxID = mailboxID
	m.inReplyTo = original.ID
	m.replyMode = true
	m.fb.to = original.FromEmail
	m.fb.cc = ""
	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	m.fb.subject = subject
	m.fb.body = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// buildForm assembles the huh form over the current bindings.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Description("comma-separated addresses").
				Value(&m.fb.to).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("at least one recipient is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Cc").
				Value(&m.fb.cc),
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject),
			huh.NewText().
				Title("Body").
				Value(&m.fb.body),
		),
	).WithWidth(min(m.width-4, 80))
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// handleSubmit assembles the draft and hands it to the parent.
func (m Model) handleSubmit() tea.Cmd {
	draft := model.Draft{
		MailboxID: m.mailboxID,
		To:        splitAddresses(m.fb.to),
		Cc:        splitAddresses(m.fb.cc),
		Subject:   m.fb.subject,
		Body:      m.fb.body,
		InReplyTo: m.inReplyTo,
	}
	return func() tea.Msg { return SubmitMsg{Draft: draft} }
}

// splitAddresses parses a comma-separated address list.
func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Email"
	if m.replyMode {
		titleText = "Reply"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
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
