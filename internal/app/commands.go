package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/ui/detail"
	"github.com/mpham/mailboard/internal/ui/searchbar"
)

// requestTimeout bounds every remote call fired from the UI.
const requestTimeout = 30 * time.Second

type sessionRestoredMsg struct{ err error }

type sessionExpiredMsg struct{}

type loginResultMsg struct {
	result *api.AuthResult
	err    error
}

type mailboxesLoadedMsg struct {
	mailboxes []model.Mailbox
	err       error
}

type mailboxConnectedMsg struct {
	mailbox *model.Mailbox
	err     error
}

type columnsLoadedMsg struct {
	columns []model.Column
	err     error
}

type emailsLoadedMsg struct {
	page *api.EmailPage
	err  error
}

type emailLoadFailedMsg struct{ err error }

type emailUpdatedMsg struct {
	email *model.Email
	err   error
}

type emailDeletedMsg struct {
	emailID string
	err     error
}

type emailSentMsg struct{ err error }

type moveResultMsg struct {
	emailID string
	err     error
}

type columnsChangedMsg struct{ err error }

type noticeExpiredMsg struct{}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// restoreSession exchanges the stored refresh token for a session.
func (m Model) restoreSession() tea.Cmd {
	sess, auth := m.session, m.services.Auth
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return sessionRestoredMsg{err: sess.Refresh(ctx, auth)}
	}
}

// login exchanges credentials for a session.
func (m Model) login(creds api.Credentials) tea.Cmd {
	auth := m.services.Auth
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		result, err := auth.Login(ctx, creds)
		return loginResultMsg{result: result, err: err}
	}
}

// loadMailboxes fetches the mailbox list once, outside the poll loop.
func (m Model) loadMailboxes() tea.Cmd {
	svc := m.services.Mailboxes
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		mailboxes, err := svc.ListMailboxes(ctx)
		return mailboxesLoadedMsg{mailboxes: mailboxes, err: err}
	}
}

// syncMailbox queues a remote sync for the selected mailbox and then
// re-reads the list so the monitor sees the pending status.
func (m Model) syncMailbox() tea.Cmd {
	svc := m.services.Mailboxes
	id := m.composer.MailboxID()
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		if err := svc.SyncMailbox(ctx, id); err != nil {
			return mailboxesLoadedMsg{err: err}
		}
		mailboxes, err := svc.ListMailboxes(ctx)
		return mailboxesLoadedMsg{mailboxes: mailboxes, err: err}
	}
}

// connectMailbox attaches a new account from a completed OAuth handshake.
func (m Model) connectMailbox(req api.ConnectRequest) tea.Cmd {
	svc := m.services.Mailboxes
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		mailbox, err := svc.ConnectMailbox(ctx, req)
		return mailboxConnectedMsg{mailbox: mailbox, err: err}
	}
}

// loadColumns fetches the board column configuration.
func (m Model) loadColumns() tea.Cmd {
	svc := m.services.Columns
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		columns, err := svc.ListColumns(ctx)
		return columnsLoadedMsg{columns: columns, err: err}
	}
}

// initializeColumns creates the default board layout.
func (m Model) initializeColumns() tea.Cmd {
	svc := m.services.Columns
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		columns, err := svc.InitializeDefaultColumns(ctx)
		return columnsLoadedMsg{columns: columns, err: err}
	}
}

// loadEmails runs the composer's current query: the fuzzy search
// endpoint in search mode, the listing endpoint otherwise.
func (m Model) loadEmails() tea.Cmd {
	svc := m.services.Emails
	if m.composer.SearchQuery() != "" {
		params := m.composer.SearchParams()
		return func() tea.Msg {
			ctx, cancel := withTimeout()
			defer cancel()
			page, err := svc.FuzzySearch(ctx, params)
			return emailsLoadedMsg{page: page, err: err}
		}
	}

	q := m.composer.Descriptor()
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		page, err := svc.ListEmails(ctx, q)
		return emailsLoadedMsg{page: page, err: err}
	}
}

// loadEmail fetches one full email for the reading pane.
func (m Model) loadEmail(id string) tea.Cmd {
	svc := m.services.Emails
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		email, err := svc.GetEmail(ctx, id)
		if err != nil {
			return emailLoadFailedMsg{err: err}
		}
		return detail.EmailLoadedMsg{Email: email}
	}
}

// patchEmail applies a partial update remotely.
func (m Model) patchEmail(id string, patch model.EmailPatch) tea.Cmd {
	svc := m.services.Emails
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		email, err := svc.UpdateEmail(ctx, id, patch)
		return emailUpdatedMsg{email: email, err: err}
	}
}

// deleteEmail removes an email remotely.
func (m Model) deleteEmail(id string) tea.Cmd {
	svc := m.services.Emails
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		err := svc.DeleteEmail(ctx, id)
		return emailDeletedMsg{emailID: id, err: err}
	}
}

// sendEmail delivers a composed draft.
func (m Model) sendEmail(draft model.Draft) tea.Cmd {
	svc := m.services.Emails
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return emailSentMsg{err: svc.SendEmail(ctx, draft)}
	}
}

// moveRemote fires the single mutation of an optimistic move.
func (m Model) moveRemote(emailID string, req api.MoveRequest) tea.Cmd {
	svc := m.services.Columns
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		err := svc.MoveEmailToColumn(ctx, emailID, req)
		return moveResultMsg{emailID: emailID, err: err}
	}
}

// deleteColumn removes a custom column. The backend rejects default
// columns; the caller already guards the common case with a notice.
func (m Model) deleteColumn(id string) tea.Cmd {
	svc := m.services.Columns
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		return columnsChangedMsg{err: svc.DeleteColumn(ctx, id)}
	}
}

// fetchSuggestions loads typeahead completions for the search bar.
func (m Model) fetchSuggestions(q string) tea.Cmd {
	svc := m.services.Emails
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		suggestions, err := svc.GetSearchSuggestions(ctx, q)
		if err != nil || suggestions == nil {
			// Suggestions are best-effort; a failure just shows none.
			return searchbar.SuggestionsMsg{Query: q}
		}
		return searchbar.SuggestionsMsg{Query: q, Suggestions: *suggestions}
	}
}

// saveColumn creates or updates a column.
func (m Model) saveColumn(columnID string, input model.ColumnInput) tea.Cmd {
	svc := m.services.Columns
	return func() tea.Msg {
		ctx, cancel := withTimeout()
		defer cancel()
		var err error
		if columnID == "" {
			_, err = svc.CreateColumn(ctx, input)
		} else {
			_, err = svc.UpdateColumn(ctx, columnID, input)
		}
		return columnsChangedMsg{err: err}
	}
}
