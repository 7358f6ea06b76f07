// Package app is the root Bubble Tea model: it routes messages between
// the views, owns the query composer, board, navigator, and sync
// monitor, and runs every remote mutation through typed result messages.
package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/board"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/navigator"
	"github.com/mpham/mailboard/internal/query"
	"github.com/mpham/mailboard/internal/session"
	appsync "github.com/mpham/mailboard/internal/sync"
	"github.com/mpham/mailboard/internal/ui"
	"github.com/mpham/mailboard/internal/ui/boardview"
	"github.com/mpham/mailboard/internal/ui/columnform"
	"github.com/mpham/mailboard/internal/ui/composeform"
	"github.com/mpham/mailboard/internal/ui/connectform"
	"github.com/mpham/mailboard/internal/ui/detail"
	helpview "github.com/mpham/mailboard/internal/ui/help"
	"github.com/mpham/mailboard/internal/ui/loginform"
	"github.com/mpham/mailboard/internal/ui/maillist"
	"github.com/mpham/mailboard/internal/ui/searchbar"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBoard ViewState = iota
	ViewList
	ViewDetail
	ViewCompose
	ViewColumnForm
	ViewConnect
	ViewLogin
	ViewHelp
)

// Services bundles the four remote collaborators the app talks to. In
// standalone mode all four are backed by the same IMAP service.
type Services struct {
	Auth      api.AuthService
	Mailboxes api.MailboxService
	Emails    api.EmailService
	Columns   api.ColumnService
}

// folderCycle is the order the folder key walks through.
var folderCycle = []query.Folder{
	query.FolderInbox,
	query.FolderFavorites,
	query.FolderDrafts,
	query.FolderSent,
	query.FolderArchive,
	query.FolderSpam,
	query.FolderBin,
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the remote services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ready        bool

	services Services
	session  *session.Session // nil in standalone mode
	keys     *KeyMap

	composer *query.Composer
	nav      *navigator.Navigator
	board    *board.Board
	monitor  *appsync.Monitor

	// pendingMoves holds the open transaction per in-flight move so the
	// remote result can settle exactly one of commit or rollback.
	pendingMoves map[string]*board.MoveTxn

	mailboxes []model.Mailbox

	boardView   boardview.Model
	listView    maillist.Model
	detailView  detail.Model
	searchBar   searchbar.Model
	compose     composeform.Model
	columnForm  columnform.Model
	connectForm connectform.Model
	loginForm   loginform.Model
	helpView    helpview.Model

	searchFocused bool
	notice        string
}

// New creates the root application model.
func New(services Services, sess *session.Session, pageSize int) Model {
	k := DefaultKeyMap()
	nav := navigator.New()
	b := board.New(nil)

	view := ViewBoard
	if sess != nil {
		view = ViewLogin
	}

	return Model{
		currentView:  view,
		services:     services,
		session:      sess,
		keys:         k,
		composer:     query.New(pageSize),
		nav:          nav,
		board:        b,
		monitor:      appsync.NewMonitor(services.Mailboxes),
		pendingMoves: make(map[string]*board.MoveTxn),
		boardView:    boardview.New(b, k, 80, 24),
		listView:     maillist.New(nav, k, 80, 24),
		detailView:   detail.New(k, 80, 24),
		searchBar:    searchbar.New(80),
		compose:      composeform.New(80, 24),
		columnForm:   columnform.New(80, 24),
		connectForm:  connectform.New(80, 24),
		loginForm:    loginform.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
	}
}

// Init restores the session (server mode) or bootstraps directly
// (standalone).
func (m Model) Init() tea.Cmd {
	if m.session != nil {
		return m.restoreSession()
	}
	return m.bootstrap()
}

// bootstrap loads columns and mailboxes, which in turn trigger the
// first email listing.
func (m Model) bootstrap() tea.Cmd {
	return tea.Batch(m.loadColumns(), m.loadMailboxes())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.boardView.SetSize(w, h)
		m.listView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.searchBar.SetSize(w)
		m.compose.SetSize(w, h)
		m.columnForm.SetSize(w, h)
		m.connectForm.SetSize(w, h)
		m.loginForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m.updateActiveView(msg)

	// --- session lifecycle ---

	case sessionRestoredMsg:
		if msg.err != nil {
			m.currentView = ViewLogin
			return m, m.loginForm.Start("")
		}
		m.currentView = ViewBoard
		return m, m.bootstrap()

	case loginform.SubmitMsg:
		return m, m.login(msg.Credentials)

	case loginform.CancelMsg:
		return m, tea.Quit

	case loginResultMsg:
		if msg.err != nil {
			return m, m.loginForm.SetError(loginErrorText(msg.err))
		}
		if m.session != nil {
			if err := m.session.Establish(msg.result); err != nil {
				return m, m.loginForm.SetError(err.Error())
			}
		}
		m.currentView = ViewBoard
		return m, m.bootstrap()

	case sessionExpiredMsg:
		m.currentView = ViewLogin
		return m, m.loginForm.SetError("Session expired, sign in again.")

	// --- data loading ---

	case mailboxesLoadedMsg:
		if msg.err != nil {
			return m.remoteFailure("loading mailboxes", msg.err)
		}
		m.mailboxes = msg.mailboxes
		cmds := []tea.Cmd{}
		if m.composer.MailboxID() == "" && len(msg.mailboxes) > 0 {
			m.composer.SetMailbox(msg.mailboxes[0].ID)
			cmds = append(cmds, m.loadEmails())
		}
		if wait := m.monitor.Observe(msg.mailboxes); wait != nil {
			cmds = append(cmds, wait)
		}
		return m, tea.Batch(cmds...)

	case appsync.MailboxesMsg:
		m.mailboxes = msg.Mailboxes
		return m, m.monitor.WaitForNext()

	case appsync.RefreshMsg:
		cmds := []tea.Cmd{m.monitor.WaitForNext()}
		if msg.MailboxID == m.composer.MailboxID() {
			cmds = append(cmds, m.loadEmails())
		}
		return m, tea.Batch(cmds...)

	case columnsLoadedMsg:
		if msg.err != nil {
			return m.remoteFailure("loading columns", msg.err)
		}
		m.board = board.New(msg.columns)
		m.boardView.SetBoard(m.board)
		m.board.Load(m.nav.Emails(), time.Now())
		return m, nil

	case emailsLoadedMsg:
		if msg.err != nil {
			return m.remoteFailure("loading emails", msg.err)
		}
		m.nav.SetPage(msg.page.Data, msg.page.Meta.CurrentPage, msg.page.Meta.TotalPages)
		m.board.Load(msg.page.Data, time.Now())
		m.boardView.ClampCursor()
		m.listView.SetTitle(m.listTitle())
		return m, nil

	// --- board moves ---

	case boardview.MoveRequestedMsg:
		return m.handleMove(msg)

	case moveResultMsg:
		txn, ok := m.pendingMoves[msg.emailID]
		if !ok {
			return m, nil
		}
		delete(m.pendingMoves, msg.emailID)
		if msg.err != nil {
			txn.Rollback()
			return m.remoteFailure("moving email", msg.err)
		}
		txn.Commit()
		return m, nil

	case boardview.InitializeColumnsMsg:
		return m, m.initializeColumns()

	// --- email open / mutations ---

	case boardview.OpenEmailMsg:
		return m.openEmail(msg.EmailID)

	case maillist.OpenEmailMsg:
		return m.openEmail(msg.EmailID)

	case detail.EmailLoadedMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case emailLoadFailedMsg:
		m.currentView = m.previousView
		return m.remoteFailure("opening email", msg.err)

	case maillist.LoadPageMsg:
		m.composer.SetPage(msg.Page)
		return m, m.loadEmails()

	case maillist.MarkReadMsg:
		return m, m.patchEmail(msg.EmailID, model.EmailPatch{IsRead: boolPtr(true)})

	case maillist.StarMsg:
		return m, m.patchEmail(msg.EmailID, model.EmailPatch{IsStarred: &msg.Starred})

	case boardview.StarEmailMsg:
		return m, m.patchEmail(msg.EmailID, model.EmailPatch{IsStarred: &msg.Starred})

	case maillist.DeleteMsg:
		return m, m.deleteEmail(msg.EmailID)

	case boardview.DeleteEmailMsg:
		return m, m.deleteEmail(msg.EmailID)

	case emailUpdatedMsg:
		if msg.err != nil {
			return m.remoteFailure("updating email", msg.err)
		}
		if msg.email != nil {
			m.nav.Apply(*msg.email)
			m.board.Load(m.nav.Emails(), time.Now())
			m.boardView.ClampCursor()
		}
		return m, nil

	case emailDeletedMsg:
		if msg.err != nil {
			return m.remoteFailure("deleting email", msg.err)
		}
		// The navigator's page feeds every board reload, so the email has
		// to leave both or a later update would resurrect it.
		m.nav.Remove(msg.emailID)
		m.board.RemoveEmail(msg.emailID)
		m.boardView.ClampCursor()
		return m, nil

	// --- search ---

	case searchbar.SubmitMsg:
		m.searchFocused = false
		m.composer.SetSearch(msg.Query)
		m.nav.Close()
		m.currentView = ViewList
		return m, m.loadEmails()

	case searchbar.ClearMsg:
		m.searchFocused = false
		if m.composer.SearchQuery() != "" {
			m.composer.ClearSearch()
			m.currentView = ViewBoard
			return m, m.loadEmails()
		}
		return m, nil

	case searchbar.FetchSuggestionsMsg:
		return m, m.fetchSuggestions(msg.Query)

	case searchbar.SuggestionsMsg:
		var cmd tea.Cmd
		m.searchBar, cmd = m.searchBar.Update(msg)
		return m, cmd

	// --- compose ---

	case detail.ReplyMsg:
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.compose.StartReply(m.composer.MailboxID(), msg.Email)

	case composeform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.sendEmail(msg.Draft)

	case composeform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case emailSentMsg:
		if msg.err != nil {
			return m.remoteFailure("sending email", msg.err)
		}
		return m.withNotice("Email sent.")

	// --- mailbox accounts ---

	case connectform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.connectMailbox(msg.Request)

	case connectform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case mailboxConnectedMsg:
		if msg.err != nil {
			return m.remoteFailure("connecting mailbox", msg.err)
		}
		// Re-list so the monitor observes the new account's initial sync.
		mdl, cmd := m.withNotice(fmt.Sprintf("Connected %s.", msg.mailbox.Email))
		return mdl, tea.Batch(cmd, m.loadMailboxes())

	// --- column management ---

	case columnform.SavedMsg:
		m.currentView = m.previousView
		return m, m.saveColumn(msg.ColumnID, msg.Input)

	case columnform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case columnsChangedMsg:
		if msg.err != nil {
			return m.remoteFailure("updating columns", msg.err)
		}
		return m, m.loadColumns()

	// --- notices / misc ---

	case noticeExpiredMsg:
		m.notice = ""
		return m, nil

	case detail.BackMsg:
		m.currentView = m.previousView
		m.nav.Close()
		return m, nil

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKey(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that apply regardless of the focused
// view, except while a text input owns the keyboard.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Forms and the search bar own the keyboard while focused.
	if m.searchFocused || m.currentView == ViewCompose ||
		m.currentView == ViewColumnForm || m.currentView == ViewConnect ||
		m.currentView == ViewLogin {
		if msg.String() == "ctrl+c" {
			m.monitor.Stop()
			return true, m, tea.Quit
		}
		return false, m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.monitor.Stop()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.monitor.Stop()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "/":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.searchFocused = true
			return true, m, m.searchBar.Focus()
		}

	case "c":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewCompose
			return true, m, m.compose.StartCompose(m.composer.MailboxID())
		}

	case "C":
		if m.currentView == ViewBoard {
			m.previousView = m.currentView
			m.currentView = ViewColumnForm
			return true, m, m.columnForm.StartCreate(len(m.board.Columns()))
		}

	case "E":
		if m.currentView == ViewBoard {
			if col, ok := m.boardView.SelectedColumn(); ok {
				m.previousView = m.currentView
				m.currentView = ViewColumnForm
				return true, m, m.columnForm.StartEdit(col)
			}
			return true, m, nil
		}

	case "D":
		if m.currentView == ViewBoard {
			col, ok := m.boardView.SelectedColumn()
			if !ok {
				return true, m, nil
			}
			if col.IsDefault {
				mdl, cmd := m.withNotice("Default columns cannot be deleted.")
				return true, mdl, cmd
			}
			return true, m, m.deleteColumn(col.ID)
		}

	case "r":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			return true, m, m.syncMailbox()
		}

	case "z":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			if id, ok := m.selectedEmailID(); ok {
				return true, m, m.snoozeEmail(id)
			}
			return true, m, nil
		}

	case "m":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			mdl, cmd := m.cycleMailbox()
			return true, mdl, cmd
		}

	case "M":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewConnect
			return true, m, m.connectForm.Start()
		}

	case "tab":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			mdl, cmd := m.cycleFolder()
			return true, mdl, cmd
		}

	case "1":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.composer.ToggleFilter(query.FilterIsRead, "false")
			return true, m, m.loadEmails()
		}

	case "2":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.composer.ToggleFilter(query.FilterIsStarred, "true")
			return true, m, m.loadEmails()
		}

	case "3":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.composer.ToggleFilter(query.FilterHasAttachments, "true")
			return true, m, m.loadEmails()
		}

	case "0":
		if m.currentView == ViewBoard || m.currentView == ViewList {
			m.composer.ClearFilters()
			return true, m, m.loadEmails()
		}
	}

	return false, m, nil
}

// cycleFolder advances to the next folder. The inbox shows the board;
// every other folder is a flat listing.
func (m Model) cycleFolder() (tea.Model, tea.Cmd) {
	current := m.composer.Folder()
	next := folderCycle[0]
	for i, f := range folderCycle {
		if f == current {
			next = folderCycle[(i+1)%len(folderCycle)]
			break
		}
	}
	m.composer.SetFolder(next)
	m.nav.Close()

	if m.composer.ViewMode() == query.BoardView && next == query.FolderInbox {
		m.currentView = ViewBoard
	} else {
		m.currentView = ViewList
	}
	return m, m.loadEmails()
}

// selectedEmailID resolves the focused email in either primary view.
func (m Model) selectedEmailID() (string, bool) {
	if m.currentView == ViewBoard {
		email, ok := m.boardView.Selected()
		return email.ID, ok
	}
	return m.nav.SelectedID()
}

// snoozeEmail hides an email from the board until tomorrow.
func (m Model) snoozeEmail(emailID string) tea.Cmd {
	until := time.Now().Add(24 * time.Hour)
	return m.patchEmail(emailID, model.EmailPatch{
		IsSnoozed:    boolPtr(true),
		SnoozedUntil: &until,
	})
}

// cycleMailbox switches to the next connected account, clearing the open
// email and reloading the listing for the new mailbox.
func (m Model) cycleMailbox() (tea.Model, tea.Cmd) {
	if len(m.mailboxes) < 2 {
		return m, nil
	}

	next := m.mailboxes[0].ID
	for i, mb := range m.mailboxes {
		if mb.ID == m.composer.MailboxID() {
			next = m.mailboxes[(i+1)%len(m.mailboxes)].ID
			break
		}
	}

	m.composer.SetMailbox(next)
	m.nav.Close()
	return m, m.loadEmails()
}

// handleMove runs one optimistic move through the board and, when the
// move needs a remote mutation, fires it with the transaction held open.
func (m Model) handleMove(msg boardview.MoveRequestedMsg) (tea.Model, tea.Cmd) {
	txn, err := m.board.MoveEmail(msg.EmailID, msg.SrcColumnID, msg.DstColumnID, msg.DstIndex)
	switch {
	case err == board.ErrMovePending:
		return m.withNotice("A move for this email is still in flight.")
	case err != nil:
		// Stale cursor; the board did not change.
		return m, nil
	case txn == nil:
		return m, nil
	case !txn.Remote():
		return m, nil
	}

	m.pendingMoves[msg.EmailID] = txn
	return m, m.moveRemote(msg.EmailID, txn.Request)
}

// openEmail switches to the reading pane and fetches the full message.
// Opening unread mail marks it read; the list path already did that
// through the navigator, so only board opens still see IsRead false here.
func (m Model) openEmail(emailID string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewDetail
	m.detailView.StartLoading()

	cmds := []tea.Cmd{m.loadEmail(emailID)}
	for _, e := range m.nav.Emails() {
		if e.ID == emailID && !e.IsRead {
			cmds = append(cmds, m.patchEmail(emailID, model.EmailPatch{IsRead: boolPtr(true)}))
			break
		}
	}
	return m, tea.Batch(cmds...)
}

// remoteFailure maps a failed remote call onto either a forced logout
// (auth) or a transient notice (everything else).
func (m Model) remoteFailure(op string, err error) (tea.Model, tea.Cmd) {
	if api.IsAuthError(err) && m.session != nil {
		m.session.Clear()
		return m, func() tea.Msg { return sessionExpiredMsg{} }
	}
	return m.withNotice(fmt.Sprintf("Failed %s: %v", op, err))
}

// withNotice shows a transient status-bar message.
func (m Model) withNotice(text string) (tea.Model, tea.Cmd) {
	m.notice = text
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{}
	})
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.searchFocused {
		m.searchBar, cmd = m.searchBar.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewList:
		m.listView, cmd = m.listView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewCompose:
		m.compose, cmd = m.compose.Update(msg)
	case ViewColumnForm:
		m.columnForm, cmd = m.columnForm.Update(msg)
	case ViewConnect:
		m.connectForm, cmd = m.connectForm.Update(msg)
	case ViewLogin:
		m.loginForm, cmd = m.loginForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Mailboard", m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.searchFocused {
		return m.searchBar.View()
	}

	switch m.currentView {
	case ViewBoard:
		return m.boardView.View()
	case ViewList:
		return m.listView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewCompose:
		return m.compose.View()
	case ViewColumnForm:
		return m.columnForm.View()
	case ViewConnect:
		return m.connectForm.View()
	case ViewLogin:
		return m.loginForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus summarizes the mailbox sync states for the header.
func (m Model) syncStatus() string {
	if len(m.mailboxes) == 0 {
		return "no mailboxes"
	}

	busy := 0
	failed := 0
	for _, mb := range m.mailboxes {
		switch {
		case mb.SyncStatus.Busy():
			busy++
		case mb.SyncStatus == model.SyncStatusError:
			failed++
		}
	}

	switch {
	case busy > 0:
		return fmt.Sprintf("syncing (%d)", busy)
	case failed > 0:
		return fmt.Sprintf("sync failed (%d)", failed)
	default:
		return string(m.composer.Folder())
	}
}

// listTitle names the current listing for the list view header.
func (m Model) listTitle() string {
	if q := m.composer.SearchQuery(); q != "" {
		return fmt.Sprintf("Search: %q", q)
	}
	return string(m.composer.Folder())
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help"
	case ViewDetail:
		return "esc back | c reply | j/k scroll"
	case ViewCompose, ViewColumnForm, ViewConnect, ViewLogin:
		return "enter submit | esc cancel"
	case ViewList:
		return "q quit | ? help | / search | tab folder | s star | d delete"
	default:
		hints := "q quit | ? help | / search | tab folder | H/L move | C/E/D columns"
		if m.composer.HasActiveFilters() {
			hints += " | 0 clear filters"
		}
		return hints
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func loginErrorText(err error) string {
	if api.IsAuthError(err) {
		return "Invalid email or password."
	}
	return err.Error()
}
