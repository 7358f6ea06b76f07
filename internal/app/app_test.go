package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

type patchCall struct {
	id    string
	patch model.EmailPatch
}

// fakeEmailService records mutations; reads return empty results.
type fakeEmailService struct {
	patched []patchCall
	deleted []string
}

func (f *fakeEmailService) ListEmails(ctx context.Context, q api.EmailQuery) (*api.EmailPage, error) {
	return &api.EmailPage{Meta: api.PageMeta{TotalPages: 1, CurrentPage: 1}}, nil
}

func (f *fakeEmailService) GetEmail(ctx context.Context, id string) (*model.Email, error) {
	return &model.Email{ID: id}, nil
}

func (f *fakeEmailService) UpdateEmail(ctx context.Context, id string, patch model.EmailPatch) (*model.Email, error) {
	f.patched = append(f.patched, patchCall{id: id, patch: patch})
	return &model.Email{ID: id}, nil
}

func (f *fakeEmailService) DeleteEmail(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEmailService) SendEmail(ctx context.Context, draft model.Draft) error {
	return nil
}

func (f *fakeEmailService) FuzzySearch(ctx context.Context, params api.FuzzySearchParams) (*api.EmailPage, error) {
	return &api.EmailPage{Meta: api.PageMeta{TotalPages: 1, CurrentPage: 1}}, nil
}

func (f *fakeEmailService) GetSearchSuggestions(ctx context.Context, q string) (*api.Suggestions, error) {
	return &api.Suggestions{}, nil
}

// fakeColumnService records deletes; everything else is inert.
type fakeColumnService struct {
	deleted []string
}

func (f *fakeColumnService) ListColumns(ctx context.Context) ([]model.Column, error) {
	return nil, nil
}

func (f *fakeColumnService) CreateColumn(ctx context.Context, input model.ColumnInput) (*model.Column, error) {
	return &model.Column{}, nil
}

func (f *fakeColumnService) UpdateColumn(ctx context.Context, id string, input model.ColumnInput) (*model.Column, error) {
	return &model.Column{ID: id}, nil
}

func (f *fakeColumnService) DeleteColumn(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeColumnService) InitializeDefaultColumns(ctx context.Context) ([]model.Column, error) {
	return nil, nil
}

func (f *fakeColumnService) MoveEmailToColumn(ctx context.Context, emailID string, req api.MoveRequest) error {
	return nil
}

func testModel() (Model, *fakeEmailService, *fakeColumnService) {
	emails := &fakeEmailService{}
	columns := &fakeColumnService{}
	m := New(Services{Emails: emails, Columns: columns}, nil, 50)
	return m, emails, columns
}

func boardColumns() []model.Column {
	return []model.Column{
		{ID: "col-inbox", Title: "Inbox", GmailLabelID: model.LabelInbox, OrderIndex: 0, IsDefault: true},
		{ID: "col-done", Title: "Done", OrderIndex: 1},
	}
}

func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	mdl, _ := m.Update(msg)
	return mdl.(Model)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drainCmd executes a command tree, unwrapping batches so every fake
// service call actually fires.
func drainCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			drainCmd(t, c)
		}
	}
}

func loadedModel(t *testing.T, emails ...model.Email) (Model, *fakeEmailService, *fakeColumnService) {
	t.Helper()
	m, fe, fc := testModel()
	m = apply(t, m, columnsLoadedMsg{columns: boardColumns()})
	m = apply(t, m, emailsLoadedMsg{page: &api.EmailPage{
		Data: emails,
		Meta: api.PageMeta{TotalItems: len(emails), TotalPages: 1, CurrentPage: 1},
	}})
	return m, fe, fc
}

func inboxIDs(m Model) []string {
	seq := m.board.Sequence("col-inbox")
	ids := make([]string, 0, len(seq))
	for _, e := range seq {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestBoardDeleteDoesNotResurrectEmail(t *testing.T) {
	m, _, _ := loadedModel(t,
		model.Email{ID: "a", MailboxID: "mb-1"},
		model.Email{ID: "b", MailboxID: "mb-1"},
	)
	require.Equal(t, []string{"a", "b"}, inboxIDs(m))

	m = apply(t, m, emailDeletedMsg{emailID: "a"})
	require.Equal(t, []string{"b"}, inboxIDs(m))

	// A later update reloads the board from the navigator's page; the
	// deleted email must be gone from both.
	m = apply(t, m, emailUpdatedMsg{email: &model.Email{ID: "b", MailboxID: "mb-1", IsStarred: true}})

	ids := inboxIDs(m)
	assert.NotContains(t, ids, "a")
	assert.Equal(t, []string{"b"}, ids)
}

func TestBoardOpenMarksUnreadEmailRead(t *testing.T) {
	m, fe, _ := loadedModel(t,
		model.Email{ID: "a", MailboxID: "mb-1"},
		model.Email{ID: "b", MailboxID: "mb-1", IsRead: true},
	)

	mdl, cmd := m.openEmail("a")
	m = mdl.(Model)
	drainCmd(t, cmd)

	require.Len(t, fe.patched, 1)
	assert.Equal(t, "a", fe.patched[0].id)
	require.NotNil(t, fe.patched[0].patch.IsRead)
	assert.True(t, *fe.patched[0].patch.IsRead)

	// Already-read mail opens without a mutation.
	_, cmd = m.openEmail("b")
	drainCmd(t, cmd)
	assert.Len(t, fe.patched, 1)
}

func TestEditColumnKeyOpensForm(t *testing.T) {
	m, _, _ := loadedModel(t, model.Email{ID: "a", MailboxID: "mb-1"})

	mdl, cmd := m.Update(keyPress('E'))
	m = mdl.(Model)

	assert.Equal(t, ViewColumnForm, m.currentView)
	assert.NotNil(t, cmd)
}

func TestDeleteColumnKeyRejectsDefault(t *testing.T) {
	m, _, fc := loadedModel(t, model.Email{ID: "a", MailboxID: "mb-1"})

	// The cursor starts on the default inbox column.
	mdl, _ := m.Update(keyPress('D'))
	m = mdl.(Model)

	assert.Equal(t, "Default columns cannot be deleted.", m.notice)
	assert.Empty(t, fc.deleted)
}

func TestDeleteColumnKeyDeletesCustom(t *testing.T) {
	m, _, fc := loadedModel(t, model.Email{ID: "a", MailboxID: "mb-1"})

	m = apply(t, m, keyPress('l')) // focus the custom column
	mdl, cmd := m.Update(keyPress('D'))
	m = mdl.(Model)

	require.NotNil(t, cmd)
	drainCmd(t, cmd)
	assert.Equal(t, []string{"col-done"}, fc.deleted)
	assert.Empty(t, m.notice)
}
