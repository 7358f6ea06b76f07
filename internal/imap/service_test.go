package imap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cache, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return NewService(nil, SMTPConfig{}, cache, "me@example.com", 50)
}

func TestEmailIDRoundtrip(t *testing.T) {
	tests := []struct {
		id    string
		label string
		uid   uint32
	}{
		{"INBOX:42", "INBOX", 42},
		{"TRASH:1", "TRASH", 1},
		{"[Gmail]/All Mail:999", "[Gmail]/All Mail", 999},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.id, emailID(tt.label, tt.uid))

		label, uid, err := parseEmailID(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.label, label)
		assert.Equal(t, tt.uid, uid)
	}

	for _, bad := range []string{"", "INBOX", ":42", "INBOX:notanumber", "INBOX:"} {
		_, _, err := parseEmailID(bad)
		assert.Error(t, err, "id %q", bad)
	}
}

func TestToggleLabel(t *testing.T) {
	labels := []string{model.LabelInbox}

	labels = toggleLabel(labels, model.LabelStarred, true)
	assert.Equal(t, []string{model.LabelInbox, model.LabelStarred}, labels)

	// Adding an already-present label does not duplicate it.
	labels = toggleLabel(labels, model.LabelStarred, true)
	assert.Equal(t, []string{model.LabelInbox, model.LabelStarred}, labels)

	labels = toggleLabel(labels, model.LabelStarred, false)
	assert.Equal(t, []string{model.LabelInbox}, labels)

	// Removing an absent label is a no-op.
	labels = toggleLabel(labels, model.LabelTrash, false)
	assert.Equal(t, []string{model.LabelInbox}, labels)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "hello world", snippet("  hello\n\n  world \t"))
	assert.Empty(t, snippet(""))

	long := ""
	for i := 0; i < 40; i++ {
		long += "lengthy "
	}
	got := snippet(long)
	assert.Len(t, got, 140)
}

func TestPaginate(t *testing.T) {
	emails := make([]model.Email, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		emails = append(emails, model.Email{ID: id})
	}

	page := paginate(emails, 1, 2)
	assert.Equal(t, []string{"a", "b"}, pageIDs(page))
	assert.Equal(t, 5, page.Meta.TotalItems)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.Equal(t, 1, page.Meta.CurrentPage)

	page = paginate(emails, 3, 2)
	assert.Equal(t, []string{"e"}, pageIDs(page))

	// Past the end: an empty page, not a panic.
	page = paginate(emails, 9, 2)
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.Meta.TotalPages)

	// Page zero is treated as the first page.
	page = paginate(emails, 0, 2)
	assert.Equal(t, []string{"a", "b"}, pageIDs(page))

	page = paginate(nil, 1, 2)
	assert.Empty(t, page.Data)
	assert.Equal(t, 1, page.Meta.TotalPages)
}

func pageIDs(page *api.EmailPage) []string {
	out := make([]string, 0, len(page.Data))
	for _, e := range page.Data {
		out = append(out, e.ID)
	}
	return out
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"tags removed", "<p>Hello <b>there</b></p>", "Hello there"},
		{"breaks become newlines", "line one<br>line two", "line one\nline two"},
		{"entities decoded", "a &amp; b &lt;ok&gt; &quot;x&quot; &#39;y&#39;&nbsp;z", `a & b <ok> "x" 'y' z`},
		{"blank lines squeezed", "<p>a</p><p></p><p></p><p>b</p>", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}

func TestListMailboxesReflectsState(t *testing.T) {
	s := newTestService(t)

	mailboxes, err := s.ListMailboxes(context.Background())
	require.NoError(t, err)
	require.Len(t, mailboxes, 1)
	assert.Equal(t, "me@example.com", mailboxes[0].ID)
	assert.Equal(t, model.SyncStatusIdle, mailboxes[0].SyncStatus)
	assert.Nil(t, mailboxes[0].LastSyncedAt)

	err = s.SyncMailbox(context.Background(), "someone-else@example.com")
	assert.True(t, api.IsValidationError(err))
}

func TestConnectMailboxRejected(t *testing.T) {
	s := newTestService(t)
	_, err := s.ConnectMailbox(context.Background(), api.ConnectRequest{Code: "x"})
	assert.True(t, api.IsValidationError(err))
}

func TestInitializeDefaultColumnsIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	columns, err := s.InitializeDefaultColumns(ctx)
	require.NoError(t, err)
	require.Len(t, columns, 4)
	assert.Equal(t, "col-inbox", columns[0].ID)
	assert.Equal(t, model.LabelInbox, columns[0].GmailLabelID)
	for _, c := range columns {
		assert.True(t, c.IsDefault, "column %s", c.ID)
	}

	// A second call returns the existing set without recreating it.
	again, err := s.InitializeDefaultColumns(ctx)
	require.NoError(t, err)
	assert.Equal(t, columns, again)
}

func TestColumnCRUD(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.InitializeDefaultColumns(ctx)
	require.NoError(t, err)

	_, err = s.CreateColumn(ctx, model.ColumnInput{Title: "   "})
	assert.True(t, api.IsValidationError(err))

	created, err := s.CreateColumn(ctx, model.ColumnInput{Title: "Waiting", Color: "#999", OrderIndex: 9})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsDefault)

	columns, err := s.ListColumns(ctx)
	require.NoError(t, err)
	require.Len(t, columns, 5)
	assert.Equal(t, "Waiting", columns[4].Title)

	updated, err := s.UpdateColumn(ctx, created.ID, model.ColumnInput{Title: "Blocked", OrderIndex: 9})
	require.NoError(t, err)
	assert.Equal(t, "Blocked", updated.Title)

	_, err = s.UpdateColumn(ctx, "ghost", model.ColumnInput{Title: "x"})
	assert.True(t, api.IsValidationError(err))

	// Default columns cannot be deleted; custom ones can.
	err = s.DeleteColumn(ctx, "col-inbox")
	assert.True(t, api.IsValidationError(err))

	err = s.DeleteColumn(ctx, "ghost")
	assert.True(t, api.IsValidationError(err))

	require.NoError(t, s.DeleteColumn(ctx, created.ID))
	columns, err = s.ListColumns(ctx)
	require.NoError(t, err)
	assert.Len(t, columns, 4)
}

func TestMoveEmailToColumnLocalOnly(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.InitializeDefaultColumns(ctx)
	require.NoError(t, err)

	id := emailID(model.LabelInbox, 7)
	require.NoError(t, s.cache.UpsertEmails(ctx, []model.Email{{
		ID: id, MailboxID: "me@example.com", Subject: "hi",
		ReceivedAt: time.Now(), GmailLabelIDs: []string{model.LabelInbox},
	}}))

	err = s.MoveEmailToColumn(ctx, id, api.MoveRequest{ColumnID: "ghost", TaskStatus: model.TaskStatusTodo})
	assert.True(t, api.IsValidationError(err))

	// Without the archive flag the move never touches the IMAP server.
	require.NoError(t, s.MoveEmailToColumn(ctx, id, api.MoveRequest{
		ColumnID:   "col-todo",
		TaskStatus: model.TaskStatusTodo,
	}))

	email, err := s.cache.GetEmailByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, email.TaskStatus)
	assert.True(t, email.HasLabel(model.LabelInbox))
}

func TestListEmailsLabelAndSnoozeFilter(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	now := time.Now()
	later := now.Add(time.Hour)

	require.NoError(t, s.cache.UpsertEmails(ctx, []model.Email{
		{ID: "INBOX:1", MailboxID: "me@example.com", Subject: "a", ReceivedAt: now, GmailLabelIDs: []string{model.LabelInbox}},
		{ID: "INBOX:2", MailboxID: "me@example.com", Subject: "b", ReceivedAt: now.Add(time.Minute), GmailLabelIDs: []string{model.LabelInbox}, SnoozedUntil: &later},
		{ID: "SENT:3", MailboxID: "me@example.com", Subject: "c", ReceivedAt: now, GmailLabelIDs: []string{model.LabelSent}},
	}))

	// No label means the inbox.
	page, err := s.ListEmails(ctx, api.EmailQuery{MailboxID: "me@example.com"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"INBOX:1", "INBOX:2"}, pageIDs(page))

	page, err = s.ListEmails(ctx, api.EmailQuery{MailboxID: "me@example.com", Label: model.LabelSent})
	require.NoError(t, err)
	assert.Equal(t, []string{"SENT:3"}, pageIDs(page))

	notSnoozed := false
	page, err = s.ListEmails(ctx, api.EmailQuery{MailboxID: "me@example.com", IsSnoozed: &notSnoozed})
	require.NoError(t, err)
	assert.Equal(t, []string{"INBOX:1"}, pageIDs(page))
}

func TestFuzzySearchServesFromCache(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.cache.UpsertEmails(ctx, []model.Email{
		{ID: "INBOX:1", MailboxID: "me@example.com", Subject: "Quarterly report", ReceivedAt: time.Now()},
		{ID: "INBOX:2", MailboxID: "me@example.com", Subject: "Lunch plans", ReceivedAt: time.Now()},
	}))

	page, err := s.FuzzySearch(ctx, api.FuzzySearchParams{Q: "quarterly", MailboxID: "me@example.com"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "INBOX:1", page.Data[0].ID)
	assert.Greater(t, page.Data[0].RelevanceScore, 0.0)
}

func TestGetSearchSuggestions(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.cache.UpsertEmails(ctx, []model.Email{
		{ID: "INBOX:1", MailboxID: "me@example.com", FromEmail: "dana@corp.example", Subject: "Quarterly report", ReceivedAt: time.Now()},
		{ID: "INBOX:2", MailboxID: "me@example.com", FromEmail: "dana@corp.example", Subject: "Budget", ReceivedAt: time.Now()},
	}))

	suggestions, err := s.GetSearchSuggestions(ctx, "dan")
	require.NoError(t, err)
	require.NotNil(t, suggestions)
	require.NotEmpty(t, suggestions.Contacts)
	assert.Equal(t, "dana@corp.example", suggestions.Contacts[0])
}
