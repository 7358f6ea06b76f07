package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpham/mailboard/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedEmails(t *testing.T, s *SQLiteStore) {
	t.Helper()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertEmails(context.Background(), []model.Email{
		{
			ID: "e1", MailboxID: "mb-1", FromEmail: "dana@corp.example", FromName: "Dana Reyes",
			Subject: "Quarterly report", Snippet: "numbers attached",
			ReceivedAt: base, IsRead: true, Category: model.CategoryPrimary,
			TaskStatus: model.TaskStatusNone, GmailLabelIDs: []string{model.LabelInbox},
		},
		{
			ID: "e2", MailboxID: "mb-1", FromEmail: "dana@corp.example", FromName: "Dana Reyes",
			Subject: "Re: budget", Snippet: "looks fine",
			ReceivedAt: base.Add(time.Hour), IsStarred: true, Category: model.CategoryPrimary,
			TaskStatus: model.TaskStatusTodo, GmailLabelIDs: []string{model.LabelInbox, model.LabelStarred},
		},
		{
			ID: "e3", MailboxID: "mb-1", FromEmail: "noreply@shop.example", FromName: "Shop",
			Subject: "Your order shipped", Snippet: "tracking inside",
			ReceivedAt: base.Add(2 * time.Hour), HasAttachments: true, Category: model.CategoryUpdates,
			TaskStatus: model.TaskStatusNone, GmailLabelIDs: []string{model.LabelArchive},
		},
		{
			ID: "e4", MailboxID: "mb-2", FromEmail: "sam@friends.example", FromName: "Sam",
			Subject: "Weekend plans", Snippet: "are you around",
			ReceivedAt: base.Add(3 * time.Hour), Category: model.CategoryPrimary,
			TaskStatus: model.TaskStatusNone,
		},
	}))
}

func TestUpsertAndGetEmails(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	emails, err := s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", SortDesc: true})
	require.NoError(t, err)
	require.Len(t, emails, 3)
	assert.Equal(t, "e3", emails[0].ID)
	assert.Equal(t, "e1", emails[2].ID)

	// Labels survive the JSON roundtrip.
	assert.Equal(t, []string{model.LabelInbox, model.LabelStarred}, emails[1].GmailLabelIDs)

	// Upserting an existing id replaces the row.
	require.NoError(t, s.UpsertEmails(ctx, []model.Email{{
		ID: "e1", MailboxID: "mb-1", Subject: "Quarterly report v2",
		ReceivedAt: emails[2].ReceivedAt,
	}}))
	got, err := s.GetEmailByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report v2", got.Subject)

	count, err := s.CountEmails(ctx, EmailFilter{MailboxID: "mb-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetEmailsFilters(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	starred := true
	emails, err := s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", IsStarred: &starred})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "e2", emails[0].ID)

	unread := false
	emails, err = s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", IsRead: &unread})
	require.NoError(t, err)
	assert.Len(t, emails, 2)

	attach := true
	count, err := s.CountEmails(ctx, EmailFilter{HasAttachments: &attach})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	emails, err = s.GetEmails(ctx, EmailFilter{Category: string(model.CategoryUpdates)})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "e3", emails[0].ID)

	emails, err = s.GetEmails(ctx, EmailFilter{TaskStatus: string(model.TaskStatusTodo)})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "e2", emails[0].ID)

	emails, err = s.GetEmails(ctx, EmailFilter{FromEmail: "noreply@shop.example"})
	require.NoError(t, err)
	require.Len(t, emails, 1)

	// Free-text matches subject, snippet, and sender fields.
	emails, err = s.GetEmails(ctx, EmailFilter{Query: "tracking"})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "e3", emails[0].ID)

	emails, err = s.GetEmails(ctx, EmailFilter{Query: "dana"})
	require.NoError(t, err)
	assert.Len(t, emails, 2)
}

func TestGetEmailsSortingAndPagination(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	emails, err := s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", SortBy: "subject"})
	require.NoError(t, err)
	require.Len(t, emails, 3)
	assert.Equal(t, "Quarterly report", emails[0].Subject)

	// Unknown sort keys fall back to received_at instead of injecting SQL.
	emails, err = s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", SortBy: "evil; DROP TABLE emails"})
	require.NoError(t, err)
	require.Len(t, emails, 3)
	assert.Equal(t, "e1", emails[0].ID)

	page, err := s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", SortDesc: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e3", page[0].ID)

	page, err = s.GetEmails(ctx, EmailFilter{MailboxID: "mb-1", SortDesc: true, Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e1", page[0].ID)
}

func TestGetEmailByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEmailByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEmailRemovesOverride(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetTaskStatus(ctx, "e1", model.TaskStatusDone))
	require.NoError(t, s.DeleteEmail(ctx, "e1"))

	_, err := s.GetEmailByID(ctx, "e1")
	assert.ErrorIs(t, err, ErrNotFound)

	statuses, err := s.TaskStatuses(ctx)
	require.NoError(t, err)
	assert.NotContains(t, statuses, "e1")
}

func TestSetTaskStatusWritesBothTables(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetTaskStatus(ctx, "e1", model.TaskStatusInProgress))

	got, err := s.GetEmailByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, got.TaskStatus)

	statuses, err := s.TaskStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, statuses["e1"])

	// Legacy aliases are normalized on write.
	require.NoError(t, s.SetTaskStatus(ctx, "e1", model.TaskStatusTodoLegacy))
	statuses, err = s.TaskStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusTodo, statuses["e1"])
}

func TestColumnsRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cols := []model.Column{
		{ID: "col-todo", Title: "To Do", OrderIndex: 1, IsDefault: true},
		{ID: "col-inbox", Title: "Inbox", GmailLabelID: model.LabelInbox, OrderIndex: 0, IsDefault: true, Color: "#8b5cf6"},
	}
	require.NoError(t, s.UpsertColumns(ctx, cols))

	got, err := s.GetColumns(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "col-inbox", got[0].ID)
	assert.Equal(t, "#8b5cf6", got[0].Color)
	assert.True(t, got[0].IsDefault)

	// Upserting replaces the whole set.
	require.NoError(t, s.UpsertColumns(ctx, cols[:1]))
	got, err = s.GetColumns(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "col-todo", got[0].ID)
}

func TestContactsAndRecentSubjects(t *testing.T) {
	s := newTestStore(t)
	seedEmails(t, s)
	ctx := context.Background()

	contacts, err := s.Contacts(ctx, "mb-1", 10)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	// Most frequent sender first.
	assert.Equal(t, "dana@corp.example", contacts[0])

	contacts, err = s.Contacts(ctx, "mb-1", 1)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)

	subjects, err := s.RecentSubjects(ctx, "mb-1", 10)
	require.NoError(t, err)
	require.Len(t, subjects, 3)
	assert.Equal(t, "Your order shipped", subjects[0])
}
