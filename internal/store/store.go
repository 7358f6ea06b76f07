// Package store is the local SQLite cache of emails and columns. It
// gives the UI data before the first fetch completes, and in standalone
// IMAP mode it also persists the task-status assignments the backend
// would otherwise own.
package store

import (
	"context"

	"github.com/mpham/mailboard/internal/model"
)

// EmailFilter controls filtering, sorting, and pagination for cached
// email queries.
type EmailFilter struct {
	MailboxID      string
	IsRead         *bool
	IsStarred      *bool
	HasAttachments *bool
	Category       string
	TaskStatus     string
	FromEmail      string

	// Query matches subject, snippet, sender name, and sender address.
	Query string

	SortBy   string // "received_at", "subject", "from_email"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store defines the persistence interface for the local cache.
type Store interface {
	UpsertEmails(ctx context.Context, emails []model.Email) error
	GetEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error)
	CountEmails(ctx context.Context, filter EmailFilter) (int, error)
	GetEmailByID(ctx context.Context, id string) (*model.Email, error)
	DeleteEmail(ctx context.Context, id string) error

	// Task-status overrides for standalone mode, where no backend
	// stores the board state.
	SetTaskStatus(ctx context.Context, emailID string, status model.TaskStatus) error
	TaskStatuses(ctx context.Context) (map[string]model.TaskStatus, error)

	UpsertColumns(ctx context.Context, columns []model.Column) error
	GetColumns(ctx context.Context) ([]model.Column, error)

	// Contacts and RecentSubjects feed local search suggestions.
	Contacts(ctx context.Context, mailboxID string, limit int) ([]string, error)
	RecentSubjects(ctx context.Context, mailboxID string, limit int) ([]string, error)

	Close() error
}
