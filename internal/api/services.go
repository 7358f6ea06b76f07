package api

import (
	"context"

	"github.com/mpham/mailboard/internal/model"
)

// AuthService is the authentication collaborator. Refresh fails with an
// AuthError when no refresh token is available; callers treat that as
// fatal to the session.
type AuthService interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	GoogleLogin(ctx context.Context, credential string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context) error
}

// MailboxService lists and controls connected mailboxes. Sync state is
// mutated only by the remote sync process; clients observe it by polling
// ListMailboxes.
type MailboxService interface {
	ListMailboxes(ctx context.Context) ([]model.Mailbox, error)
	SyncMailbox(ctx context.Context, id string) error
	ConnectMailbox(ctx context.Context, req ConnectRequest) (*model.Mailbox, error)
}

// EmailService reads and mutates emails in the remote mailbox.
type EmailService interface {
	ListEmails(ctx context.Context, query EmailQuery) (*EmailPage, error)
	GetEmail(ctx context.Context, id string) (*model.Email, error)
	UpdateEmail(ctx context.Context, id string, patch model.EmailPatch) (*model.Email, error)
	DeleteEmail(ctx context.Context, id string) error
	SendEmail(ctx context.Context, draft model.Draft) error
	FuzzySearch(ctx context.Context, params FuzzySearchParams) (*EmailPage, error)

	// GetSearchSuggestions returns typeahead completions. Callers only
	// invoke it once the query is at least 2 characters long.
	GetSearchSuggestions(ctx context.Context, q string) (*Suggestions, error)
}

// ColumnService manages the kanban column configuration and performs the
// combined label/task-status move mutation.
type ColumnService interface {
	ListColumns(ctx context.Context) ([]model.Column, error)
	CreateColumn(ctx context.Context, input model.ColumnInput) (*model.Column, error)
	UpdateColumn(ctx context.Context, id string, input model.ColumnInput) (*model.Column, error)

	// DeleteColumn is rejected with a ValidationError for default columns.
	DeleteColumn(ctx context.Context, id string) error
	InitializeDefaultColumns(ctx context.Context) ([]model.Column, error)
	MoveEmailToColumn(ctx context.Context, emailID string, req MoveRequest) error
}
