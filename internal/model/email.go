package model

import "time"

// TaskStatus is the workflow state an email carries on the kanban board.
type TaskStatus string

const (
	TaskStatusNone       TaskStatus = "none"
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"

	// TaskStatusTodoLegacy is an alias some older records still carry.
	TaskStatusTodoLegacy TaskStatus = "to_do"
)

// NormalizeTaskStatus maps legacy aliases onto the canonical status values.
func NormalizeTaskStatus(s TaskStatus) TaskStatus {
	if s == TaskStatusTodoLegacy {
		return TaskStatusTodo
	}
	return s
}

// Category is the provider-assigned inbox category of an email.
type Category string

const (
	CategoryPrimary    Category = "primary"
	CategorySocial     Category = "social"
	CategoryPromotions Category = "promotions"
	CategoryUpdates    Category = "updates"
	CategoryForums     Category = "forums"
	CategoryImportant  Category = "important"
)

// Email is the client-side view of a message owned by the remote mailbox
// service. The client holds a read-mostly cached copy per loaded page; the
// board additionally keeps one optimistically mutated copy while a move
// mutation is pending.
type Email struct {
	ID             string     `json:"id" db:"id"`
	MailboxID      string     `json:"mailboxId" db:"mailbox_id"`
	FromEmail      string     `json:"fromEmail" db:"from_email"`
	FromName       string     `json:"fromName" db:"from_name"`
	Subject        string     `json:"subject" db:"subject"`
	Snippet        string     `json:"snippet" db:"snippet"`
	AISummary      string     `json:"aiSummary,omitempty" db:"ai_summary"`
	Body           string     `json:"body,omitempty" db:"body"`
	ReceivedAt     time.Time  `json:"receivedAt" db:"received_at"`
	IsRead         bool       `json:"isRead" db:"is_read"`
	IsStarred      bool       `json:"isStarred" db:"is_starred"`
	HasAttachments bool       `json:"hasAttachments" db:"has_attachments"`
	Category       Category   `json:"category" db:"category"`
	TaskStatus     TaskStatus `json:"taskStatus" db:"task_status"`
	IsSnoozed      bool       `json:"isSnoozed" db:"is_snoozed"`
	SnoozedUntil   *time.Time `json:"snoozedUntil,omitempty" db:"snoozed_until"`
	GmailLabelIDs  []string   `json:"gmailLabelIds,omitempty" db:"-"`

	// RelevanceScore is only populated on fuzzy search results (0..1).
	RelevanceScore float64 `json:"relevanceScore,omitempty" db:"-"`
}

// Snoozed reports whether the email is snoozed at the given instant,
// either by the explicit flag or by a snoozedUntil in the future.
func (e Email) Snoozed(now time.Time) bool {
	if e.IsSnoozed {
		return true
	}
	return e.SnoozedUntil != nil && e.SnoozedUntil.After(now)
}

// HasLabel reports whether the email carries the given Gmail label.
func (e Email) HasLabel(labelID string) bool {
	for _, l := range e.GmailLabelIDs {
		if l == labelID {
			return true
		}
	}
	return false
}

// Sender returns the display name of the sender, falling back to the address.
func (e Email) Sender() string {
	if e.FromName != "" {
		return e.FromName
	}
	return e.FromEmail
}

// EmailPatch is a partial update applied to an email via the remote
// service. Nil fields are left untouched.
type EmailPatch struct {
	IsRead       *bool       `json:"isRead,omitempty"`
	IsStarred    *bool       `json:"isStarred,omitempty"`
	TaskStatus   *TaskStatus `json:"taskStatus,omitempty"`
	IsSnoozed    *bool       `json:"isSnoozed,omitempty"`
	SnoozedUntil *time.Time  `json:"snoozedUntil,omitempty"`
}
