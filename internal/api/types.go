package api

import (
	"net/url"
	"strconv"

	"github.com/mpham/mailboard/internal/model"
)

// PageMeta describes the pagination state of a listing response.
type PageMeta struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// EmailPage is one page of emails plus its pagination metadata.
type EmailPage struct {
	Data []model.Email `json:"data"`
	Meta PageMeta      `json:"meta"`
}

// EmailQuery is the single backend query descriptor the query composer
// produces from folder, filter, sort, and pagination state.
type EmailQuery struct {
	MailboxID string

	// Label restricts the listing to a Gmail label. Empty means no
	// label filter (the inbox folder).
	Label string

	IsRead         *bool
	IsStarred      *bool
	HasAttachments *bool
	IsSnoozed      *bool
	Category       string
	TaskStatus     string
	FromEmail      string

	SortBy    string
	SortOrder string

	Page  int
	Limit int
}

// Values encodes the query as URL parameters for the email listing endpoint.
func (q EmailQuery) Values() url.Values {
	v := url.Values{}

	setStr := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setBool := func(key string, val *bool) {
		if val != nil {
			v.Set(key, strconv.FormatBool(*val))
		}
	}

	setStr("mailboxId", q.MailboxID)
	setStr("label", q.Label)
	setBool("isRead", q.IsRead)
	setBool("isStarred", q.IsStarred)
	setBool("hasAttachments", q.HasAttachments)
	setBool("isSnoozed", q.IsSnoozed)
	setStr("category", q.Category)
	setStr("taskStatus", q.TaskStatus)
	setStr("fromEmail", q.FromEmail)
	setStr("sortBy", q.SortBy)
	setStr("sortOrder", q.SortOrder)

	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	return v
}

// FuzzySearchParams controls a fuzzy full-text search request.
type FuzzySearchParams struct {
	Q         string
	MailboxID string
	Threshold float64
	Fields    []string
	Page      int
	Limit     int
}

// Suggestions holds typeahead completions for the search box.
type Suggestions struct {
	Contacts []string `json:"contacts"`
	Keywords []string `json:"keywords"`
}

// Credentials is a password login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the response to a successful login or token refresh.
type AuthResult struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken,omitempty"`
}

// ConnectRequest carries the outputs of a completed OAuth handshake used
// to connect a new mailbox.
type ConnectRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier,omitempty"`
}

// MoveRequest asks the backend to move an email into a column, optionally
// archiving it out of the inbox label in the same mutation.
type MoveRequest struct {
	ColumnID         string           `json:"columnId"`
	TaskStatus       model.TaskStatus `json:"taskStatus"`
	ArchiveFromInbox bool             `json:"archiveFromInbox,omitempty"`

	// IdempotencyKey lets the backend deduplicate a retried move.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}
