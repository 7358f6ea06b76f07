// Package query folds folder selection, filters, sorting, search, and
// pagination into the single backend query descriptor the email service
// consumes, and drives the board/search view mode switch.
package query

import (
	"strings"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

// ViewMode selects between the two mutually exclusive presentation modes.
type ViewMode int

const (
	BoardView ViewMode = iota
	SearchView
)

// Folder is a navigation folder in the mailbox sidebar.
type Folder string

const (
	FolderInbox     Folder = "inbox"
	FolderFavorites Folder = "favorites"
	FolderDrafts    Folder = "drafts"
	FolderSent      Folder = "sent"
	FolderArchive   Folder = "archive"
	FolderSpam      Folder = "spam"
	FolderBin       Folder = "bin"
)

// folderLabels maps each folder to its fixed remote label filter. Inbox
// and favorites are absent: inbox means no label filter and favorites
// maps to isStarred=true instead.
var folderLabels = map[Folder]string{
	FolderDrafts:  model.LabelDraft,
	FolderSent:    model.LabelSent,
	FolderArchive: model.LabelArchive,
	FolderSpam:    model.LabelSpam,
	FolderBin:     model.LabelTrash,
}

// Filter keys the toolbar can toggle.
const (
	FilterIsRead         = "isRead"
	FilterIsStarred      = "isStarred"
	FilterHasAttachments = "hasAttachments"
	FilterIsSnoozed      = "isSnoozed"
	FilterCategory       = "category"
	FilterTaskStatus     = "taskStatus"
	FilterFromEmail      = "fromEmail"
)

// Default sort: newest first.
const (
	DefaultSortBy    = "receivedAt"
	DefaultSortOrder = "DESC"
)

// Composer holds the UI query state for one mailbox session. Each filter
// key is present at most once; toggles are idempotent.
type Composer struct {
	mailboxID   string
	folder      Folder
	filters     map[string]string
	sortBy      string
	sortOrder   string
	searchQuery string
	page        int
	pageSize    int
}

// New creates a composer with default folder, sort, and first-page state.
func New(pageSize int) *Composer {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Composer{
		folder:    FolderInbox,
		filters:   make(map[string]string),
		sortBy:    DefaultSortBy,
		sortOrder: DefaultSortOrder,
		page:      1,
		pageSize:  pageSize,
	}
}

// ViewMode returns SearchView whenever a non-empty search query is
// active, BoardView otherwise.
func (c *Composer) ViewMode() ViewMode {
	if strings.TrimSpace(c.searchQuery) != "" {
		return SearchView
	}
	return BoardView
}

// SearchQuery returns the active free-text query.
func (c *Composer) SearchQuery() string {
	return c.searchQuery
}

// SetSearch installs a free-text query. A non-empty query switches the
// view to search results and resets pagination; an empty one is
// equivalent to ClearSearch.
func (c *Composer) SetSearch(q string) {
	c.searchQuery = q
	c.page = 1
}

// ClearSearch empties the query and returns the view to the board.
func (c *Composer) ClearSearch() {
	c.searchQuery = ""
	c.page = 1
}

// MailboxID returns the selected mailbox id.
func (c *Composer) MailboxID() string {
	return c.mailboxID
}

// SetMailbox selects a mailbox and resets pagination.
func (c *Composer) SetMailbox(id string) {
	if c.mailboxID == id {
		return
	}
	c.mailboxID = id
	c.page = 1
}

// Folder returns the selected folder.
func (c *Composer) Folder() Folder {
	return c.folder
}

// SetFolder selects a folder and resets pagination.
func (c *Composer) SetFolder(f Folder) {
	if c.folder == f {
		return
	}
	c.folder = f
	c.page = 1
}

// ToggleFilter sets a filter key to value; setting a key to the value it
// already holds removes it instead. Toggling twice in succession always
// returns the filter set to its prior state.
func (c *Composer) ToggleFilter(key, value string) {
	if c.filters[key] == value {
		delete(c.filters, key)
	} else {
		c.filters[key] = value
	}
	c.page = 1
}

// ClearFilters removes every active filter.
func (c *Composer) ClearFilters() {
	c.filters = make(map[string]string)
	c.page = 1
}

// HasActiveFilters reports whether any filter is set.
func (c *Composer) HasActiveFilters() bool {
	return len(c.filters) > 0
}

// Filter returns the value of one filter key and whether it is set.
func (c *Composer) Filter(key string) (string, bool) {
	v, ok := c.filters[key]
	return v, ok
}

// SetSorting sets the sort field and direction.
func (c *Composer) SetSorting(sortBy, sortOrder string) {
	c.sortBy = sortBy
	c.sortOrder = sortOrder
}

// Sorting returns the current sort field and direction.
func (c *Composer) Sorting() (string, string) {
	return c.sortBy, c.sortOrder
}

// Page returns the 1-based current page.
func (c *Composer) Page() int {
	return c.page
}

// SetPage moves pagination to the given 1-based page.
func (c *Composer) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.page = page
}

// PageSize returns the configured page size.
func (c *Composer) PageSize() int {
	return c.pageSize
}

// Descriptor produces the single backend query for the current state.
func (c *Composer) Descriptor() api.EmailQuery {
	q := api.EmailQuery{
		MailboxID: c.mailboxID,
		SortBy:    c.sortBy,
		SortOrder: c.sortOrder,
		Page:      c.page,
		Limit:     c.pageSize,
	}

	if label, ok := folderLabels[c.folder]; ok {
		q.Label = label
	}
	if c.folder == FolderFavorites {
		q.IsStarred = boolPtr(true)
	}

	for key, value := range c.filters {
		switch key {
		case FilterIsRead:
			q.IsRead = boolPtr(value == "true")
		case FilterIsStarred:
			q.IsStarred = boolPtr(value == "true")
		case FilterHasAttachments:
			q.HasAttachments = boolPtr(value == "true")
		case FilterIsSnoozed:
			q.IsSnoozed = boolPtr(value == "true")
		case FilterCategory:
			q.Category = value
		case FilterTaskStatus:
			q.TaskStatus = value
		case FilterFromEmail:
			q.FromEmail = value
		}
	}

	return q
}

// SearchParams produces the fuzzy search request for the active query,
// scoped to the selected mailbox. Threshold and fields match what the
// backend's search endpoint expects.
func (c *Composer) SearchParams() api.FuzzySearchParams {
	return api.FuzzySearchParams{
		Q:         c.searchQuery,
		MailboxID: c.mailboxID,
		Threshold: 0.3,
		Fields:    []string{"subject", "fromName", "fromEmail", "snippet"},
		Page:      c.page,
		Limit:     c.pageSize,
	}
}

func boolPtr(b bool) *bool {
	return &b
}
