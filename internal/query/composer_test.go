package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpham/mailboard/internal/model"
)

func TestViewModeSwitch(t *testing.T) {
	c := New(50)
	assert.Equal(t, BoardView, c.ViewMode())

	c.SetSearch("invoice")
	assert.Equal(t, SearchView, c.ViewMode())

	// Whitespace-only queries do not leave the board.
	c.SetSearch("   ")
	assert.Equal(t, BoardView, c.ViewMode())

	c.SetSearch("invoice")
	c.ClearSearch()
	assert.Equal(t, BoardView, c.ViewMode())
	assert.Empty(t, c.SearchQuery())
}

func TestToggleFilterIdempotence(t *testing.T) {
	c := New(50)

	c.ToggleFilter(FilterIsRead, "false")
	v, ok := c.Filter(FilterIsRead)
	require.True(t, ok)
	assert.Equal(t, "false", v)

	// Same key+value toggles the filter off.
	c.ToggleFilter(FilterIsRead, "false")
	_, ok = c.Filter(FilterIsRead)
	assert.False(t, ok)
	assert.False(t, c.HasActiveFilters())

	// A different value replaces rather than stacks.
	c.ToggleFilter(FilterCategory, string(model.CategorySocial))
	c.ToggleFilter(FilterCategory, string(model.CategoryUpdates))
	v, ok = c.Filter(FilterCategory)
	require.True(t, ok)
	assert.Equal(t, string(model.CategoryUpdates), v)

	c.ClearFilters()
	assert.False(t, c.HasActiveFilters())
}

func TestPaginationResets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Composer)
		reset  bool
	}{
		{"search", func(c *Composer) { c.SetSearch("x") }, true},
		{"clear search", func(c *Composer) { c.ClearSearch() }, true},
		{"folder change", func(c *Composer) { c.SetFolder(FolderSent) }, true},
		{"same folder is a no-op", func(c *Composer) { c.SetFolder(FolderInbox) }, false},
		{"mailbox change", func(c *Composer) { c.SetMailbox("mb-2") }, true},
		{"same mailbox is a no-op", func(c *Composer) { c.SetMailbox("mb-1") }, false},
		{"filter toggle", func(c *Composer) { c.ToggleFilter(FilterIsStarred, "true") }, true},
		{"clear filters", func(c *Composer) { c.ClearFilters() }, true},
		{"sorting keeps the page", func(c *Composer) { c.SetSorting("subject", "ASC") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50)
			c.SetMailbox("mb-1")
			c.SetPage(4)

			tt.mutate(c)

			if tt.reset {
				assert.Equal(t, 1, c.Page())
			} else {
				assert.Equal(t, 4, c.Page())
			}
		})
	}
}

func TestSetPageClamps(t *testing.T) {
	c := New(50)
	c.SetPage(0)
	assert.Equal(t, 1, c.Page())
	c.SetPage(-3)
	assert.Equal(t, 1, c.Page())
	c.SetPage(7)
	assert.Equal(t, 7, c.Page())
}

func TestDescriptorFolderMapping(t *testing.T) {
	tests := []struct {
		folder    Folder
		label     string
		isStarred *bool
	}{
		{FolderInbox, "", nil},
		{FolderDrafts, model.LabelDraft, nil},
		{FolderSent, model.LabelSent, nil},
		{FolderArchive, model.LabelArchive, nil},
		{FolderSpam, model.LabelSpam, nil},
		{FolderBin, model.LabelTrash, nil},
		{FolderFavorites, "", boolPtr(true)},
	}

	for _, tt := range tests {
		t.Run(string(tt.folder), func(t *testing.T) {
			c := New(25)
			c.SetMailbox("mb-1")
			c.SetFolder(tt.folder)

			q := c.Descriptor()
			assert.Equal(t, "mb-1", q.MailboxID)
			assert.Equal(t, tt.label, q.Label)
			if tt.isStarred == nil {
				assert.Nil(t, q.IsStarred)
			} else {
				require.NotNil(t, q.IsStarred)
				assert.Equal(t, *tt.isStarred, *q.IsStarred)
			}
		})
	}
}

func TestDescriptorFilters(t *testing.T) {
	c := New(25)
	c.SetMailbox("mb-1")
	c.ToggleFilter(FilterIsRead, "false")
	c.ToggleFilter(FilterHasAttachments, "true")
	c.ToggleFilter(FilterFromEmail, "ana@example.com")
	c.SetSorting("subject", "ASC")
	c.SetPage(2)

	q := c.Descriptor()

	require.NotNil(t, q.IsRead)
	assert.False(t, *q.IsRead)
	require.NotNil(t, q.HasAttachments)
	assert.True(t, *q.HasAttachments)
	assert.Equal(t, "ana@example.com", q.FromEmail)
	assert.Equal(t, "subject", q.SortBy)
	assert.Equal(t, "ASC", q.SortOrder)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 25, q.Limit)

	values := q.Values()
	assert.Equal(t, "false", values.Get("isRead"))
	assert.Equal(t, "true", values.Get("hasAttachments"))
	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "25", values.Get("limit"))
	assert.Empty(t, values.Get("label"))
}

func TestSearchParams(t *testing.T) {
	c := New(25)
	c.SetMailbox("mb-1")
	c.SetSearch("quarterly report")

	p := c.SearchParams()
	assert.Equal(t, "quarterly report", p.Q)
	assert.Equal(t, "mb-1", p.MailboxID)
	assert.InDelta(t, 0.3, p.Threshold, 1e-9)
	assert.Equal(t, []string{"subject", "fromName", "fromEmail", "snippet"}, p.Fields)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 25, p.Limit)
}

func TestNewDefaults(t *testing.T) {
	c := New(0)
	assert.Equal(t, 50, c.PageSize())
	assert.Equal(t, FolderInbox, c.Folder())
	sortBy, sortOrder := c.Sorting()
	assert.Equal(t, DefaultSortBy, sortBy)
	assert.Equal(t, DefaultSortOrder, sortOrder)
	assert.Equal(t, 1, c.Page())
}
