package model

import "sort"

// Well-known Gmail system label IDs a column can be bound to.
const (
	LabelInbox     = "INBOX"
	LabelStarred   = "STARRED"
	LabelImportant = "IMPORTANT"
	LabelDraft     = "DRAFT"
	LabelSent      = "SENT"
	LabelSpam      = "SPAM"
	LabelTrash     = "TRASH"
	LabelArchive   = "ARCHIVE"
)

// Column is a named bucket on the kanban board, optionally bound to a
// remote Gmail label. Ordering across the board is a total order by
// OrderIndex.
type Column struct {
	ID           string `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	GmailLabelID string `json:"gmailLabelId,omitempty" db:"gmail_label_id"`
	Color        string `json:"color,omitempty" db:"color"`
	OrderIndex   int    `json:"orderIndex" db:"order_index"`
	IsDefault    bool   `json:"isDefault" db:"is_default"`
}

// SortColumns orders columns in place by OrderIndex, breaking ties by ID
// so the order is total.
func SortColumns(columns []Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		if columns[i].OrderIndex != columns[j].OrderIndex {
			return columns[i].OrderIndex < columns[j].OrderIndex
		}
		return columns[i].ID < columns[j].ID
	})
}

// ColumnInput is the payload for creating or updating a column.
type ColumnInput struct {
	Title        string `json:"title"`
	GmailLabelID string `json:"gmailLabelId,omitempty"`
	Color        string `json:"color,omitempty"`
	OrderIndex   int    `json:"orderIndex"`
}
