// Package board owns the kanban partition of the loaded email page: the
// deterministic classification of emails into columns and the optimistic,
// reversible moves between them.
package board

import (
	"strings"
	"time"

	"github.com/mpham/mailboard/internal/model"
)

// Classifier assigns emails to columns. Classification is an ordered list
// of predicate rules evaluated first-match-wins, so the precedence is
// explicit and testable in isolation.
type Classifier struct {
	columns  []model.Column
	byTitle  map[string]string // normalized title -> column id
	byLabel  map[string]string // gmail label id -> column id
	fallback string            // lowest order index
}

// NewClassifier builds a classifier for the given column configuration.
// Columns are sorted by order index; the first one becomes the fallback.
func NewClassifier(columns []model.Column) *Classifier {
	sorted := make([]model.Column, len(columns))
	copy(sorted, columns)
	model.SortColumns(sorted)

	c := &Classifier{
		columns: sorted,
		byTitle: make(map[string]string, len(sorted)),
		byLabel: make(map[string]string, len(sorted)),
	}

	for _, col := range sorted {
		title := normalizeTitle(col.Title)
		if _, taken := c.byTitle[title]; !taken {
			c.byTitle[title] = col.ID
		}
		if col.GmailLabelID != "" {
			if _, taken := c.byLabel[col.GmailLabelID]; !taken {
				c.byLabel[col.GmailLabelID] = col.ID
			}
		}
	}

	if len(sorted) > 0 {
		c.fallback = sorted[0].ID
	}

	return c
}

// normalizeTitle lowercases and trims a column title for matching.
func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// titleColumn returns the column whose title matches any of the given
// normalized candidates.
func (c *Classifier) titleColumn(candidates ...string) (string, bool) {
	for _, t := range candidates {
		if id, ok := c.byTitle[t]; ok {
			return id, true
		}
	}
	return "", false
}

// labelColumn returns the column bound to the given Gmail label.
func (c *Classifier) labelColumn(labelID string) (string, bool) {
	id, ok := c.byLabel[labelID]
	return id, ok
}

// Classify returns the single column id the email belongs to. The second
// return value is false only when the board has no columns at all.
//
// Precedence, first match wins: task status over star state over category
// over label bindings, with the INBOX column (or the lowest-ordered
// column) as the final fallback.
func (c *Classifier) Classify(email model.Email) (string, bool) {
	if len(c.columns) == 0 {
		return "", false
	}

	status := model.NormalizeTaskStatus(email.TaskStatus)

	switch status {
	case model.TaskStatusTodo:
		if id, ok := c.titleColumn("to do", "todo"); ok {
			return id, true
		}
	case model.TaskStatusInProgress:
		if id, ok := c.titleColumn("in progress"); ok {
			return id, true
		}
	case model.TaskStatusDone:
		if id, ok := c.titleColumn("done"); ok {
			return id, true
		}
	}

	if email.IsStarred {
		if id, ok := c.labelColumn(model.LabelStarred); ok {
			return id, true
		}
	}

	if email.Category == model.CategoryImportant {
		if id, ok := c.labelColumn(model.LabelImportant); ok {
			return id, true
		}
	}

	if status == model.TaskStatusNone || status == "" {
		if id, ok := c.labelColumn(model.LabelInbox); ok {
			return id, true
		}
	}

	if id, ok := c.labelColumn(model.LabelInbox); ok {
		return id, true
	}
	return c.fallback, true
}

// Classify is the package-level convenience form for one-off calls.
func Classify(email model.Email, columns []model.Column) (string, bool) {
	return NewClassifier(columns).Classify(email)
}

// Partition classifies every email into exactly one column sequence,
// preserving the input order within each column. Snoozed emails are
// excluded entirely: they appear in no column.
func (c *Classifier) Partition(emails []model.Email, now time.Time) map[string][]model.Email {
	seqs := make(map[string][]model.Email, len(c.columns))
	for _, col := range c.columns {
		seqs[col.ID] = nil
	}

	for _, email := range emails {
		if email.Snoozed(now) {
			continue
		}
		colID, ok := c.Classify(email)
		if !ok {
			continue
		}
		seqs[colID] = append(seqs[colID], email)
	}

	return seqs
}

// StatusForTitle derives the task status a column's title implies, using
// the same keyword mapping as classification so a manual move and an
// automatic classification always agree.
func StatusForTitle(title string) model.TaskStatus {
	switch normalizeTitle(title) {
	case "to do", "todo":
		return model.TaskStatusTodo
	case "in progress":
		return model.TaskStatusInProgress
	case "done":
		return model.TaskStatusDone
	default:
		return model.TaskStatusNone
	}
}
