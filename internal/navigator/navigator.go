// Package navigator implements the keyboard selection state machine over
// the currently loaded page of emails: next/previous with cross-page
// advance, open/close, star, and delete with neighbor reselection.
//
// The navigator never talks to the network itself. Transitions return an
// Action describing the remote effect the caller should fire; errors from
// those mutations are reported by the mutation layer, not retried here.
package navigator

import "github.com/mpham/mailboard/internal/model"

// Effect is the remote side effect a transition asks the caller to perform.
type Effect int

const (
	// EffectNone means the transition was local-only (or a no-op).
	EffectNone Effect = iota

	// EffectLoadPage asks the caller to fetch Action.Page; the pending
	// selection completes when SetPage delivers the data.
	EffectLoadPage

	// EffectMarkRead asks for a fire-and-forget read-state mutation.
	EffectMarkRead

	// EffectStar asks for a star-state mutation to Action.Starred.
	EffectStar

	// EffectDelete asks for a delete mutation.
	EffectDelete
)

// Action describes the outcome of a transition.
type Action struct {
	Effect  Effect
	EmailID string
	Page    int
	Starred bool
}

// pending is the deferred half of an asynchronous page-advance transition.
type pending int

const (
	pendingNone pending = iota
	pendingSelectFirst
	pendingSelectLast
)

// Navigator tracks the selection over the current page. The zero state
// (no selection, empty page) is valid; all transitions on an empty page
// are no-ops.
type Navigator struct {
	emails     []model.Email
	page       int
	totalPages int
	selected   int // index into emails, -1 for no selection
	pending    pending
}

// New returns a navigator with no page loaded.
func New() *Navigator {
	return &Navigator{page: 1, totalPages: 1, selected: -1}
}

// SetPage installs a freshly loaded page. If a page-advance transition is
// pending, the deferred selection completes now; if fewer emails than
// expected arrived, selection degrades to none rather than failing.
func (n *Navigator) SetPage(emails []model.Email, page, totalPages int) {
	n.emails = emails
	n.page = page
	if totalPages < 1 {
		totalPages = 1
	}
	n.totalPages = totalPages

	switch n.pending {
	case pendingSelectFirst:
		if len(emails) > 0 {
			n.selected = 0
		} else {
			n.selected = -1
		}
	case pendingSelectLast:
		n.selected = len(emails) - 1
	default:
		// Keep the selection if the same email is still present.
		if id, ok := n.SelectedID(); ok {
			n.selected = indexOf(emails, id)
		} else {
			n.selected = -1
		}
	}
	n.pending = pendingNone
}

// Page returns the current 1-based page number.
func (n *Navigator) Page() int {
	return n.page
}

// SelectedID returns the selected email's id, if any.
func (n *Navigator) SelectedID() (string, bool) {
	if n.selected < 0 || n.selected >= len(n.emails) {
		return "", false
	}
	return n.emails[n.selected].ID, true
}

// Selected returns the selected email, if any.
func (n *Navigator) Selected() (model.Email, bool) {
	if n.selected < 0 || n.selected >= len(n.emails) {
		return model.Email{}, false
	}
	return n.emails[n.selected], true
}

// SelectedIndex returns the selected index, or -1.
func (n *Navigator) SelectedIndex() int {
	if n.selected >= len(n.emails) {
		return -1
	}
	return n.selected
}

// Next advances the selection. With no selection it selects the first
// item; at the last item of a non-last page it requests the next page and
// defers selecting its first item until the data arrives; at the last
// item of the last page it is a no-op.
func (n *Navigator) Next() Action {
	if len(n.emails) == 0 {
		return Action{}
	}

	if n.selected < 0 {
		n.selected = 0
		return Action{}
	}

	if n.selected < len(n.emails)-1 {
		n.selected++
		return Action{}
	}

	if n.page < n.totalPages {
		n.pending = pendingSelectFirst
		return Action{Effect: EffectLoadPage, Page: n.page + 1}
	}

	return Action{}
}

// Previous mirrors Next, decrementing the page at the lower boundary.
// It is a no-op at the first item of the first page and with no selection.
func (n *Navigator) Previous() Action {
	if len(n.emails) == 0 || n.selected < 0 {
		return Action{}
	}

	if n.selected > 0 {
		n.selected--
		return Action{}
	}

	if n.page > 1 {
		n.pending = pendingSelectLast
		return Action{Effect: EffectLoadPage, Page: n.page - 1}
	}

	return Action{}
}

// Open opens the selected email. If it is unread, the caller is asked to
// mark it read without blocking the UI.
func (n *Navigator) Open() Action {
	email, ok := n.Selected()
	if !ok {
		return Action{}
	}
	if !email.IsRead {
		n.emails[n.selected].IsRead = true
		return Action{Effect: EffectMarkRead, EmailID: email.ID}
	}
	return Action{}
}

// Close clears the selection.
func (n *Navigator) Close() {
	n.selected = -1
}

// Star toggles the star on the selected email and asks the caller to
// persist the new state.
func (n *Navigator) Star() Action {
	email, ok := n.Selected()
	if !ok {
		return Action{}
	}
	starred := !email.IsStarred
	n.emails[n.selected].IsStarred = starred
	return Action{Effect: EffectStar, EmailID: email.ID, Starred: starred}
}

// Delete removes the selected email from the page. Selection advances to
// the next email in the pre-delete order, falls back to the previous one,
// and clears when the page becomes empty.
func (n *Navigator) Delete() Action {
	email, ok := n.Selected()
	if !ok {
		return Action{}
	}
	n.Remove(email.ID)
	return Action{Effect: EffectDelete, EmailID: email.ID}
}

// Remove drops an email from the page by id, whether or not it is the
// selection. The selection follows the same neighbor rules as Delete;
// removing an id that is not on the page is a no-op. Callers use it to
// keep the page consistent with deletes issued outside the navigator.
func (n *Navigator) Remove(id string) {
	idx := indexOf(n.emails, id)
	if idx < 0 {
		return
	}

	n.emails = append(n.emails[:idx:idx], n.emails[idx+1:]...)

	switch {
	case len(n.emails) == 0:
		n.selected = -1
	case n.selected > idx:
		n.selected--
	case n.selected == idx && n.selected >= len(n.emails):
		n.selected = len(n.emails) - 1
	}
}

// Emails returns the navigator's view of the current page.
func (n *Navigator) Emails() []model.Email {
	return n.emails
}

// Apply replaces the navigator's copy of one email in place (e.g. after a
// server-authoritative update). The selection is unaffected.
func (n *Navigator) Apply(email model.Email) {
	if i := indexOf(n.emails, email.ID); i >= 0 {
		n.emails[i] = email
	}
}

func indexOf(emails []model.Email, id string) int {
	for i, e := range emails {
		if e.ID == id {
			return i
		}
	}
	return -1
}
