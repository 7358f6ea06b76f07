package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpham/mailboard/internal/model"
)

func emails(ids ...string) []model.Email {
	out := make([]model.Email, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Email{ID: id})
	}
	return out
}

func selectedID(t *testing.T, n *Navigator) string {
	t.Helper()
	id, ok := n.SelectedID()
	require.True(t, ok)
	return id
}

func TestNextWithinPage(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b", "c"), 1, 1)

	// No selection: Next selects the first item.
	act := n.Next()
	assert.Equal(t, EffectNone, act.Effect)
	assert.Equal(t, "a", selectedID(t, n))

	n.Next()
	n.Next()
	assert.Equal(t, "c", selectedID(t, n))

	// Last item of the last page: no-op.
	act = n.Next()
	assert.Equal(t, EffectNone, act.Effect)
	assert.Equal(t, "c", selectedID(t, n))
}

func TestNextCrossesPageBoundary(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b"), 1, 3)
	n.Next()
	n.Next()
	require.Equal(t, "b", selectedID(t, n))

	act := n.Next()
	require.Equal(t, EffectLoadPage, act.Effect)
	assert.Equal(t, 2, act.Page)

	// The selection completes only when the page data arrives.
	n.SetPage(emails("c", "d"), 2, 3)
	assert.Equal(t, "c", selectedID(t, n))
	assert.Equal(t, 2, n.Page())
}

func TestNextCrossPageEmptyResult(t *testing.T) {
	n := New()
	n.SetPage(emails("a"), 1, 2)
	n.Next()

	act := n.Next()
	require.Equal(t, EffectLoadPage, act.Effect)

	// Fewer emails than expected: selection degrades to none.
	n.SetPage(nil, 2, 2)
	_, ok := n.SelectedID()
	assert.False(t, ok)
}

func TestPreviousCrossesPageBoundary(t *testing.T) {
	n := New()
	n.SetPage(emails("c", "d"), 2, 2)
	n.Next()
	require.Equal(t, "c", selectedID(t, n))

	act := n.Previous()
	require.Equal(t, EffectLoadPage, act.Effect)
	assert.Equal(t, 1, act.Page)

	n.SetPage(emails("a", "b"), 1, 2)
	assert.Equal(t, "b", selectedID(t, n))
}

func TestPreviousBoundaries(t *testing.T) {
	n := New()

	// Empty page: no-op.
	assert.Equal(t, EffectNone, n.Previous().Effect)

	n.SetPage(emails("a", "b"), 1, 1)

	// No selection: no-op.
	assert.Equal(t, EffectNone, n.Previous().Effect)

	n.Next()
	act := n.Previous()
	assert.Equal(t, EffectNone, act.Effect)
	assert.Equal(t, "a", selectedID(t, n))
}

func TestSetPageKeepsSelectionByID(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b", "c"), 1, 1)
	n.Next()
	n.Next()
	require.Equal(t, "b", selectedID(t, n))

	// A refresh that reorders the page follows the email, not the index.
	n.SetPage(emails("b", "a", "c"), 1, 1)
	assert.Equal(t, "b", selectedID(t, n))

	// A refresh that drops the email clears the selection.
	n.SetPage(emails("a", "c"), 1, 1)
	_, ok := n.SelectedID()
	assert.False(t, ok)
}

func TestOpenMarksUnreadOnce(t *testing.T) {
	n := New()
	n.SetPage([]model.Email{{ID: "a", IsRead: false}}, 1, 1)
	n.Next()

	act := n.Open()
	require.Equal(t, EffectMarkRead, act.Effect)
	assert.Equal(t, "a", act.EmailID)

	// The local copy flips immediately, so a reopen fires nothing.
	act = n.Open()
	assert.Equal(t, EffectNone, act.Effect)
}

func TestStarToggles(t *testing.T) {
	n := New()
	n.SetPage([]model.Email{{ID: "a", IsStarred: false}}, 1, 1)

	// No selection: no-op.
	assert.Equal(t, EffectNone, n.Star().Effect)

	n.Next()
	act := n.Star()
	require.Equal(t, EffectStar, act.Effect)
	assert.True(t, act.Starred)

	act = n.Star()
	require.Equal(t, EffectStar, act.Effect)
	assert.False(t, act.Starred)
}

func TestDeleteReselection(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b", "c"), 1, 1)
	n.Next()
	n.Next()
	require.Equal(t, "b", selectedID(t, n))

	// Deleting selects the email that followed the deleted one.
	act := n.Delete()
	require.Equal(t, EffectDelete, act.Effect)
	assert.Equal(t, "b", act.EmailID)
	assert.Equal(t, "c", selectedID(t, n))

	// At the tail, selection falls back to the previous email.
	act = n.Delete()
	assert.Equal(t, "c", act.EmailID)
	assert.Equal(t, "a", selectedID(t, n))

	// Deleting the last email clears the selection.
	act = n.Delete()
	assert.Equal(t, "a", act.EmailID)
	_, ok := n.SelectedID()
	assert.False(t, ok)
	assert.Empty(t, n.Emails())

	// Nothing selected: delete is a no-op.
	assert.Equal(t, EffectNone, n.Delete().Effect)
}

func TestRemoveUnselectedEmail(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b", "c"), 1, 1)
	n.Next()
	n.Next()
	require.Equal(t, "b", selectedID(t, n))

	// Removing an email before the selection keeps the selection stable.
	n.Remove("a")
	assert.Equal(t, "b", selectedID(t, n))
	assert.Len(t, n.Emails(), 2)

	// Removing an email after the selection does too.
	n.Remove("c")
	assert.Equal(t, "b", selectedID(t, n))

	// Ids not on the page are ignored.
	n.Remove("ghost")
	assert.Len(t, n.Emails(), 1)
}

func TestRemoveSelectedEmailReselects(t *testing.T) {
	n := New()
	n.SetPage(emails("a", "b"), 1, 1)
	n.Next()
	n.Next()
	require.Equal(t, "b", selectedID(t, n))

	// Removing the selected tail falls back to the previous email.
	n.Remove("b")
	assert.Equal(t, "a", selectedID(t, n))

	n.Remove("a")
	_, ok := n.SelectedID()
	assert.False(t, ok)
	assert.Empty(t, n.Emails())
}

func TestApplyReplacesInPlace(t *testing.T) {
	n := New()
	n.SetPage([]model.Email{{ID: "a", Subject: "old"}, {ID: "b"}}, 1, 1)
	n.Next()

	n.Apply(model.Email{ID: "a", Subject: "new", IsStarred: true})

	got, ok := n.Selected()
	require.True(t, ok)
	assert.Equal(t, "new", got.Subject)
	assert.True(t, got.IsStarred)

	// Unknown ids are ignored.
	n.Apply(model.Email{ID: "ghost"})
	assert.Len(t, n.Emails(), 2)
}

func TestClose(t *testing.T) {
	n := New()
	n.SetPage(emails("a"), 1, 1)
	n.Next()
	n.Close()
	_, ok := n.SelectedID()
	assert.False(t, ok)
	assert.Equal(t, -1, n.SelectedIndex())
}
