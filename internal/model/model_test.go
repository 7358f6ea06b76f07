package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTaskStatus(t *testing.T) {
	assert.Equal(t, TaskStatusTodo, NormalizeTaskStatus(TaskStatusTodoLegacy))
	assert.Equal(t, TaskStatusTodo, NormalizeTaskStatus(TaskStatusTodo))
	assert.Equal(t, TaskStatusDone, NormalizeTaskStatus(TaskStatusDone))
	assert.Equal(t, TaskStatusNone, NormalizeTaskStatus(TaskStatusNone))
}

func TestEmailSnoozed(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, Email{IsSnoozed: true}.Snoozed(now))
	assert.True(t, Email{SnoozedUntil: &future}.Snoozed(now))
	assert.False(t, Email{SnoozedUntil: &past}.Snoozed(now))
	assert.False(t, Email{}.Snoozed(now))
}

func TestEmailSender(t *testing.T) {
	assert.Equal(t, "Dana", Email{FromName: "Dana", FromEmail: "d@x.example"}.Sender())
	assert.Equal(t, "d@x.example", Email{FromEmail: "d@x.example"}.Sender())
}

func TestSyncStatusBusy(t *testing.T) {
	assert.True(t, SyncStatusPending.Busy())
	assert.True(t, SyncStatusSyncing.Busy())
	assert.False(t, SyncStatusIdle.Busy())
	assert.False(t, SyncStatusSynced.Busy())
	assert.False(t, SyncStatusError.Busy())

	assert.True(t, AnyBusy([]Mailbox{
		{ID: "a", SyncStatus: SyncStatusSynced},
		{ID: "b", SyncStatus: SyncStatusPending},
	}))
	assert.False(t, AnyBusy([]Mailbox{{ID: "a", SyncStatus: SyncStatusSynced}}))
	assert.False(t, AnyBusy(nil))
}

func TestSortColumns(t *testing.T) {
	cols := []Column{
		{ID: "c", OrderIndex: 2},
		{ID: "b", OrderIndex: 1},
		{ID: "a", OrderIndex: 1},
	}
	SortColumns(cols)
	assert.Equal(t, "a", cols[0].ID)
	assert.Equal(t, "b", cols[1].ID)
	assert.Equal(t, "c", cols[2].ID)
}
