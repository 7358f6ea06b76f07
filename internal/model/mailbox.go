package model

import "time"

// SyncStatus is the mailbox-level indicator of background ingestion progress.
// It is owned by the remote sync process; the client only observes it.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// Busy reports whether a sync is in flight or queued for this status.
func (s SyncStatus) Busy() bool {
	return s == SyncStatusPending || s == SyncStatusSyncing
}

// Mailbox is a connected remote mailbox account.
type Mailbox struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Provider     string     `json:"provider,omitempty"`
	SyncStatus   SyncStatus `json:"syncStatus"`
	TotalEmails  int        `json:"totalEmails"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// AnyBusy reports whether any mailbox in the list has a sync in flight.
func AnyBusy(mailboxes []Mailbox) bool {
	for _, mb := range mailboxes {
		if mb.SyncStatus.Busy() {
			return true
		}
	}
	return false
}
