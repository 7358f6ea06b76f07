// Package sync tracks per-mailbox sync status and drives adaptive
// polling: while any mailbox has a sync in flight the monitor polls the
// mailbox list every three seconds, and when a mailbox settles it fires
// exactly one forced refresh of that mailbox's email list.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

// PollInterval is the fixed delay between mailbox status polls.
const PollInterval = 3 * time.Second

// fetchTimeout bounds a single poll request.
const fetchTimeout = 10 * time.Second

// MailboxesMsg is a tea.Msg carrying the latest polled mailbox list.
type MailboxesMsg struct {
	Mailboxes []model.Mailbox
}

// RefreshMsg is a tea.Msg asking for one forced refresh of the email list
// for a mailbox whose sync just completed.
type RefreshMsg struct {
	MailboxID string
}

// Monitor polls the mailbox service while any mailbox is pending or
// syncing. A failed poll counts as "not syncing this tick" and is retried
// on the next interval; it never stops the loop or reaches the user.
type Monitor struct {
	svc      api.MailboxService
	interval time.Duration

	mu       gosync.Mutex
	statuses map[string]model.SyncStatus
	settled  []string // mailbox ids owed a RefreshMsg, in settle order
	running  bool
	stopCh   chan struct{}

	resultCh  chan tea.Msg
	refreshCh chan struct{} // wakes a blocked waiter when a refresh is owed
}

// NewMonitor creates a monitor for the given mailbox service.
func NewMonitor(svc api.MailboxService) *Monitor {
	return &Monitor{
		svc:       svc,
		interval:  PollInterval,
		statuses:  make(map[string]model.SyncStatus),
		resultCh:  make(chan tea.Msg, 16),
		refreshCh: make(chan struct{}, 1),
	}
}

// Observe feeds the monitor a mailbox list obtained outside the polling
// loop (the initial load, or after a connect/sync mutation). It records
// transitions and starts the polling loop when any mailbox is busy. The
// returned command, when non-nil, subscribes the program to poll results.
func (m *Monitor) Observe(mailboxes []model.Mailbox) tea.Cmd {
	m.recordTransitions(mailboxes)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !model.AnyBusy(mailboxes) || m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	go m.loop(m.stopCh)

	return m.waitForResult()
}

// Stop halts the polling loop. Safe to call when not running; the owning
// view calls it on unmount so no further ticks are issued.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

// Polling reports whether the polling loop is active.
func (m *Monitor) Polling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// WaitForNext returns a command that waits for the next poll result.
// Call it after processing a MailboxesMsg or RefreshMsg to keep
// listening.
func (m *Monitor) WaitForNext() tea.Cmd {
	return m.waitForResult()
}

// loop runs one poll per interval. The fetch runs synchronously inside
// the loop, so at most one request is in flight: a slow poll makes the
// ticker drop intermediate ticks instead of stacking requests.
func (m *Monitor) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if done := m.poll(); done {
				m.mu.Lock()
				// Another Observe may have restarted the loop already.
				if m.stopCh == stopCh {
					m.running = false
				}
				m.mu.Unlock()
				return
			}
		}
	}
}

// poll fetches the mailbox list once, publishes results and refresh
// triggers, and reports whether polling should stop (all settled).
func (m *Monitor) poll() bool {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	mailboxes, err := m.svc.ListMailboxes(ctx)
	if err != nil {
		// Swallowed: retried on the next tick.
		return false
	}

	m.recordTransitions(mailboxes)
	m.send(MailboxesMsg{Mailboxes: mailboxes})

	return !model.AnyBusy(mailboxes)
}

// recordTransitions updates the per-mailbox status memory and queues one
// refresh for each mailbox that moved from busy to synced. Refreshes go
// through the settled queue rather than the result channel: a status
// message lost to a full buffer is replaced by the next poll, but a
// settle event happens once and must reach the consumer.
func (m *Monitor) recordTransitions(mailboxes []model.Mailbox) {
	m.mu.Lock()
	queued := false
	for _, mb := range mailboxes {
		prev, seen := m.statuses[mb.ID]
		if seen && prev.Busy() && mb.SyncStatus == model.SyncStatusSynced {
			m.settled = append(m.settled, mb.ID)
			queued = true
		}
		m.statuses[mb.ID] = mb.SyncStatus
	}
	m.mu.Unlock()

	if queued {
		select {
		case m.refreshCh <- struct{}{}:
		default:
		}
	}
}

// popRefresh takes the oldest owed refresh off the queue.
func (m *Monitor) popRefresh() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.settled) == 0 {
		return "", false
	}
	id := m.settled[0]
	m.settled = m.settled[1:]
	return id, true
}

// send publishes a status message without blocking the poll loop.
func (m *Monitor) send(msg tea.Msg) {
	select {
	case m.resultCh <- msg:
	default:
		// Drop if the channel is full; the next poll carries fresher state.
	}
}

// waitForResult returns a command that delivers the next poll result to
// the Bubble Tea runtime. Owed refreshes are served before status
// messages so they are never lost behind a full buffer.
func (m *Monitor) waitForResult() tea.Cmd {
	return func() tea.Msg {
		for {
			if id, ok := m.popRefresh(); ok {
				return RefreshMsg{MailboxID: id}
			}
			select {
			case msg := <-m.resultCh:
				return msg
			case <-m.refreshCh:
			}
		}
	}
}
