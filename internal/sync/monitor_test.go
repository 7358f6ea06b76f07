package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedMailboxes serves a fixed sequence of poll responses, repeating
// the last one once the script runs out.
type scriptedMailboxes struct {
	mu     gosync.Mutex
	script [][]model.Mailbox
	calls  int
}

func (s *scriptedMailboxes) ListMailboxes(ctx context.Context) ([]model.Mailbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++
	return s.script[idx], nil
}

func (s *scriptedMailboxes) SyncMailbox(ctx context.Context, id string) error {
	return nil
}

func (s *scriptedMailboxes) ConnectMailbox(ctx context.Context, req api.ConnectRequest) (*model.Mailbox, error) {
	return nil, nil
}

func (s *scriptedMailboxes) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func mailbox(id string, status model.SyncStatus) model.Mailbox {
	return model.Mailbox{ID: id, Email: id + "@example.com", SyncStatus: status}
}

// collect drains messages from the monitor until the predicate is
// satisfied or the deadline passes.
func collect(t *testing.T, m *Monitor, done func([]interface{}) bool) []interface{} {
	t.Helper()
	var msgs []interface{}
	deadline := time.After(2 * time.Second)
	for {
		if done(msgs) {
			return msgs
		}
		cmd := m.WaitForNext()
		got := make(chan interface{}, 1)
		go func() { got <- cmd() }()
		select {
		case msg := <-got:
			msgs = append(msgs, msg)
		case <-deadline:
			t.Fatalf("timed out waiting for poll results, got %d messages", len(msgs))
		}
	}
}

func TestObserveIdleMailboxesDoesNotPoll(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSynced)},
	}}
	m := NewMonitor(svc)

	cmd := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSynced)})
	assert.Nil(t, cmd)
	assert.False(t, m.Polling())
	assert.Zero(t, svc.callCount())
}

func TestPollUntilSettledFiresOneRefresh(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSyncing)},
		{mailbox("mb-1", model.SyncStatusSynced)},
		{mailbox("mb-1", model.SyncStatusSynced)},
	}}
	m := NewMonitor(svc)
	m.interval = 5 * time.Millisecond

	cmd := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusPending)})
	require.NotNil(t, cmd)
	assert.True(t, m.Polling())

	msgs := collect(t, m, func(msgs []interface{}) bool {
		for _, msg := range msgs {
			if _, ok := msg.(RefreshMsg); ok {
				return true
			}
		}
		return false
	})

	refreshes := 0
	for _, msg := range msgs {
		if r, ok := msg.(RefreshMsg); ok {
			refreshes++
			assert.Equal(t, "mb-1", r.MailboxID)
		}
	}
	assert.Equal(t, 1, refreshes)

	// The loop stops on its own once every mailbox has settled.
	require.Eventually(t, func() bool { return !m.Polling() },
		time.Second, 5*time.Millisecond)
}

func TestSecondObserveWhileRunningIsNoop(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSyncing)},
	}}
	m := NewMonitor(svc)
	m.interval = 5 * time.Millisecond

	first := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSyncing)})
	require.NotNil(t, first)

	// Only one loop may run; a second Observe subscribes nothing new.
	second := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSyncing)})
	assert.Nil(t, second)

	m.Stop()
	assert.False(t, m.Polling())
}

func TestObserveTransitionOutsideLoop(t *testing.T) {
	// A busy->synced transition delivered via Observe (e.g. a list reload
	// after a mutation) fires the refresh without any polling.
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSynced)},
	}}
	m := NewMonitor(svc)

	cmd := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSyncing)})
	require.NotNil(t, cmd)

	m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSynced)})

	msg := cmd()
	refresh, ok := msg.(RefreshMsg)
	require.True(t, ok, "expected a RefreshMsg, got %T", msg)
	assert.Equal(t, "mb-1", refresh.MailboxID)

	m.Stop()
}

func TestRefreshSurvivesFullResultBuffer(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSynced)},
	}}
	m := NewMonitor(svc)

	cmd := m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSyncing)})
	require.NotNil(t, cmd)

	// A stalled consumer leaves the result buffer full of status updates.
	for i := 0; i < cap(m.resultCh); i++ {
		m.send(MailboxesMsg{})
	}

	m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusSynced)})

	msg := cmd()
	refresh, ok := msg.(RefreshMsg)
	require.True(t, ok, "expected a RefreshMsg, got %T", msg)
	assert.Equal(t, "mb-1", refresh.MailboxID)

	m.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSyncing)},
	}}
	m := NewMonitor(svc)
	m.interval = 5 * time.Millisecond

	m.Stop() // not running yet

	m.Observe([]model.Mailbox{mailbox("mb-1", model.SyncStatusPending)})
	m.Stop()
	m.Stop()
	assert.False(t, m.Polling())
}

func TestPerMailboxTransitions(t *testing.T) {
	svc := &scriptedMailboxes{script: [][]model.Mailbox{
		{mailbox("mb-1", model.SyncStatusSynced), mailbox("mb-2", model.SyncStatusSyncing)},
		{mailbox("mb-1", model.SyncStatusSynced), mailbox("mb-2", model.SyncStatusSynced)},
	}}
	m := NewMonitor(svc)
	m.interval = 5 * time.Millisecond

	// mb-1 was never busy, so only mb-2 settles.
	cmd := m.Observe([]model.Mailbox{
		mailbox("mb-1", model.SyncStatusSynced),
		mailbox("mb-2", model.SyncStatusPending),
	})
	require.NotNil(t, cmd)

	msgs := collect(t, m, func(msgs []interface{}) bool {
		for _, msg := range msgs {
			if _, ok := msg.(RefreshMsg); ok {
				return true
			}
		}
		return false
	})

	for _, msg := range msgs {
		if r, ok := msg.(RefreshMsg); ok {
			assert.Equal(t, "mb-2", r.MailboxID)
		}
	}

	require.Eventually(t, func() bool { return !m.Polling() },
		time.Second, 5*time.Millisecond)
}
