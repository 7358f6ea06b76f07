package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mpham/mailboard/internal/model"
)

// MailboxClient implements MailboxService against the mailboard backend.
type MailboxClient struct {
	client *Client
}

// NewMailboxClient creates a MailboxService backed by the given API client.
func NewMailboxClient(client *Client) *MailboxClient {
	return &MailboxClient{client: client}
}

// ListMailboxes returns all connected mailboxes with their sync status.
func (m *MailboxClient) ListMailboxes(ctx context.Context) ([]model.Mailbox, error) {
	var mailboxes []model.Mailbox
	if err := m.client.Get(ctx, "/mailboxes", &mailboxes); err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}
	return mailboxes, nil
}

// SyncMailbox asks the backend to start a sync for the given mailbox.
func (m *MailboxClient) SyncMailbox(ctx context.Context, id string) error {
	path := "/mailboxes/" + url.PathEscape(id) + "/sync"
	if err := m.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("syncing mailbox %s: %w", id, err)
	}
	return nil
}

// ConnectMailbox exchanges OAuth handshake outputs for a connected mailbox.
// The new mailbox starts in the pending sync state.
func (m *MailboxClient) ConnectMailbox(ctx context.Context, req ConnectRequest) (*model.Mailbox, error) {
	var mailbox model.Mailbox
	if err := m.client.Post(ctx, "/mailboxes/connect", req, &mailbox); err != nil {
		return nil, fmt.Errorf("connecting mailbox: %w", err)
	}
	return &mailbox, nil
}
