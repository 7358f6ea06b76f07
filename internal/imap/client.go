// Package imap provides the standalone backend: when no server URL is
// configured, the mailbox, email, and column services are implemented
// directly against an IMAP/SMTP account, with board state and search
// served from the local cache.
package imap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	goimap "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

// Folder names tried for each Gmail label. Servers disagree on naming,
// so each label maps to an ordered candidate list; the first folder that
// exists wins.
var labelFolders = map[string][]string{
	model.LabelInbox:   {"INBOX"},
	model.LabelArchive: {"Archive", "[Gmail]/All Mail", "Archives", "INBOX.Archive"},
	model.LabelSent:    {"Sent", "[Gmail]/Sent Mail", "INBOX.Sent"},
	model.LabelDraft:   {"Drafts", "[Gmail]/Drafts", "INBOX.Drafts"},
	model.LabelSpam:    {"Junk", "Spam", "[Gmail]/Spam", "INBOX.Junk"},
	model.LabelTrash:   {"Trash", "[Gmail]/Trash", "Deleted", "INBOX.Trash"},
}

// syncWindow bounds how far back an envelope fetch reaches.
const syncWindow = 30 * 24 * time.Hour

// Envelope is the lightweight listing view of one message.
type Envelope struct {
	UID       uint32
	Folder    string
	MessageID string
	Subject   string
	FromName  string
	FromAddr  string
	To        []string
	Date      time.Time
	Seen      bool
	Flagged   bool
	Answered  bool
}

// ParsedMessage is a fully fetched message with its decoded bodies.
type ParsedMessage struct {
	Envelope    Envelope
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment describes one attachment without its content.
type Attachment struct {
	Filename string
	Size     int64
	MIMEType string
}

// Client wraps go-imap v2 for connecting to and querying an IMAP server.
// Every operation dials a fresh connection; the account sees at most one
// connection at a time because callers serialize through the service.
type Client struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewClient creates a new IMAP client configuration.
func NewClient(host, port, username, password string, tls bool) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// connect establishes a connection, authenticates, and returns the
// connected client. The caller must Logout the returned client.
func (c *Client) connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &api.AuthError{
			Op:      "imap login",
			Message: fmt.Sprintf("authentication failed for %s: %v", c.username, err),
		}
	}

	return client, nil
}

// Validate verifies the credentials by connecting and selecting INBOX.
func (c *Client) Validate(ctx context.Context) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}
	return nil
}

// selectFolder selects the first existing folder for a label and
// returns the folder name it settled on.
func selectFolder(client *imapclient.Client, label string) (string, error) {
	candidates, ok := labelFolders[label]
	if !ok {
		candidates = []string{label}
	}

	var lastErr error
	for _, folder := range candidates {
		if _, err := client.Select(folder, nil).Wait(); err == nil {
			return folder, nil
		} else {
			lastErr = err
		}
	}
	return "", fmt.Errorf("selecting folder for %s: %w", label, lastErr)
}

// FetchEnvelopes fetches recent envelopes from the folder bound to a
// label, most recent last.
func (c *Client) FetchEnvelopes(ctx context.Context, label string, limit int) ([]Envelope, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	folder, err := selectFolder(client, label)
	if err != nil {
		return nil, err
	}

	criteria := &goimap.SearchCriteria{
		Since: time.Now().Add(-syncWindow),
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", folder, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	uidSet := goimap.UIDSetNum(uids...)
	fetchOpts := &goimap.FetchOptions{
		Envelope: true,
		Flags:    true,
		UID:      true,
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var envelopes []Envelope
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		envelopes = append(envelopes, envelopeFromBuffer(buf, folder))
	}

	if err := fetchCmd.Close(); err != nil {
		return envelopes, fmt.Errorf("fetching envelopes from %s: %w", folder, err)
	}

	return envelopes, nil
}

// FetchMessage fetches the full message body for a UID in the folder
// bound to a label and parses it.
func (c *Client) FetchMessage(ctx context.Context, label string, uid uint32) (*ParsedMessage, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	folder, err := selectFolder(client, label)
	if err != nil {
		return nil, err
	}

	uidSet := goimap.UIDSetNum(goimap.UID(uid))
	bodySection := &goimap.FetchItemBodySection{Peek: true}

	fetchOpts := &goimap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*goimap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found in %s", uid, folder)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	parsed := &ParsedMessage{
		Envelope: envelopeFromBuffer(buf, folder),
	}

	if rawBody := buf.FindBodySection(bodySection); rawBody != nil {
		parsed.TextBody, parsed.HTMLBody, parsed.Attachments = parseMIMEBody(rawBody)
	}

	if err := fetchCmd.Close(); err != nil {
		return parsed, fmt.Errorf("closing fetch: %w", err)
	}

	return parsed, nil
}

// SetFlags adds or removes flags on a message.
func (c *Client) SetFlags(ctx context.Context, label string, uid uint32, flags []goimap.Flag, add bool) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := selectFolder(client, label); err != nil {
		return err
	}

	op := goimap.StoreFlagsAdd
	if !add {
		op = goimap.StoreFlagsDel
	}

	storeCmd := client.Store(goimap.UIDSetNum(goimap.UID(uid)), &goimap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}, nil)

	return storeCmd.Close()
}

// Move moves a message from the folder of one label to the folder of
// another. When no destination folder exists, the message is flagged
// deleted instead.
func (c *Client) Move(ctx context.Context, fromLabel string, uid uint32, toLabel string) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := selectFolder(client, fromLabel); err != nil {
		return err
	}

	uidSet := goimap.UIDSetNum(goimap.UID(uid))

	for _, folder := range labelFolders[toLabel] {
		moveCmd := client.Move(uidSet, folder)
		if _, err := moveCmd.Wait(); err == nil {
			return nil
		}
	}

	// Fallback: mark as deleted.
	storeCmd := client.Store(uidSet, &goimap.StoreFlags{
		Op:     goimap.StoreFlagsAdd,
		Silent: true,
		Flags:  []goimap.Flag{goimap.FlagDeleted},
	}, nil)

	return storeCmd.Close()
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer, folder string) Envelope {
	env := Envelope{
		UID:    uint32(buf.UID),
		Folder: folder,
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.FromName = from.Name
			env.FromAddr = from.Addr()
		}

		for _, to := range buf.Envelope.To {
			env.To = append(env.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		switch flag {
		case goimap.FlagSeen:
			env.Seen = true
		case goimap.FlagFlagged:
			env.Flagged = true
		case goimap.FlagAnswered:
			env.Answered = true
		}
	}

	return env
}

// parseMIMEBody parses a raw RFC 2822 message body using go-message and
// extracts the text/plain body, text/html body, and attachment metadata.
func parseMIMEBody(raw []byte) (textBody, htmlBody string, attachments []Attachment) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// If parsing fails, treat the whole thing as plain text.
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			attachments = append(attachments, Attachment{
				Filename: filename,
				Size:     int64(len(body)),
				MIMEType: contentType,
			})
		}
	}

	return textBody, htmlBody, attachments
}
