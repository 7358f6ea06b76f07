package imap

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	gosync "sync"
	"time"

	goimap "github.com/emersion/go-imap/v2"
	"github.com/google/uuid"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
	"github.com/mpham/mailboard/internal/search"
	"github.com/mpham/mailboard/internal/store"
)

// syncLabels are the label folders ingested on each sync, in order.
var syncLabels = []string{
	model.LabelInbox,
	model.LabelArchive,
	model.LabelSent,
	model.LabelDraft,
	model.LabelSpam,
	model.LabelTrash,
}

// envelopesPerFolder caps how many messages one sync pulls per folder.
const envelopesPerFolder = 200

// Service implements the mailbox, email, and column services against a
// single IMAP/SMTP account, with the local cache as the source of truth
// for listings, search, and board state. Email IDs are "label:uid" and
// go stale when a message moves folders; the next sync re-ingests them.
type Service struct {
	client   *Client
	smtp     SMTPConfig
	cache    store.Store
	email    string
	pageSize int

	mu           gosync.Mutex
	status       model.SyncStatus
	lastSyncedAt *time.Time
	totalEmails  int
	syncErr      error
}

// NewService creates the standalone backend for one account.
func NewService(client *Client, smtp SMTPConfig, cache store.Store, accountEmail string, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Service{
		client:   client,
		smtp:     smtp,
		cache:    cache,
		email:    accountEmail,
		pageSize: pageSize,
		status:   model.SyncStatusIdle,
	}
}

// emailID builds the cache key for a message.
func emailID(label string, uid uint32) string {
	return label + ":" + strconv.FormatUint(uint64(uid), 10)
}

// parseEmailID splits a cache key back into label and UID.
func parseEmailID(id string) (label string, uid uint32, err error) {
	i := strings.LastIndex(id, ":")
	if i < 1 {
		return "", 0, fmt.Errorf("invalid email id %q", id)
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid email id %q: %w", id, err)
	}
	return id[:i], uint32(n), nil
}

// === MailboxService ===

// ListMailboxes returns the single configured account with its current
// sync state.
func (s *Service) ListMailboxes(_ context.Context) ([]model.Mailbox, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return []model.Mailbox{{
		ID:           s.email,
		Email:        s.email,
		Provider:     "imap",
		SyncStatus:   s.status,
		TotalEmails:  s.totalEmails,
		LastSyncedAt: s.lastSyncedAt,
	}}, nil
}

// SyncMailbox queues a background ingestion of the account's folders.
// A second request while one is in flight is a no-op.
func (s *Service) SyncMailbox(_ context.Context, id string) error {
	if id != s.email {
		return &api.ValidationError{Op: "sync mailbox", Message: fmt.Sprintf("unknown mailbox %q", id)}
	}

	s.mu.Lock()
	if s.status.Busy() {
		s.mu.Unlock()
		return nil
	}
	s.status = model.SyncStatusPending
	s.syncErr = nil
	s.mu.Unlock()

	go s.runSync()
	return nil
}

// ConnectMailbox is not available in standalone mode; the account comes
// from the config file.
func (s *Service) ConnectMailbox(_ context.Context, _ api.ConnectRequest) (*model.Mailbox, error) {
	return nil, &api.ValidationError{
		Op:      "connect mailbox",
		Message: "mailbox connection is configured in the config file when no server is set",
	}
}

// runSync ingests every label folder into the cache and restores board
// statuses over the fresh rows.
func (s *Service) runSync() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.mu.Lock()
	s.status = model.SyncStatusSyncing
	s.mu.Unlock()

	statuses, err := s.cache.TaskStatuses(ctx)
	if err != nil {
		s.finishSync(0, err)
		return
	}

	total := 0
	for _, label := range syncLabels {
		envelopes, err := s.client.FetchEnvelopes(ctx, label, envelopesPerFolder)
		if err != nil {
			// Missing folders are normal; anything else fails the sync.
			if api.IsAuthError(err) {
				s.finishSync(total, err)
				return
			}
			continue
		}

		emails := make([]model.Email, 0, len(envelopes))
		for _, env := range envelopes {
			e := s.envelopeToEmail(env, label)
			if status, ok := statuses[e.ID]; ok {
				e.TaskStatus = status
			}
			emails = append(emails, e)
		}

		if err := s.cache.UpsertEmails(ctx, emails); err != nil {
			s.finishSync(total, err)
			return
		}
		total += len(emails)
	}

	s.finishSync(total, nil)
}

func (s *Service) finishSync(total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = model.SyncStatusError
		s.syncErr = err
		return
	}

	now := time.Now()
	s.status = model.SyncStatusSynced
	s.lastSyncedAt = &now
	s.totalEmails = total
}

// SyncError returns the error of the last failed sync, if any.
func (s *Service) SyncError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// envelopeToEmail maps an IMAP envelope onto the client model.
func (s *Service) envelopeToEmail(env Envelope, label string) model.Email {
	labels := []string{label}
	if env.Flagged {
		labels = append(labels, model.LabelStarred)
	}

	return model.Email{
		ID:            emailID(label, env.UID),
		MailboxID:     s.email,
		FromEmail:     env.FromAddr,
		FromName:      env.FromName,
		Subject:       env.Subject,
		ReceivedAt:    env.Date,
		IsRead:        env.Seen,
		IsStarred:     env.Flagged,
		Category:      model.CategoryPrimary,
		TaskStatus:    model.TaskStatusNone,
		GmailLabelIDs: labels,
	}
}

// === EmailService ===

// ListEmails serves a page from the cache. Label and snooze filters are
// applied in memory because labels live as a JSON list in the cache.
func (s *Service) ListEmails(ctx context.Context, query api.EmailQuery) (*api.EmailPage, error) {
	filter := store.EmailFilter{
		MailboxID:      query.MailboxID,
		IsRead:         query.IsRead,
		IsStarred:      query.IsStarred,
		HasAttachments: query.HasAttachments,
		Category:       query.Category,
		TaskStatus:     query.TaskStatus,
		FromEmail:      query.FromEmail,
		SortBy:         sortColumn(query.SortBy),
		SortDesc:       !strings.EqualFold(query.SortOrder, "ASC"),
	}

	emails, err := s.cache.GetEmails(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}

	label := query.Label
	if label == "" {
		label = model.LabelInbox
	}

	now := time.Now()
	filtered := emails[:0]
	for _, e := range emails {
		if !e.HasLabel(label) {
			continue
		}
		if query.IsSnoozed != nil && e.Snoozed(now) != *query.IsSnoozed {
			continue
		}
		filtered = append(filtered, e)
	}

	return paginate(filtered, query.Page, limitOrDefault(query.Limit, s.pageSize)), nil
}

func sortColumn(sortBy string) string {
	switch sortBy {
	case "subject":
		return "subject"
	case "fromEmail":
		return "from_email"
	default:
		return "received_at"
	}
}

func limitOrDefault(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}

// paginate slices one page out of a full result set.
func paginate(emails []model.Email, page, limit int) *api.EmailPage {
	if page < 1 {
		page = 1
	}

	total := len(emails)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &api.EmailPage{
		Data: emails[start:end],
		Meta: api.PageMeta{
			TotalItems:  total,
			TotalPages:  totalPages,
			CurrentPage: page,
		},
	}
}

// GetEmail returns one email, fetching and caching its body on first
// open.
func (s *Service) GetEmail(ctx context.Context, id string) (*model.Email, error) {
	email, err := s.cache.GetEmailByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email.Body != "" {
		return email, nil
	}

	label, uid, err := parseEmailID(id)
	if err != nil {
		return nil, err
	}

	parsed, err := s.client.FetchMessage(ctx, label, uid)
	if err != nil {
		return nil, fmt.Errorf("fetching body for %s: %w", id, err)
	}

	email.Body = parsed.TextBody
	if email.Body == "" {
		email.Body = stripHTML(parsed.HTMLBody)
	}
	email.Snippet = snippet(email.Body)
	email.HasAttachments = len(parsed.Attachments) > 0

	if err := s.cache.UpsertEmails(ctx, []model.Email{*email}); err != nil {
		return nil, fmt.Errorf("caching body for %s: %w", id, err)
	}

	return email, nil
}

// UpdateEmail applies a patch: read and star state go to the IMAP
// server, task status and snooze state live only in the cache.
func (s *Service) UpdateEmail(ctx context.Context, id string, patch model.EmailPatch) (*model.Email, error) {
	email, err := s.cache.GetEmailByID(ctx, id)
	if err != nil {
		return nil, err
	}

	label, uid, err := parseEmailID(id)
	if err != nil {
		return nil, err
	}

	if patch.IsRead != nil && *patch.IsRead != email.IsRead {
		if err := s.client.SetFlags(ctx, label, uid, []goimap.Flag{goimap.FlagSeen}, *patch.IsRead); err != nil {
			return nil, fmt.Errorf("updating read flag for %s: %w", id, err)
		}
		email.IsRead = *patch.IsRead
	}

	if patch.IsStarred != nil && *patch.IsStarred != email.IsStarred {
		if err := s.client.SetFlags(ctx, label, uid, []goimap.Flag{goimap.FlagFlagged}, *patch.IsStarred); err != nil {
			return nil, fmt.Errorf("updating star flag for %s: %w", id, err)
		}
		email.IsStarred = *patch.IsStarred
		email.GmailLabelIDs = toggleLabel(email.GmailLabelIDs, model.LabelStarred, *patch.IsStarred)
	}

	if patch.TaskStatus != nil {
		status := model.NormalizeTaskStatus(*patch.TaskStatus)
		if err := s.cache.SetTaskStatus(ctx, id, status); err != nil {
			return nil, fmt.Errorf("updating task status for %s: %w", id, err)
		}
		email.TaskStatus = status
	}

	if patch.IsSnoozed != nil {
		email.IsSnoozed = *patch.IsSnoozed
		if !*patch.IsSnoozed {
			email.SnoozedUntil = nil
		}
	}
	if patch.SnoozedUntil != nil {
		email.SnoozedUntil = patch.SnoozedUntil
	}

	if err := s.cache.UpsertEmails(ctx, []model.Email{*email}); err != nil {
		return nil, fmt.Errorf("caching update for %s: %w", id, err)
	}

	return email, nil
}

// DeleteEmail moves the message to the trash folder.
func (s *Service) DeleteEmail(ctx context.Context, id string) error {
	label, uid, err := parseEmailID(id)
	if err != nil {
		return err
	}

	if err := s.client.Move(ctx, label, uid, model.LabelTrash); err != nil {
		return fmt.Errorf("deleting email %s: %w", id, err)
	}

	return s.cache.DeleteEmail(ctx, id)
}

// SendEmail delivers a draft via SMTP.
func (s *Service) SendEmail(_ context.Context, draft model.Draft) error {
	return s.smtp.Send(draft)
}

// FuzzySearch ranks the cached mailbox contents against the query.
func (s *Service) FuzzySearch(ctx context.Context, params api.FuzzySearchParams) (*api.EmailPage, error) {
	emails, err := s.cache.GetEmails(ctx, store.EmailFilter{MailboxID: params.MailboxID})
	if err != nil {
		return nil, fmt.Errorf("searching emails: %w", err)
	}

	results := search.Search(emails, params)
	return paginate(results, params.Page, limitOrDefault(params.Limit, s.pageSize)), nil
}

// GetSearchSuggestions offers frequent contacts and recent subjects
// matching the query prefix.
func (s *Service) GetSearchSuggestions(ctx context.Context, q string) (*api.Suggestions, error) {
	contacts, err := s.cache.Contacts(ctx, s.email, 50)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	subjects, err := s.cache.RecentSubjects(ctx, s.email, 50)
	if err != nil {
		return nil, fmt.Errorf("loading subjects: %w", err)
	}

	suggestions := search.Suggest(q, contacts, subjects, 5)
	return &suggestions, nil
}

// === ColumnService ===

// defaultColumns is the board layout created on first run.
var defaultColumns = []model.Column{
	{ID: "col-inbox", Title: "Inbox", GmailLabelID: model.LabelInbox, Color: "#4285f4", OrderIndex: 0, IsDefault: true},
	{ID: "col-todo", Title: "To Do", Color: "#fbbc05", OrderIndex: 1, IsDefault: true},
	{ID: "col-in-progress", Title: "In Progress", Color: "#ff6d01", OrderIndex: 2, IsDefault: true},
	{ID: "col-done", Title: "Done", Color: "#34a853", OrderIndex: 3, IsDefault: true},
}

// ListColumns returns the cached board columns in order.
func (s *Service) ListColumns(ctx context.Context) ([]model.Column, error) {
	columns, err := s.cache.GetColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	model.SortColumns(columns)
	return columns, nil
}

// InitializeDefaultColumns creates the default board layout if no
// columns exist yet, and returns the resulting set.
func (s *Service) InitializeDefaultColumns(ctx context.Context) ([]model.Column, error) {
	existing, err := s.cache.GetColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking columns: %w", err)
	}
	if len(existing) > 0 {
		model.SortColumns(existing)
		return existing, nil
	}

	columns := make([]model.Column, len(defaultColumns))
	copy(columns, defaultColumns)
	if err := s.cache.UpsertColumns(ctx, columns); err != nil {
		return nil, fmt.Errorf("creating default columns: %w", err)
	}
	return columns, nil
}

// CreateColumn appends a new column to the board.
func (s *Service) CreateColumn(ctx context.Context, input model.ColumnInput) (*model.Column, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, &api.ValidationError{Op: "create column", Message: "title is required"}
	}

	columns, err := s.cache.GetColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading columns: %w", err)
	}

	column := model.Column{
		ID:           uuid.New().String(),
		Title:        input.Title,
		GmailLabelID: input.GmailLabelID,
		Color:        input.Color,
		OrderIndex:   input.OrderIndex,
	}
	columns = append(columns, column)

	if err := s.cache.UpsertColumns(ctx, columns); err != nil {
		return nil, fmt.Errorf("saving column: %w", err)
	}
	return &column, nil
}

// UpdateColumn edits an existing column.
func (s *Service) UpdateColumn(ctx context.Context, id string, input model.ColumnInput) (*model.Column, error) {
	columns, err := s.cache.GetColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading columns: %w", err)
	}

	found := -1
	for i, c := range columns {
		if c.ID == id {
			found = i
			break
		}
	}
	if found < 0 {
		return nil, &api.ValidationError{Op: "update column", Message: fmt.Sprintf("unknown column %q", id)}
	}

	columns[found].Title = input.Title
	columns[found].GmailLabelID = input.GmailLabelID
	columns[found].Color = input.Color
	columns[found].OrderIndex = input.OrderIndex

	if err := s.cache.UpsertColumns(ctx, columns); err != nil {
		return nil, fmt.Errorf("saving column: %w", err)
	}
	out := columns[found]
	return &out, nil
}

// DeleteColumn removes a non-default column.
func (s *Service) DeleteColumn(ctx context.Context, id string) error {
	columns, err := s.cache.GetColumns(ctx)
	if err != nil {
		return fmt.Errorf("loading columns: %w", err)
	}

	kept := columns[:0]
	found := false
	for _, c := range columns {
		if c.ID != id {
			kept = append(kept, c)
			continue
		}
		if c.IsDefault {
			return &api.ValidationError{Op: "delete column", Message: "default columns cannot be deleted"}
		}
		found = true
	}
	if !found {
		return &api.ValidationError{Op: "delete column", Message: fmt.Sprintf("unknown column %q", id)}
	}

	if err := s.cache.UpsertColumns(ctx, kept); err != nil {
		return fmt.Errorf("saving columns: %w", err)
	}
	return nil
}

// MoveEmailToColumn records the board move: task status goes to the
// cache, and moves out of the inbox optionally archive the message on
// the server in the same operation.
func (s *Service) MoveEmailToColumn(ctx context.Context, emailID string, req api.MoveRequest) error {
	columns, err := s.cache.GetColumns(ctx)
	if err != nil {
		return fmt.Errorf("loading columns: %w", err)
	}
	if !columnExists(columns, req.ColumnID) {
		return &api.ValidationError{Op: "move email", Message: fmt.Sprintf("unknown column %q", req.ColumnID)}
	}

	if err := s.cache.SetTaskStatus(ctx, emailID, req.TaskStatus); err != nil {
		return fmt.Errorf("recording move for %s: %w", emailID, err)
	}

	if !req.ArchiveFromInbox {
		return nil
	}

	label, uid, err := parseEmailID(emailID)
	if err != nil {
		return err
	}
	if err := s.client.Move(ctx, label, uid, model.LabelArchive); err != nil {
		return fmt.Errorf("archiving %s: %w", emailID, err)
	}

	if email, err := s.cache.GetEmailByID(ctx, emailID); err == nil {
		email.GmailLabelIDs = toggleLabel(email.GmailLabelIDs, model.LabelInbox, false)
		email.GmailLabelIDs = toggleLabel(email.GmailLabelIDs, model.LabelArchive, true)
		if err := s.cache.UpsertEmails(ctx, []model.Email{*email}); err != nil {
			return fmt.Errorf("caching archive for %s: %w", emailID, err)
		}
	}

	return nil
}

func columnExists(columns []model.Column, id string) bool {
	for _, c := range columns {
		if c.ID == id {
			return true
		}
	}
	return false
}

// toggleLabel adds or removes one label, keeping the rest untouched.
func toggleLabel(labels []string, label string, present bool) []string {
	out := labels[:0]
	for _, l := range labels {
		if l != label {
			out = append(out, l)
		}
	}
	if present {
		out = append(out, label)
	}
	return out
}

// snippet truncates a body to a short listing preview.
func snippet(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	const max = 140
	if len(body) > max {
		return body[:max]
	}
	return body
}
