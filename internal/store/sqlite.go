package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mpham/mailboard/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// emailRow mirrors the emails table. Labels are stored as a JSON array
// because SQLite has no native list type.
type emailRow struct {
	ID             string     `db:"id"`
	MailboxID      string     `db:"mailbox_id"`
	FromEmail      string     `db:"from_email"`
	FromName       string     `db:"from_name"`
	Subject        string     `db:"subject"`
	Snippet        string     `db:"snippet"`
	AISummary      string     `db:"ai_summary"`
	Body           string     `db:"body"`
	ReceivedAt     time.Time  `db:"received_at"`
	IsRead         int        `db:"is_read"`
	IsStarred      int        `db:"is_starred"`
	HasAttachments int        `db:"has_attachments"`
	Category       string     `db:"category"`
	TaskStatus     string     `db:"task_status"`
	IsSnoozed      int        `db:"is_snoozed"`
	SnoozedUntil   *time.Time `db:"snoozed_until"`
	Labels         string     `db:"labels"`
	FetchedAt      time.Time  `db:"fetched_at"`
}

func (r emailRow) toModel() (model.Email, error) {
	var labels []string
	if r.Labels != "" {
		if err := json.Unmarshal([]byte(r.Labels), &labels); err != nil {
			return model.Email{}, fmt.Errorf("unmarshaling labels for email %s: %w", r.ID, err)
		}
	}

	return model.Email{
		ID:             r.ID,
		MailboxID:      r.MailboxID,
		FromEmail:      r.FromEmail,
		FromName:       r.FromName,
		Subject:        r.Subject,
		Snippet:        r.Snippet,
		AISummary:      r.AISummary,
		Body:           r.Body,
		ReceivedAt:     r.ReceivedAt,
		IsRead:         r.IsRead != 0,
		IsStarred:      r.IsStarred != 0,
		HasAttachments: r.HasAttachments != 0,
		Category:       model.Category(r.Category),
		TaskStatus:     model.NormalizeTaskStatus(model.TaskStatus(r.TaskStatus)),
		IsSnoozed:      r.IsSnoozed != 0,
		SnoozedUntil:   r.SnoozedUntil,
		GmailLabelIDs:  labels,
	}, nil
}

// UpsertEmails inserts or replaces a batch of emails.
func (s *SQLiteStore) UpsertEmails(ctx context.Context, emails []model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO emails (
			id, mailbox_id, from_email, from_name,
			subject, snippet, ai_summary, body,
			received_at, is_read, is_starred, has_attachments,
			category, task_status, is_snoozed, snoozed_until,
			labels, fetched_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range emails {
		labels, err := json.Marshal(e.GmailLabelIDs)
		if err != nil {
			return fmt.Errorf("marshaling labels for email %s: %w", e.ID, err)
		}

		var snoozedUntil interface{}
		if e.SnoozedUntil != nil {
			snoozedUntil = e.SnoozedUntil.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			e.ID, e.MailboxID, e.FromEmail, e.FromName,
			e.Subject, e.Snippet, e.AISummary, e.Body,
			e.ReceivedAt.UTC(), boolToInt(e.IsRead), boolToInt(e.IsStarred), boolToInt(e.HasAttachments),
			string(e.Category), string(e.TaskStatus), boolToInt(e.IsSnoozed), snoozedUntil,
			string(labels), now,
		)
		if err != nil {
			return fmt.Errorf("upserting email %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// filterClauses builds the WHERE conditions and args shared by GetEmails
// and CountEmails.
func filterClauses(filter EmailFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.MailboxID != "" {
		conditions = append(conditions, "mailbox_id = ?")
		args = append(args, filter.MailboxID)
	}
	if filter.IsRead != nil {
		conditions = append(conditions, "is_read = ?")
		args = append(args, boolToInt(*filter.IsRead))
	}
	if filter.IsStarred != nil {
		conditions = append(conditions, "is_starred = ?")
		args = append(args, boolToInt(*filter.IsStarred))
	}
	if filter.HasAttachments != nil {
		conditions = append(conditions, "has_attachments = ?")
		args = append(args, boolToInt(*filter.HasAttachments))
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.TaskStatus != "" {
		conditions = append(conditions, "task_status = ?")
		args = append(args, filter.TaskStatus)
	}
	if filter.FromEmail != "" {
		conditions = append(conditions, "from_email = ?")
		args = append(args, filter.FromEmail)
	}
	if filter.Query != "" {
		conditions = append(conditions, "(subject LIKE ? OR snippet LIKE ? OR from_name LIKE ? OR from_email LIKE ?)")
		q := "%" + filter.Query + "%"
		args = append(args, q, q, q, q)
	}

	return conditions, args
}

// GetEmails retrieves cached emails matching the provided filter.
func (s *SQLiteStore) GetEmails(ctx context.Context, filter EmailFilter) ([]model.Email, error) {
	conditions, args := filterClauses(filter)

	query := "SELECT * FROM emails"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "received_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"received_at": true,
			"subject":     true,
			"from_email":  true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		var r emailRow
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scanning email row: %w", err)
		}
		email, err := r.toModel()
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

// CountEmails counts cached emails matching the filter, ignoring
// pagination.
func (s *SQLiteStore) CountEmails(ctx context.Context, filter EmailFilter) (int, error) {
	conditions, args := filterClauses(filter)

	query := "SELECT COUNT(*) FROM emails"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting emails: %w", err)
	}
	return count, nil
}

// GetEmailByID retrieves a single cached email by its ID.
func (s *SQLiteStore) GetEmailByID(ctx context.Context, id string) (*model.Email, error) {
	var r emailRow
	err := s.db.GetContext(ctx, &r, "SELECT * FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %s: %w", id, err)
	}

	email, err := r.toModel()
	if err != nil {
		return nil, err
	}
	return &email, nil
}

// DeleteEmail removes a cached email and its task-status override.
func (s *SQLiteStore) DeleteEmail(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM emails WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting email %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM task_status WHERE email_id = ?", id); err != nil {
		return fmt.Errorf("deleting task status for %s: %w", id, err)
	}

	return tx.Commit()
}

// SetTaskStatus records the board status of an email. It writes both the
// override table and the cached email row so reads agree with each other.
func (s *SQLiteStore) SetTaskStatus(ctx context.Context, emailID string, status model.TaskStatus) error {
	status = model.NormalizeTaskStatus(status)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO task_status (email_id, status, updated_at)
		VALUES (?, ?, ?)`,
		emailID, string(status), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting task status for %s: %w", emailID, err)
	}

	_, err = tx.ExecContext(ctx, "UPDATE emails SET task_status = ? WHERE id = ?", string(status), emailID)
	if err != nil {
		return fmt.Errorf("updating cached email %s: %w", emailID, err)
	}

	return tx.Commit()
}

// TaskStatuses returns every recorded status override keyed by email ID.
func (s *SQLiteStore) TaskStatuses(ctx context.Context) (map[string]model.TaskStatus, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT email_id, status FROM task_status")
	if err != nil {
		return nil, fmt.Errorf("querying task statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]model.TaskStatus)
	for rows.Next() {
		var emailID, status string
		if err := rows.Scan(&emailID, &status); err != nil {
			return nil, fmt.Errorf("scanning task status row: %w", err)
		}
		statuses[emailID] = model.NormalizeTaskStatus(model.TaskStatus(status))
	}

	return statuses, rows.Err()
}

// UpsertColumns replaces the cached column set.
func (s *SQLiteStore) UpsertColumns(ctx context.Context, columns []model.Column) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM columns"); err != nil {
		return fmt.Errorf("clearing columns: %w", err)
	}

	const query = `
		INSERT INTO columns (id, title, gmail_label_id, color, order_index, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, c := range columns {
		_, err := tx.ExecContext(ctx, query,
			c.ID, c.Title, c.GmailLabelID, c.Color, c.OrderIndex, boolToInt(c.IsDefault),
		)
		if err != nil {
			return fmt.Errorf("upserting column %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetColumns returns the cached columns in board order.
func (s *SQLiteStore) GetColumns(ctx context.Context) ([]model.Column, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM columns ORDER BY order_index, id")
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var r struct {
			ID           string `db:"id"`
			Title        string `db:"title"`
			GmailLabelID string `db:"gmail_label_id"`
			Color        string `db:"color"`
			OrderIndex   int    `db:"order_index"`
			IsDefault    int    `db:"is_default"`
		}
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		columns = append(columns, model.Column{
			ID:           r.ID,
			Title:        r.Title,
			GmailLabelID: r.GmailLabelID,
			Color:        r.Color,
			OrderIndex:   r.OrderIndex,
			IsDefault:    r.IsDefault != 0,
		})
	}

	return columns, rows.Err()
}

// Contacts returns the most frequent sender addresses for a mailbox,
// used for search suggestions.
func (s *SQLiteStore) Contacts(ctx context.Context, mailboxID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT from_email FROM emails
		WHERE mailbox_id = ? AND from_email != ''
		GROUP BY from_email
		ORDER BY COUNT(*) DESC, MAX(received_at) DESC
		LIMIT ?`,
		mailboxID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// RecentSubjects returns the subjects of the most recently received
// emails in a mailbox, used for search suggestions.
func (s *SQLiteStore) RecentSubjects(ctx context.Context, mailboxID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT subject FROM emails
		WHERE mailbox_id = ? AND subject != ''
		ORDER BY received_at DESC
		LIMIT ?`,
		mailboxID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent subjects: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func scanStrings(rows *sqlx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning string row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
