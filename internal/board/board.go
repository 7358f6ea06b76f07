package board

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

// Validation failures for moves. Callers treat these as silent no-ops per
// the error taxonomy; ErrMovePending additionally warrants a notice since
// the user actively raced two moves of the same email.
var (
	ErrEmailNotFound  = errors.New("email not present in source column")
	ErrColumnNotFound = errors.New("no such column")
	ErrMovePending    = errors.New("a move for this email is already in flight")
)

// Board owns the in-memory column partition. All mutation goes through
// MoveEmail and the returned transaction's Commit/Rollback, keeping the
// invariant that every visible, non-snoozed email sits in exactly one
// column.
type Board struct {
	classifier *Classifier
	columns    map[string]model.Column
	seqs       map[string][]model.Email
	inflight   map[string]bool // email id -> pending remote move
}

// New creates a board for the given column configuration with empty
// sequences. Call Load to populate it from an email page.
func New(columns []model.Column) *Board {
	c := NewClassifier(columns)

	byID := make(map[string]model.Column, len(c.columns))
	seqs := make(map[string][]model.Email, len(c.columns))
	for _, col := range c.columns {
		byID[col.ID] = col
		seqs[col.ID] = nil
	}

	return &Board{
		classifier: c,
		columns:    byID,
		seqs:       seqs,
		inflight:   make(map[string]bool),
	}
}

// HasColumns reports whether the board has any columns configured. A
// board without columns presents the initialize-defaults affordance
// instead of a partition.
func (b *Board) HasColumns() bool {
	return len(b.classifier.columns) > 0
}

// Columns returns the column configuration in board order.
func (b *Board) Columns() []model.Column {
	return b.classifier.columns
}

// Load replaces the partition with a fresh classification of the given
// emails. Pending moves survive a reload: an email with an in-flight
// mutation keeps its optimistic position rather than being reclassified
// from stale server data.
func (b *Board) Load(emails []model.Email, now time.Time) {
	var held []heldEmail
	for id := range b.inflight {
		if colID, idx, email, ok := b.locate(id); ok {
			held = append(held, heldEmail{email: email, columnID: colID, index: idx})
		}
	}

	b.seqs = b.classifier.Partition(emails, now)

	for _, h := range held {
		seq := b.seqs[h.columnID]
		seq = removeByID(seq, h.email.ID)
		b.seqs[h.columnID] = insertAt(seq, h.email, clampIndex(h.index, len(seq)))
		for colID := range b.seqs {
			if colID != h.columnID {
				b.seqs[colID] = removeByID(b.seqs[colID], h.email.ID)
			}
		}
	}
}

type heldEmail struct {
	email    model.Email
	columnID string
	index    int
}

// Sequence returns the ordered emails of one column. The returned slice
// is the board's own; callers must not mutate it.
func (b *Board) Sequence(columnID string) []model.Email {
	return b.seqs[columnID]
}

// Size returns the total number of emails across all columns.
func (b *Board) Size() int {
	n := 0
	for _, seq := range b.seqs {
		n += len(seq)
	}
	return n
}

// locate finds an email anywhere on the board.
func (b *Board) locate(emailID string) (columnID string, index int, email model.Email, ok bool) {
	for colID, seq := range b.seqs {
		for i, e := range seq {
			if e.ID == emailID {
				return colID, i, e, true
			}
		}
	}
	return "", 0, model.Email{}, false
}

// MoveTxn captures the before-state of a single optimistic move. Commit
// keeps the optimistic partition; Rollback restores both affected
// sequences to their exact pre-move contents.
type MoveTxn struct {
	board *Board

	EmailID     string
	SrcColumnID string
	DstColumnID string

	// Request is the single remote mutation this move requires, or the
	// zero value when the move is local-only (Remote reports which).
	Request api.MoveRequest

	remote    bool
	srcBefore []model.Email
	dstBefore []model.Email
	settled   bool
}

// Remote reports whether this move needs a remote mutation. Local-only
// moves (pure reorders) are already settled.
func (t *MoveTxn) Remote() bool {
	return t.remote
}

// Commit discards the snapshots and keeps the optimistic state.
func (t *MoveTxn) Commit() {
	if t.settled {
		return
	}
	t.settled = true
	delete(t.board.inflight, t.EmailID)
}

// Rollback restores the source and destination sequences to their
// pre-move contents exactly.
func (t *MoveTxn) Rollback() {
	if t.settled {
		return
	}
	t.settled = true
	t.board.seqs[t.SrcColumnID] = t.srcBefore
	t.board.seqs[t.DstColumnID] = t.dstBefore
	delete(t.board.inflight, t.EmailID)
}

// MoveEmail applies an optimistic move of an email from the source column
// to the destination column at dstIndex. The partition is updated
// synchronously before any remote call; the returned transaction carries
// the remote mutation request and the rollback snapshots.
//
// A nil transaction with a nil error means the move was a positional
// no-op. Same-column reorders settle immediately and never produce a
// remote request.
func (b *Board) MoveEmail(emailID, srcColumnID, dstColumnID string, dstIndex int) (*MoveTxn, error) {
	srcCol, ok := b.columns[srcColumnID]
	if !ok {
		return nil, ErrColumnNotFound
	}
	dstCol, ok := b.columns[dstColumnID]
	if !ok {
		return nil, ErrColumnNotFound
	}

	if b.inflight[emailID] {
		return nil, ErrMovePending
	}

	srcSeq := b.seqs[srcColumnID]
	srcIndex := indexOf(srcSeq, emailID)
	if srcIndex < 0 {
		return nil, ErrEmailNotFound
	}

	if srcColumnID == dstColumnID && dstIndex == srcIndex {
		return nil, nil
	}

	srcBefore := snapshot(srcSeq)
	dstBefore := snapshot(b.seqs[dstColumnID])

	email := srcSeq[srcIndex]

	if srcColumnID == dstColumnID {
		// Pure reorder: local-only, always succeeds.
		seq := removeByID(srcSeq, emailID)
		b.seqs[srcColumnID] = insertAt(seq, email, clampIndex(dstIndex, len(seq)))
		return &MoveTxn{
			board:       b,
			EmailID:     emailID,
			SrcColumnID: srcColumnID,
			DstColumnID: dstColumnID,
			srcBefore:   srcBefore,
			dstBefore:   dstBefore,
			settled:     true,
		}, nil
	}

	b.seqs[srcColumnID] = removeByID(srcSeq, emailID)

	status := StatusForTitle(dstCol.Title)
	email.TaskStatus = status
	dstSeq := b.seqs[dstColumnID]
	b.seqs[dstColumnID] = insertAt(dstSeq, email, clampIndex(dstIndex, len(dstSeq)))

	// Leaving the inbox column for anywhere else archives the inbox
	// label; moves that stay in (or return to) the inbox do not.
	archive := srcCol.GmailLabelID == model.LabelInbox &&
		dstCol.GmailLabelID != model.LabelInbox

	b.inflight[emailID] = true

	return &MoveTxn{
		board:       b,
		EmailID:     emailID,
		SrcColumnID: srcColumnID,
		DstColumnID: dstColumnID,
		remote:      true,
		Request: api.MoveRequest{
			ColumnID:         dstColumnID,
			TaskStatus:       status,
			ArchiveFromInbox: archive,
			IdempotencyKey:   uuid.NewString(),
		},
		srcBefore: srcBefore,
		dstBefore: dstBefore,
	}, nil
}

// RemoveEmail drops an email from whatever column holds it (e.g. after a
// delete elsewhere in the UI). No-op while a move is pending for it.
func (b *Board) RemoveEmail(emailID string) {
	if b.inflight[emailID] {
		return
	}
	for colID, seq := range b.seqs {
		b.seqs[colID] = removeByID(seq, emailID)
	}
}

func indexOf(seq []model.Email, emailID string) int {
	for i, e := range seq {
		if e.ID == emailID {
			return i
		}
	}
	return -1
}

func snapshot(seq []model.Email) []model.Email {
	out := make([]model.Email, len(seq))
	copy(out, seq)
	return out
}

func removeByID(seq []model.Email, emailID string) []model.Email {
	out := seq[:0:0]
	for _, e := range seq {
		if e.ID != emailID {
			out = append(out, e)
		}
	}
	return out
}

func insertAt(seq []model.Email, email model.Email, index int) []model.Email {
	out := make([]model.Email, 0, len(seq)+1)
	out = append(out, seq[:index]...)
	out = append(out, email)
	return append(out, seq[index:]...)
}

func clampIndex(index, length int) int {
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}
