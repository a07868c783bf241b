package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/internal/clock"
	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
	"github.com/toolcrib/toolcrib-backend/pkg/pagination"
)

// HistoryEntry is one loan record joined with borrower and item names.
type HistoryEntry struct {
	ID           uuid.UUID  `json:"id"`
	BorrowerID   uuid.UUID  `json:"borrower_id"`
	BorrowerName string     `json:"borrower_name"`
	ItemID       uuid.UUID  `json:"item_id"`
	ItemName     string     `json:"item_name"`
	Quantity     int        `json:"quantity"`
	BorrowedAt   time.Time  `json:"borrowed_at"`
	DueAt        time.Time  `json:"due_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// HistoryPage is a cursor-paginated slice of history entries.
type HistoryPage struct {
	Entries    []HistoryEntry `json:"entries"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OverdueEntry is an open loan past its due date as of the query instant.
type OverdueEntry struct {
	HistoryEntry
	DaysOverdue int `json:"days_overdue"`
}

// BorrowerItemEntry is a loan record joined with its item, scoped to one borrower.
type BorrowerItemEntry struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"item_id"`
	ItemName   string     `json:"item_name"`
	Location   string     `json:"location"`
	Quantity   int        `json:"quantity"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Service exposes the read-only reporting views. The views are projections
// over the loan history; nothing here writes.
type Service interface {
	ListHistory(ctx context.Context, params pagination.Params) (*HistoryPage, error)
	ListOverdue(ctx context.Context) ([]OverdueEntry, error)
	ListBorrowerItems(ctx context.Context, borrowerID uuid.UUID) ([]BorrowerItemEntry, error)
}

type service struct {
	db       *gorm.DB
	clock    clock.Clock
	maxLimit int
}

// NewService builds the reporting service. maxLimit caps history page sizes;
// zero falls back to the pagination default cap.
func NewService(db *gorm.DB, clk clock.Clock, maxLimit int) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if maxLimit <= 0 {
		maxLimit = pagination.MaxLimit
	}
	return &service{db: db, clock: clk, maxLimit: maxLimit}, nil
}

const historySelect = `loan_records.id, loan_records.borrower_id, borrowers.name AS borrower_name,
loan_records.item_id, items.name AS item_name, loan_records.quantity,
loan_records.borrowed_at, loan_records.due_at, loan_records.returned_at, loan_records.created_at`

func (s *service) baseHistoryQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("loan_records").
		Select(historySelect).
		Joins("JOIN borrowers ON borrowers.id = loan_records.borrower_id").
		Joins("JOIN items ON items.id = loan_records.item_id")
}

// ListHistory returns the full loan log, newest first, keyset-paginated on
// (created_at, id).
func (s *service) ListHistory(ctx context.Context, params pagination.Params) (*HistoryPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	q := s.baseHistoryQuery(ctx).
		Order("loan_records.created_at DESC, loan_records.id DESC").
		Limit(limit + 1)

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		if cursor != nil {
			q = q.Where(
				"loan_records.created_at < ? OR (loan_records.created_at = ? AND loan_records.id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
	}

	var entries []HistoryEntry
	if err := q.Scan(&entries).Error; err != nil {
		return nil, err
	}

	page := &HistoryPage{}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	page.Entries = entries
	return page, nil
}

// ListOverdue recomputes the overdue set on every call; it depends on the
// wall clock and must never be cached.
func (s *service) ListOverdue(ctx context.Context) ([]OverdueEntry, error) {
	today := dateOf(s.clock.Now())

	var entries []HistoryEntry
	err := s.baseHistoryQuery(ctx).
		Where("loan_records.returned_at IS NULL AND loan_records.due_at < ?", today).
		Order("loan_records.due_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	overdue := make([]OverdueEntry, 0, len(entries))
	for _, entry := range entries {
		days := int(today.Sub(dateOf(entry.DueAt)).Hours() / 24)
		if days < 1 {
			continue
		}
		overdue = append(overdue, OverdueEntry{HistoryEntry: entry, DaysOverdue: days})
	}
	return overdue, nil
}

func (s *service) ListBorrowerItems(ctx context.Context, borrowerID uuid.UUID) ([]BorrowerItemEntry, error) {
	if borrowerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower id is required")
	}

	var entries []BorrowerItemEntry
	err := s.db.WithContext(ctx).
		Table("loan_records").
		Select(`loan_records.id, loan_records.item_id, items.name AS item_name, items.location,
loan_records.quantity, loan_records.borrowed_at, loan_records.due_at, loan_records.returned_at`).
		Joins("JOIN items ON items.id = loan_records.item_id").
		Where("loan_records.borrower_id = ?", borrowerID).
		Order("loan_records.borrowed_at DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// dateOf truncates an instant to its UTC date component.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
