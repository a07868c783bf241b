package lending

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
)

// HistoryRepository manages the append-only loan record log.
type HistoryRepository interface {
	WithTx(tx *gorm.DB) HistoryRepository
	Append(ctx context.Context, record *models.LoanRecord) error
	FindOldestOpen(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.LoanRecord, error)
	Close(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) (int64, error)
	CountOpen(ctx context.Context) (int64, error)
	CountOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository returns a history repository bound to the provided database.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) WithTx(tx *gorm.DB) HistoryRepository {
	if tx == nil {
		return r
	}
	return &historyRepository{db: tx}
}

func (r *historyRepository) Append(ctx context.Context, record *models.LoanRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindOldestOpen returns the open record selected by Return: first-in-first-out
// by borrow time, with creation time and id as deterministic tie-breaks.
func (r *historyRepository) FindOldestOpen(ctx context.Context, borrowerID, itemID uuid.UUID) (*models.LoanRecord, error) {
	var record models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("borrower_id = ? AND item_id = ? AND returned_at IS NULL", borrowerID, itemID).
		Order("borrowed_at ASC, created_at ASC, id ASC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Close stamps ReturnedAt on a still-open record. The returned row count is
// zero when the record was already closed by a concurrent Return.
func (r *historyRepository) Close(ctx context.Context, recordID uuid.UUID, returnedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LoanRecord{}).
		Where("id = ? AND returned_at IS NULL", recordID).
		Update("returned_at", returnedAt)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *historyRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanRecord{}).
		Where("returned_at IS NULL").
		Count(&n).Error
	return n, err
}

func (r *historyRepository) CountOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanRecord{}).
		Where("returned_at IS NULL AND due_at < ?", asOf).
		Count(&n).Error
	return n, err
}
